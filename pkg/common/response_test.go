package common

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predyx/market-connector/pkg/venues/interfaces"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestDecodeJSONSuccess(t *testing.T) {
	var out struct {
		Balance int64 `json:"balance"`
	}
	err := DecodeJSON("kalshi", fakeResponse(200, `{"balance":900}`), &out)
	require.NoError(t, err)
	assert.Equal(t, int64(900), out.Balance)
}

func TestDecodeJSONDiscardsWithNilOut(t *testing.T) {
	err := DecodeJSON("kalshi", fakeResponse(200, `{"whatever":true}`), nil)
	require.NoError(t, err)
}

func TestDecodeJSONUnauthorized(t *testing.T) {
	err := DecodeJSON("kalshi", fakeResponse(401, `{"error":"bad token"}`), nil)
	require.ErrorIs(t, err, interfaces.ErrAuthenticationFailed)
	assert.Contains(t, err.Error(), "kalshi")
	assert.Contains(t, err.Error(), "bad token")
}

func TestDecodeJSONVenueError(t *testing.T) {
	err := DecodeJSON("polymarket", fakeResponse(404, `{"error":"no such market"}`), nil)
	require.Error(t, err)

	var venueErr *interfaces.VenueError
	require.ErrorAs(t, err, &venueErr)
	assert.Equal(t, "polymarket", venueErr.Venue)
	assert.Equal(t, 404, venueErr.StatusCode)
	assert.Contains(t, venueErr.Body, "no such market")

	assert.False(t, errors.Is(err, interfaces.ErrAuthenticationFailed))
}

func TestDecodeJSONMalformedPayload(t *testing.T) {
	var out map[string]interface{}
	err := DecodeJSON("kalshi", fakeResponse(200, `{not json`), &out)
	require.Error(t, err)
}

func TestDecodeJSONTruncatesLongBodies(t *testing.T) {
	long := strings.Repeat("x", 2048)
	err := DecodeJSON("kalshi", fakeResponse(500, long), nil)
	require.Error(t, err)

	var venueErr *interfaces.VenueError
	require.ErrorAs(t, err, &venueErr)
	assert.Less(t, len(venueErr.Body), 600)
	assert.True(t, strings.HasSuffix(venueErr.Body, "..."))
}
