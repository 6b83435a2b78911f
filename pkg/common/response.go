package common

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/predyx/market-connector/pkg/venues/interfaces"
)

// DecodeJSON consumes and closes the response body, classifies the status
// and unmarshals the payload into out (which may be nil to discard it).
//
// Status classification follows the venue error taxonomy: 401 maps to
// interfaces.ErrAuthenticationFailed so callers can distinguish bad
// credentials from a venue being unavailable; any other non-2xx status
// becomes an interfaces.VenueError.
func DecodeJSON(venue string, resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response body: %w", venue, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w: %s", venue, interfaces.ErrAuthenticationFailed, truncate(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return interfaces.NewVenueError(venue, resp.StatusCode, truncate(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s response: %w", venue, err)
		}
	}
	return nil
}

// truncate keeps error bodies readable in logs and wrapped errors.
func truncate(body []byte) string {
	const max = 512
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
