package kalshi

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/predyx/market-connector/pkg/venues/interfaces"
)

// Header names for the signed-request scheme.
const (
	headerAccessKey       = "KALSHI-ACCESS-KEY"
	headerAccessSignature = "KALSHI-ACCESS-SIGNATURE"
	headerAccessTimestamp = "KALSHI-ACCESS-TIMESTAMP"
)

const pemMarker = "-----BEGIN"

// signer produces the three authentication headers for signed requests.
type signer struct {
	keyID string
	key   *rsa.PrivateKey
}

// newSigner builds a signer from an access-key id and PEM material. The
// material may be inline PEM text or a path to a PEM file; a path is
// resolved and read here, before any request is attempted.
func newSigner(keyID, pemSource string) (*signer, error) {
	if keyID == "" {
		return nil, interfaces.ErrMissingKeyID
	}

	material := pemSource
	if !strings.HasPrefix(pemSource, pemMarker) {
		data, err := os.ReadFile(pemSource)
		if err != nil {
			return nil, fmt.Errorf("reading private key file %q: %w", pemSource, err)
		}
		material = string(data)
	}

	key, err := parseRSAPrivateKey([]byte(material))
	if err != nil {
		return nil, err
	}

	return &signer{keyID: keyID, key: key}, nil
}

// parseRSAPrivateKey accepts PKCS#8 or PKCS#1 encoded RSA keys.
func parseRSAPrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", interfaces.ErrMalformedPrivateKey)
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrMalformedPrivateKey, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA key", interfaces.ErrMalformedPrivateKey)
	}
	return key, nil
}

// signPSS signs text with RSA-PSS: SHA-256 digest, MGF1(SHA-256), salt
// length equal to the digest length. Returns the base64-encoded signature.
func signPSS(key *rsa.PrivateKey, text string) (string, error) {
	digest := crypto.SHA256.New()
	digest.Write([]byte(text))

	sig, err := rsa.SignPSS(rand.Reader, key, crypto.SHA256, digest.Sum(nil), &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
		Hash:       crypto.SHA256,
	})
	if err != nil {
		return "", fmt.Errorf("rsa-pss signing failed: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// signingMessage builds the string covered by the signature:
// millisecond timestamp, upper-case method, URL path with the query
// string excluded.
func signingMessage(timestampMs int64, method, path string) string {
	return strconv.FormatInt(timestampMs, 10) + strings.ToUpper(method) + path
}

// requestHeaders returns the three signed headers for a request. The
// timestamp is captured immediately before signing: the server rejects
// stale timestamps, so there is no room for caching here.
func (s *signer) requestHeaders(method, path string) (http.Header, error) {
	timestampMs := time.Now().UnixMilli()
	sig, err := signPSS(s.key, signingMessage(timestampMs, method, path))
	if err != nil {
		return nil, err
	}

	h := http.Header{}
	h.Set(headerAccessKey, s.keyID)
	h.Set(headerAccessSignature, sig)
	h.Set(headerAccessTimestamp, strconv.FormatInt(timestampMs, 10))
	return h, nil
}

func bearerHeader(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}
