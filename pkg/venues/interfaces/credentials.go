package interfaces

// CredentialKind identifies which authentication scheme a Credential
// carries. Exactly one scheme is active per client instance; the kind is
// chosen by the caller at construction and never inferred from the
// credential material itself.
type CredentialKind int

const (
	// CredentialNone means no credential was supplied. Public endpoints
	// still work; authenticated endpoints fail before any network call.
	CredentialNone CredentialKind = iota

	// CredentialBearer is a pre-issued opaque token sent verbatim in an
	// Authorization header.
	CredentialBearer

	// CredentialRSAKey is an access-key identifier paired with a
	// PEM-encoded RSA private key used for request signing. The PEM value
	// may be the key material itself or a filesystem path to a PEM file.
	CredentialRSAKey
)

// Credential is a tagged authentication variant: either a bearer token or
// a key-id plus RSA private key. Construct with BearerToken or RSAKey.
type Credential struct {
	kind  CredentialKind
	token string
	keyID string
	pem   string
}

// BearerToken returns a credential that authenticates with an opaque
// bearer token.
func BearerToken(token string) Credential {
	return Credential{kind: CredentialBearer, token: token}
}

// RSAKey returns a credential that authenticates by signing requests with
// an RSA private key. keyID is the access-key identifier issued alongside
// the key; pem is either inline PEM text or a path to a PEM file.
func RSAKey(keyID, pem string) Credential {
	return Credential{kind: CredentialRSAKey, keyID: keyID, pem: pem}
}

// Kind returns the authentication scheme this credential selects.
func (c Credential) Kind() CredentialKind { return c.kind }

// Token returns the bearer token. Empty unless Kind is CredentialBearer.
func (c Credential) Token() string { return c.token }

// KeyID returns the access-key identifier. Empty unless Kind is
// CredentialRSAKey.
func (c Credential) KeyID() string { return c.keyID }

// PEM returns the private key material or path. Empty unless Kind is
// CredentialRSAKey.
func (c Credential) PEM() string { return c.pem }

// IsZero reports whether no credential was supplied.
func (c Credential) IsZero() bool { return c.kind == CredentialNone }
