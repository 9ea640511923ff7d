package core

import "time"

// CredentialLifetime is how long an issued credential stays acceptable.
const CredentialLifetime = 24 * time.Hour

// Scheme names the asymmetric signature scheme an identity belongs to.
type Scheme string

const (
	SchemeSolana   Scheme = "solana"   // ed25519 key, base58 text
	SchemeEthereum Scheme = "ethereum" // secp256k1 key, EIP-55 address text
)

// Identity is a wallet public key in its canonical text form.
// The zero value means "no identity".
type Identity struct {
	Scheme    Scheme // Signature scheme bound to the key
	PublicKey string // Canonical encoding (base58 or checksummed hex)
	Raw       []byte // Decoded key bytes (32-byte ed25519 key or 20-byte address)
}

// String returns the canonical text form.
func (i Identity) String() string {
	return i.PublicKey
}

// IsZero reports whether no identity is set.
func (i Identity) IsZero() bool {
	return i.PublicKey == ""
}

// Nonce is the rendered challenge text a wallet must sign.
type Nonce string

// Credential represents an issued bearer credential
type Credential struct {
	ID        string    // Unique credential identifier (jti)
	Identity  Identity  // Verified wallet the credential is bound to
	IssuedAt  time.Time // When the credential was issued
	ExpiresAt time.Time // IssuedAt + CredentialLifetime
}

// Expired reports whether the credential is no longer acceptable at t.
func (c *Credential) Expired(t time.Time) bool {
	return !t.Before(c.ExpiresAt)
}
