// Package secret holds the process-wide server secret.
//
// A Secret is built once at startup and passed by constructor to the
// components that need it. It never renders its bytes through fmt or slog.
package secret

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/crypto/hkdf"
)

// DefaultRoot is used when no secret is configured. It is public knowledge
// and only suitable for development.
const DefaultRoot = "SolportSalt"

const (
	nonceLabel      = "walletgate/nonce"
	credentialLabel = "walletgate/credential"
	subkeyLength    = 32
)

// ErrEmpty is returned when a secret would have no key material.
var ErrEmpty = errors.New("secret is empty")

// Secret is the immutable server secret with one view per use.
type Secret struct {
	nonceKey   []byte
	signingKey []byte
	split      bool
}

// New builds a Secret from root. With split unset both views are root itself,
// which keeps nonces and credentials compatible with single-secret deployments.
// With split set each view is an independent HKDF-SHA256 subkey of root.
func New(root []byte, split bool) (*Secret, error) {
	if len(root) == 0 {
		return nil, ErrEmpty
	}
	if !split {
		return &Secret{
			nonceKey:   clone(root),
			signingKey: clone(root),
		}, nil
	}

	nonceKey, err := derive(root, nonceLabel)
	if err != nil {
		return nil, err
	}
	signingKey, err := derive(root, credentialLabel)
	if err != nil {
		return nil, err
	}
	return &Secret{nonceKey: nonceKey, signingKey: signingKey, split: true}, nil
}

// NonceKey returns a copy of the key salting nonce derivation.
func (s *Secret) NonceKey() []byte {
	return clone(s.nonceKey)
}

// SigningKey returns a copy of the key signing credentials.
func (s *Secret) SigningKey() []byte {
	return clone(s.signingKey)
}

// Split reports whether the views are derived subkeys.
func (s *Secret) Split() bool {
	return s.split
}

// String implements fmt.Stringer without exposing key material.
func (s *Secret) String() string {
	return "[REDACTED]"
}

// GoString keeps %#v from dumping the struct fields.
func (s *Secret) GoString() string {
	return "secret.Secret{[REDACTED]}"
}

// LogValue implements slog.LogValuer.
func (s *Secret) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}

func derive(root []byte, label string) ([]byte, error) {
	key := make([]byte, subkeyLength)
	if _, err := io.ReadFull(hkdf.New(sha256.New, root, nil, []byte(label)), key); err != nil {
		return nil, fmt.Errorf("deriving %s subkey: %w", label, err)
	}
	return key, nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
