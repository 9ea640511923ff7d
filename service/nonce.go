package service

import (
	"crypto/sha256"
	"encoding/base64"
	"log/slog"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/internal/wallet"
)

// NonceDeriver computes the challenge nonce for an identity.
// The nonce is a pure function of the identity and the nonce key, so it is
// recomputed on demand instead of being stored between challenge and login.
type NonceDeriver struct {
	saltHash [sha256.Size]byte
	logger   *slog.Logger
}

// NewNonceDeriver creates a deriver salted with nonceKey
func NewNonceDeriver(nonceKey []byte, logger *slog.Logger) *NonceDeriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &NonceDeriver{
		saltHash: sha256.Sum256(nonceKey),
		logger:   logger.With("component", "nonce"),
	}
}

// Derive parses publicKey and returns its nonce
func (d *NonceDeriver) Derive(publicKey string) (core.Nonce, error) {
	identity, err := wallet.ParseIdentity(publicKey)
	if err != nil {
		return "", err
	}
	return d.DeriveFor(identity), nil
}

// DeriveFor returns the nonce of an already parsed identity:
// base64(SHA256(identity || SHA256(nonceKey)))
func (d *NonceDeriver) DeriveFor(identity core.Identity) core.Nonce {
	h := sha256.New()
	h.Write([]byte(identity.PublicKey))
	h.Write(d.saltHash[:])
	nonce := core.Nonce(base64.StdEncoding.EncodeToString(h.Sum(nil)))

	d.logger.Debug("derived nonce", "identity", identity.PublicKey, "nonce", nonce)
	return nonce
}
