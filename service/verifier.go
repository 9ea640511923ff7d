package service

import (
	"log/slog"

	"github.com/layer-3/walletgate/internal/wallet"
)

// SignatureVerifier checks a wallet's signature over its current nonce
type SignatureVerifier struct {
	nonces *NonceDeriver
	logger *slog.Logger
}

// NewSignatureVerifier creates a verifier that re-derives nonces with nonces
func NewSignatureVerifier(nonces *NonceDeriver, logger *slog.Logger) *SignatureVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SignatureVerifier{
		nonces: nonces,
		logger: logger.With("component", "verifier"),
	}
}

// Verify reports whether signature is a valid detached signature by publicKey over the
// UTF-8 bytes of the nonce text. Only an undecodable public key produces an error
// (core.ErrInvalidIdentity); every failed check is a plain false.
func (v *SignatureVerifier) Verify(publicKey string, signature string) (bool, error) {
	identity, err := wallet.ParseIdentity(publicKey)
	if err != nil {
		return false, err
	}

	nonce := v.nonces.DeriveFor(identity)
	ok := wallet.Verify(identity, []byte(nonce), signature)
	if !ok {
		v.logger.Debug("signature rejected", "identity", identity.PublicKey, "scheme", identity.Scheme)
	}
	return ok, nil
}
