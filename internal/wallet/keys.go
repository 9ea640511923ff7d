package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletgate/core"
	"github.com/mr-tron/base58"
)

// KeyPair is a wallet keypair in the text encodings wallets export.
type KeyPair struct {
	Scheme     core.Scheme
	PublicKey  string
	PrivateKey string
}

// GenerateKey creates a fresh keypair for scheme.
func GenerateKey(scheme core.Scheme) (*KeyPair, error) {
	switch scheme {
	case core.SchemeSolana:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generating ed25519 key: %w", err)
		}
		return &KeyPair{
			Scheme:     scheme,
			PublicKey:  base58.Encode(pub),
			PrivateKey: base58.Encode(priv),
		}, nil

	case core.SchemeEthereum:
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("generating secp256k1 key: %w", err)
		}
		return &KeyPair{
			Scheme:     scheme,
			PublicKey:  crypto.PubkeyToAddress(key.PublicKey).Hex(),
			PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported scheme %q", scheme)
	}
}

// Sign signs message with a private key in the text encoding produced by GenerateKey
// and returns the signature text accepted by Verify.
func Sign(scheme core.Scheme, privateKey string, message []byte) (string, error) {
	switch scheme {
	case core.SchemeSolana:
		raw, err := base58.Decode(privateKey)
		if err != nil {
			return "", fmt.Errorf("decoding private key: %w", err)
		}
		if len(raw) != ed25519.PrivateKeySize {
			return "", errors.New("ed25519 private key must be 64 bytes")
		}
		return base58.Encode(ed25519.Sign(ed25519.PrivateKey(raw), message)), nil

	case core.SchemeEthereum:
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(privateKey, "0x"), "0X"))
		if err != nil {
			return "", fmt.Errorf("decoding private key: %w", err)
		}
		sig, err := crypto.Sign(accounts.TextHash(message), key)
		if err != nil {
			return "", fmt.Errorf("signing message: %w", err)
		}
		sig[crypto.RecoveryIDOffset] += 27
		return hexutil.Encode(sig), nil

	default:
		return "", fmt.Errorf("unsupported scheme %q", scheme)
	}
}
