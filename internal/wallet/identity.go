package wallet

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/layer-3/walletgate/core"
	"github.com/mr-tron/base58"
)

// ParseIdentity decodes text into a canonical identity.
// It fails with core.ErrInvalidIdentity for anything that is not a key of a supported scheme.
func ParseIdentity(text string) (core.Identity, error) {
	if text == "" {
		return core.Identity{}, fmt.Errorf("%w: empty public key", core.ErrInvalidIdentity)
	}
	if has0xPrefix(text) {
		return parseEthereum(text)
	}
	return parseSolana(text)
}

// ParseScheme maps a scheme name to its core.Scheme.
func ParseScheme(name string) (core.Scheme, error) {
	switch strings.ToLower(name) {
	case "solana", "sol", "ed25519":
		return core.SchemeSolana, nil
	case "ethereum", "eth", "secp256k1":
		return core.SchemeEthereum, nil
	default:
		return "", fmt.Errorf("unknown scheme %q", name)
	}
}

func parseSolana(text string) (core.Identity, error) {
	raw, err := base58.Decode(text)
	if err != nil {
		return core.Identity{}, fmt.Errorf("%w: not base58: %v", core.ErrInvalidIdentity, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return core.Identity{}, fmt.Errorf("%w: expected %d key bytes, got %d", core.ErrInvalidIdentity, ed25519.PublicKeySize, len(raw))
	}
	return core.Identity{
		Scheme:    core.SchemeSolana,
		PublicKey: base58.Encode(raw),
		Raw:       raw,
	}, nil
}

func parseEthereum(text string) (core.Identity, error) {
	if !common.IsHexAddress(text) {
		return core.Identity{}, fmt.Errorf("%w: not a hex address", core.ErrInvalidIdentity)
	}
	addr := common.HexToAddress(text)
	return core.Identity{
		Scheme:    core.SchemeEthereum,
		PublicKey: addr.Hex(),
		Raw:       addr.Bytes(),
	}, nil
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
