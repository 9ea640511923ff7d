package wallet

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletgate/core"
	"github.com/mr-tron/base58"
)

// Verify reports whether signature is a valid signature over message by identity.
// Undecodable or wrongly sized signatures are reported as false, never as errors.
func Verify(identity core.Identity, message []byte, signature string) bool {
	switch identity.Scheme {
	case core.SchemeSolana:
		return verifySolana(identity, message, signature)
	case core.SchemeEthereum:
		return verifyEthereum(identity, message, signature)
	default:
		return false
	}
}

func verifySolana(identity core.Identity, message []byte, signature string) bool {
	if len(identity.Raw) != ed25519.PublicKeySize {
		return false
	}
	sig, ok := decodeEd25519Signature(signature)
	if !ok {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(identity.Raw), message, sig)
}

// decodeEd25519Signature accepts base58 first and falls back to standard base64.
func decodeEd25519Signature(text string) ([]byte, bool) {
	if sig, err := base58.Decode(text); err == nil && len(sig) == ed25519.SignatureSize {
		return sig, true
	}
	if sig, err := base64.StdEncoding.DecodeString(text); err == nil && len(sig) == ed25519.SignatureSize {
		return sig, true
	}
	return nil, false
}

func verifyEthereum(identity core.Identity, message []byte, signature string) bool {
	if len(identity.Raw) != common.AddressLength {
		return false
	}
	decoded, err := hexutil.Decode(signature)
	if err != nil || len(decoded) != crypto.SignatureLength {
		return false
	}

	sig := make([]byte, len(decoded))
	copy(sig, decoded)
	// Wallets emit v as 27/28; recovery expects 0/1
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return false
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == common.BytesToAddress(identity.Raw)
}
