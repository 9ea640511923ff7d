package tokenizer

import "github.com/golang-jwt/jwt/v5"

// WalletClaims combines standard claims with the wallet public key
type WalletClaims struct {
	jwt.RegisteredClaims
	PublicKey string `json:"publicKey"` // Same value as sub; older clients read this field
}
