package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/internal/wallet"
	"github.com/layer-3/walletgate/ports"
)

const AudienceAccess = "wallet:access"

// MinKeyLength is the shortest signing key accepted.
const MinKeyLength = 8

var ErrWeakKey = errors.New("signing key too short")

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs
type JWTTokenizer struct {
	signKey []byte
	now     func() time.Time
	parser  *jwt.Parser
}

// Option configures a JWTTokenizer
type Option func(*JWTTokenizer)

// WithTimeFunc replaces the clock used for expiry checks
func WithTimeFunc(now func() time.Time) Option {
	return func(j *JWTTokenizer) {
		j.now = now
	}
}

// NewJWTTokenizer creates a new JWT tokenizer signing with signKey
func NewJWTTokenizer(signKey []byte, opts ...Option) (ports.Tokenizer, error) {
	if len(signKey) < MinKeyLength {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrWeakKey, len(signKey), MinKeyLength)
	}

	key := make([]byte, len(signKey))
	copy(key, signKey)
	j := &JWTTokenizer{signKey: key, now: time.Now}
	for _, opt := range opts {
		opt(j)
	}

	j.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(AudienceAccess),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(j.now),
		jwt.WithStrictDecoding(),
	)
	return j, nil
}

// CredentialToToken converts a Credential to a signed JWT
func (j *JWTTokenizer) CredentialToToken(credential *core.Credential) (string, error) {
	if credential == nil || credential.Identity.IsZero() {
		return "", fmt.Errorf("%w: credential has no identity", core.ErrIssuance)
	}

	claims := WalletClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   credential.Identity.PublicKey,
			ID:        credential.ID,
			ExpiresAt: jwt.NewNumericDate(credential.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(credential.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
		PublicKey: credential.Identity.PublicKey,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign token: %v", core.ErrIssuance, err)
	}

	return signedToken, nil
}

// TokenToCredential parses and validates a JWT and returns its Credential
func (j *JWTTokenizer) TokenToCredential(tokenStr string) (*core.Credential, error) {
	token, err := j.parser.ParseWithClaims(tokenStr, &WalletClaims{}, func(token *jwt.Token) (interface{}, error) {
		return j.signKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.ErrExpiredCredential
		}
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedCredential, err)
	}

	if !token.Valid {
		return nil, core.ErrMalformedCredential
	}

	claims, ok := token.Claims.(*WalletClaims)
	if !ok {
		return nil, fmt.Errorf("%w: invalid claims type", core.ErrMalformedCredential)
	}

	identity, err := wallet.ParseIdentity(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject: %v", core.ErrMalformedCredential, err)
	}
	if claims.PublicKey != "" && claims.PublicKey != identity.PublicKey {
		return nil, fmt.Errorf("%w: publicKey does not match subject", core.ErrMalformedCredential)
	}

	credential := &core.Credential{
		ID:        claims.ID,
		Identity:  identity,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		credential.IssuedAt = claims.IssuedAt.Time
	}

	return credential, nil
}

// ClaimedIdentity decodes the subject without checking the signature.
// The result must only be used for logging.
func (j *JWTTokenizer) ClaimedIdentity(tokenStr string) string {
	claims := &WalletClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return ""
	}
	return claims.Subject
}
