package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/internal/wallet"
	"github.com/layer-3/walletgate/ports"
)

// AuthService handles the wallet handshake and credential checks
type AuthService struct {
	nonces    *NonceDeriver
	verifier  *SignatureVerifier
	tokenizer ports.Tokenizer
	eventPub  ports.EventPublisher
	logger    *slog.Logger

	now      func() time.Time
	lifetime time.Duration
}

// Option configures an AuthService
type Option func(*AuthService)

// WithClock replaces the wall clock used to stamp issued credentials
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) {
		s.now = now
	}
}

// WithLogger sets the service logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *AuthService) {
		s.logger = logger
	}
}

// NewAuthService creates a new authentication service.
// eventPub may be nil when no one listens for login events.
func NewAuthService(
	nonces *NonceDeriver,
	verifier *SignatureVerifier,
	tokenizer ports.Tokenizer,
	eventPub ports.EventPublisher,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		nonces:    nonces,
		verifier:  verifier,
		tokenizer: tokenizer,
		eventPub:  eventPub,
		logger:    slog.Default(),
		now:       time.Now,
		lifetime:  core.CredentialLifetime,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "auth")
	return s
}

// Challenge returns the nonce the wallet behind publicKey has to sign
func (s *AuthService) Challenge(publicKey string) (core.Nonce, error) {
	return s.nonces.Derive(publicKey)
}

// Login verifies signature over the wallet's nonce and issues a credential
func (s *AuthService) Login(ctx context.Context, publicKey, signature string) (string, *core.Credential, error) {
	identity, err := wallet.ParseIdentity(publicKey)
	if err != nil {
		return "", nil, err
	}

	ok, err := s.verifier.Verify(identity.PublicKey, signature)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, core.ErrVerificationFailed
	}

	token, credential, err := s.Issue(identity)
	if err != nil {
		s.logger.Error("credential issuance failed", "identity", identity.PublicKey, "error", err)
		return "", nil, err
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishLogin(ctx, identity.PublicKey, credential.ID, credential.IssuedAt); err != nil {
			// The credential is already issued; the event is informational
			s.logger.Warn("failed to publish login event", "identity", identity.PublicKey, "error", err)
		}
	}

	s.logger.Info("wallet authenticated", "identity", identity.PublicKey, "scheme", identity.Scheme, "credential_id", credential.ID)
	return token, credential, nil
}

// Issue mints a credential for an identity that already proved key possession
func (s *AuthService) Issue(identity core.Identity) (string, *core.Credential, error) {
	now := s.now()
	credential := &core.Credential{
		ID:        uuid.New().String(),
		Identity:  identity,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.lifetime),
	}

	token, err := s.tokenizer.CredentialToToken(credential)
	if err != nil {
		if errors.Is(err, core.ErrIssuance) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("%w: %v", core.ErrIssuance, err)
	}
	return token, credential, nil
}

// ValidateCredential checks a presented credential and returns the identity bound to it
func (s *AuthService) ValidateCredential(ctx context.Context, token string) (core.Identity, error) {
	credential, err := s.tokenizer.TokenToCredential(token)
	if err != nil {
		return core.Identity{}, err
	}

	// The tokenizer checks expiry against its own clock; check ours as well
	if credential.Expired(s.now()) {
		return core.Identity{}, core.ErrExpiredCredential
	}

	return credential.Identity, nil
}

// ClaimedIdentity returns the unverified identity a token claims, for diagnostics
func (s *AuthService) ClaimedIdentity(token string) string {
	return s.tokenizer.ClaimedIdentity(token)
}
