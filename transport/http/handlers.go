package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/internal/metrics"
	"github.com/layer-3/walletgate/service"
)

// Plain-text error bodies returned by the auth routes
const (
	msgMissingPublicKey = "Expected public key, but none was provided"
	msgInvalidPublicKey = "An invalid public key was provided"
	msgMissingState     = "Expected state object, but none was provided"
	msgInvalidState     = "An invalid state object was provided"
	msgInvalidSignature = "An invalid signature was provided"
	msgIssuanceFailed   = "Something went wrong while issuing the credential"
)

// loginState is the JSON object carried in the state query parameter
type loginState struct {
	PublicKey string `json:"public_key" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	metrics     metrics.Recorder
	logger      *slog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, recorder metrics.Recorder, logger *slog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		metrics:     recorder,
		logger:      logger.With("component", "auth_handlers"),
	}
}

// Challenge returns the nonce for the public key in the path
func (h *AuthHandlers) Challenge(c *gin.Context) {
	publicKey := strings.TrimSpace(c.Param("publicKey"))
	if publicKey == "" {
		c.String(http.StatusBadRequest, msgMissingPublicKey)
		return
	}

	nonce, err := h.authService.Challenge(publicKey)
	if err != nil {
		c.String(http.StatusBadRequest, msgInvalidPublicKey)
		return
	}

	h.metrics.RecordChallenge()
	c.JSON(http.StatusOK, gin.H{"response": nonce})
}

// Get exchanges a signed nonce for a credential
func (h *AuthHandlers) Get(c *gin.Context) {
	raw := c.Query("state")
	if raw == "" {
		h.metrics.RecordLogin(metrics.LoginBadRequest)
		c.String(http.StatusBadRequest, msgMissingState)
		return
	}

	state, err := decodeState(raw)
	if err != nil {
		h.metrics.RecordLogin(metrics.LoginBadRequest)
		c.String(http.StatusBadRequest, msgInvalidState)
		return
	}

	token, credential, err := h.authService.Login(c.Request.Context(), state.PublicKey, state.Signature)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrInvalidIdentity):
		h.metrics.RecordLogin(metrics.LoginBadRequest)
		c.String(http.StatusBadRequest, msgInvalidPublicKey)
		return
	case errors.Is(err, core.ErrVerificationFailed):
		h.metrics.RecordLogin(metrics.LoginBadSignature)
		c.String(http.StatusBadRequest, msgInvalidSignature)
		return
	default:
		h.logger.Error("credential issuance failed", "error", err)
		h.metrics.RecordLogin(metrics.LoginIssuanceError)
		c.String(http.StatusInternalServerError, msgIssuanceFailed)
		return
	}

	h.metrics.RecordLogin(metrics.LoginSuccess)
	h.metrics.RecordCredentialIssued()
	h.logger.Debug("credential issued", "identity", credential.Identity.PublicKey, "expires_at", credential.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"response": token})
}

// decodeState undoes the client's URI encoding on top of the query decoding
// and validates the required fields.
func decodeState(raw string) (*loginState, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return nil, err
	}

	var state loginState
	if err := json.Unmarshal([]byte(decoded), &state); err != nil {
		return nil, err
	}
	if err := binding.Validator.ValidateStruct(&state); err != nil {
		return nil, err
	}
	return &state, nil
}
