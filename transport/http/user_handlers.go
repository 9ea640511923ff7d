package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/internal/wallet"
	"github.com/layer-3/walletgate/ports"
)

// assignRequest fields are pointers so an explicit empty string is
// validated while an absent field falls back to the default.
type assignRequest struct {
	Name *string `json:"name" binding:"omitnil,min=4,max=64"`
	Bio  *string `json:"bio" binding:"omitnil,min=4,max=512"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// UserHandlers serves wallet profiles
type UserHandlers struct {
	users  ports.UserStore
	logger *slog.Logger
	now    func() time.Time
}

// NewUserHandlers creates user handlers backed by users
func NewUserHandlers(users ports.UserStore, logger *slog.Logger) *UserHandlers {
	return &UserHandlers{
		users:  users,
		logger: logger.With("component", "user_handlers"),
		now:    time.Now,
	}
}

// Me returns the bound wallet and its profile, or the default profile
func (h *UserHandlers) Me(c *gin.Context) {
	identity, ok := WalletFromContext(c)
	if !ok {
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), identity.PublicKey)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrUserNotFound):
		user = core.NewUser(identity.PublicKey, "", "", time.Time{})
	default:
		h.logger.Error("failed to load user", "identity", identity.PublicKey, "error", err)
		c.String(http.StatusInternalServerError, "Failed to load user profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet":  identity.PublicKey,
		"scheme":  identity.Scheme,
		"profile": user,
	})
}

// Assign creates or updates the bound wallet's profile
func (h *UserHandlers) Assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "You have provided incorrect user profile data:\n%s", summarize(err))
		return
	}

	identity, ok := WalletFromContext(c)
	if !ok {
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	user := core.NewUser(identity.PublicKey, deref(req.Name), deref(req.Bio), h.now().UTC())
	created, err := h.users.UpsertUser(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("failed to store user", "identity", identity.PublicKey, "error", err)
		c.String(http.StatusInternalServerError, "Failed to store user profile information")
		return
	}

	if created {
		c.String(http.StatusOK, "User profile created successfully")
		return
	}
	c.String(http.StatusOK, "User profile updated successfully")
}

// Get returns the profile of any wallet
func (h *UserHandlers) Get(c *gin.Context) {
	identity, err := wallet.ParseIdentity(c.Param("pubkey"))
	if err != nil {
		c.String(http.StatusBadRequest, "You have provided incorrect public key data:\npubkey must be a valid public key")
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), identity.PublicKey)
	if errors.Is(err, core.ErrUserNotFound) {
		c.String(http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load user", "identity", identity.PublicKey, "error", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, user)
}

// summarize renders binding errors one per line
func summarize(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "request body must be a JSON object"
	}

	lines := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			lines = append(lines, fmt.Sprintf("%s is required", field))
		case "min":
			lines = append(lines, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			lines = append(lines, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			lines = append(lines, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(lines, "\n")
}
