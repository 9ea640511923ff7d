package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	goaway "github.com/TwiN/go-away"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/internal/wallet"
	"github.com/layer-3/walletgate/ports"
)

type postCommentRequest struct {
	Comment   string `json:"comment" binding:"required,min=4,max=1024"`
	TokenMint string `json:"tokenMint" binding:"required"`
}

// CommentHandlers serves wallet comments on token mints
type CommentHandlers struct {
	store   ports.Store
	enabled bool
	logger  *slog.Logger
	now     func() time.Time
}

// NewCommentHandlers creates comment handlers. Posting answers 503 when
// enabled is false; listing keeps working.
func NewCommentHandlers(store ports.Store, enabled bool, logger *slog.Logger) *CommentHandlers {
	return &CommentHandlers{
		store:   store,
		enabled: enabled,
		logger:  logger.With("component", "comment_handlers"),
		now:     time.Now,
	}
}

// Post stores a comment by the bound wallet
func (h *CommentHandlers) Post(c *gin.Context) {
	var req postCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "You have provided incorrect comment data:\n%s", summarize(err))
		return
	}
	mint, err := wallet.ParseIdentity(req.TokenMint)
	if err != nil || mint.Scheme != core.SchemeSolana {
		c.String(http.StatusBadRequest, "You have provided incorrect comment data:\ntokenmint must be a valid Solana public key")
		return
	}

	identity, ok := WalletFromContext(c)
	if !ok {
		c.String(http.StatusUnauthorized, "Unauthorized")
		return
	}

	if !h.enabled {
		c.String(http.StatusServiceUnavailable, "Comment service unavailable")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetUser(ctx, identity.PublicKey); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.String(http.StatusBadRequest, "A user with this pubkey doesn't exist")
			return
		}
		h.logger.Error("failed to load user", "identity", identity.PublicKey, "error", err)
		c.String(http.StatusInternalServerError, "Failed to post comment, internal server error")
		return
	}

	if goaway.IsProfane(req.Comment) {
		c.String(http.StatusBadRequest, "Your comment cannot contain profanity")
		return
	}

	comment := &core.Comment{
		TokenMint:  mint.PublicKey,
		UserPubkey: identity.PublicKey,
		Message:    req.Comment,
		CreatedAt:  h.now().UTC(),
	}
	if err := h.store.AddComment(ctx, comment); err != nil {
		h.logger.Error("failed to store comment", "identity", identity.PublicKey, "mint", mint.PublicKey, "error", err)
		c.String(http.StatusInternalServerError, "Failed to post comment, internal server error")
		return
	}

	h.logger.Debug("comment posted", "identity", identity.PublicKey, "mint", mint.PublicKey, "id", comment.ID)
	c.String(http.StatusOK, "Successfully created comment")
}

// ByMint lists comments on a token mint with their authors, oldest first
func (h *CommentHandlers) ByMint(c *gin.Context) {
	mint, err := wallet.ParseIdentity(c.Param("pubkey"))
	if err != nil {
		c.String(http.StatusBadRequest, "You have provided incorrect public key data:\npubkey must be a valid public key")
		return
	}

	ctx := c.Request.Context()
	comments, err := h.store.CommentsByMint(ctx, mint.PublicKey)
	if err == nil {
		err = h.attachAuthors(ctx, comments)
	}
	if err != nil {
		h.logger.Error("failed to list comments", "mint", mint.PublicKey, "error", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, comments)
}

// ByUser returns a wallet's profile and its comments, newest first
func (h *CommentHandlers) ByUser(c *gin.Context) {
	identity, err := wallet.ParseIdentity(c.Param("pubkey"))
	if err != nil {
		c.String(http.StatusBadRequest, "You have provided incorrect public key data:\npubkey must be a valid public key")
		return
	}

	ctx := c.Request.Context()
	user, err := h.store.GetUser(ctx, identity.PublicKey)
	if errors.Is(err, core.ErrUserNotFound) {
		c.String(http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load user", "identity", identity.PublicKey, "error", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	comments, err := h.store.CommentsByUser(ctx, identity.PublicKey)
	if err != nil {
		h.logger.Error("failed to list comments", "identity", identity.PublicKey, "error", err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	for i := range comments {
		comments[i].User = user
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"comments": comments,
	})
}

// attachAuthors sets User on each comment, loading each author once
func (h *CommentHandlers) attachAuthors(ctx context.Context, comments []core.Comment) error {
	authors := make(map[string]*core.User)
	for i := range comments {
		pk := comments[i].UserPubkey
		user, seen := authors[pk]
		if !seen {
			var err error
			user, err = h.store.GetUser(ctx, pk)
			if err != nil && !errors.Is(err, core.ErrUserNotFound) {
				return err
			}
			authors[pk] = user
		}
		comments[i].User = user
	}
	return nil
}
