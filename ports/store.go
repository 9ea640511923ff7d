package ports

import (
	"context"

	"github.com/layer-3/walletgate/core"
)

// UserStore keeps wallet profiles keyed by canonical public key
type UserStore interface {
	GetUser(ctx context.Context, publicKey string) (*core.User, error)

	// UpsertUser creates or updates a profile in one atomic step and reports
	// whether it was created. CreatedAt of an existing profile is kept.
	UpsertUser(ctx context.Context, user *core.User) (created bool, err error)

	Close() error
}

// CommentStore keeps wallet comments
type CommentStore interface {
	// AddComment stores comment and assigns its ID
	AddComment(ctx context.Context, comment *core.Comment) error

	// CommentsByMint lists comments on a token mint, oldest first
	CommentsByMint(ctx context.Context, tokenMint string) ([]core.Comment, error)

	// CommentsByUser lists comments by a wallet, newest first
	CommentsByUser(ctx context.Context, publicKey string) ([]core.Comment, error)
}

// Store is a backend holding both profiles and comments
type Store interface {
	UserStore
	CommentStore
}
