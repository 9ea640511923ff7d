package store

import (
	"context"
	"sync"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
)

var _ ports.Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory implementation of the Store interface
type MemoryStore struct {
	users    map[string]core.User
	comments []core.Comment
	nextID   int64
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]core.User),
	}
}

// GetUser returns a copy of the stored profile
func (s *MemoryStore) GetUser(ctx context.Context, publicKey string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[publicKey]
	if !exists {
		return nil, core.ErrUserNotFound
	}
	return &user, nil
}

// UpsertUser stores the profile, keeping the original creation time
func (s *MemoryStore) UpsertUser(ctx context.Context, user *core.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *user
	existing, exists := s.users[user.PublicKey]
	if exists {
		stored.CreatedAt = existing.CreatedAt
	}
	s.users[user.PublicKey] = stored
	return !exists, nil
}

// AddComment appends a comment
func (s *MemoryStore) AddComment(ctx context.Context, comment *core.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	comment.ID = s.nextID

	stored := *comment
	stored.User = nil
	s.comments = append(s.comments, stored)
	return nil
}

// CommentsByMint returns comments on tokenMint in insertion order
func (s *MemoryStore) CommentsByMint(ctx context.Context, tokenMint string) ([]core.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.Comment{}
	for _, c := range s.comments {
		if c.TokenMint == tokenMint {
			out = append(out, c)
		}
	}
	return out, nil
}

// CommentsByUser returns comments by publicKey, newest first
func (s *MemoryStore) CommentsByUser(ctx context.Context, publicKey string) ([]core.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.Comment{}
	for i := len(s.comments) - 1; i >= 0; i-- {
		if s.comments[i].UserPubkey == publicKey {
			out = append(out, s.comments[i])
		}
	}
	return out, nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
