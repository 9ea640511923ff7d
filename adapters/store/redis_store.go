package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/ports"
	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic-lock retries on a contended profile
const maxTxRetries = 10

var _ ports.Store = (*RedisStore)(nil)

// RedisStore is a Redis implementation of the Store interface.
// Profiles are JSON strings; comments are JSON entries in one list per mint
// and one list per author.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "walletgate:",
	}
}

func (s *RedisStore) userKey(publicKey string) string {
	return s.prefix + "user:" + publicKey
}

func (s *RedisStore) mintCommentsKey(tokenMint string) string {
	return s.prefix + "comments:mint:" + tokenMint
}

func (s *RedisStore) userCommentsKey(publicKey string) string {
	return s.prefix + "comments:user:" + publicKey
}

// GetUser loads a profile from Redis
func (s *RedisStore) GetUser(ctx context.Context, publicKey string) (*core.User, error) {
	val, err := s.client.Get(ctx, s.userKey(publicKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var user core.User
	if err := json.Unmarshal(val, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// UpsertUser writes a profile under WATCH so the existence check and the
// write commit together; CreatedAt of an existing profile is kept.
func (s *RedisStore) UpsertUser(ctx context.Context, user *core.User) (bool, error) {
	key := s.userKey(user.PublicKey)

	var created bool
	txf := func(tx *redis.Tx) error {
		stored := *user
		created = false

		val, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			created = true
		case err != nil:
			return fmt.Errorf("failed to load user: %w", err)
		default:
			var existing core.User
			if err := json.Unmarshal(val, &existing); err != nil {
				return fmt.Errorf("failed to decode user: %w", err)
			}
			stored.CreatedAt = existing.CreatedAt
		}

		payload, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return created, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("failed to store user: %w", err)
	}
	return false, fmt.Errorf("failed to store user: %s is too contended", user.PublicKey)
}

// AddComment assigns the next comment ID and appends to both lists atomically
func (s *RedisStore) AddComment(ctx context.Context, comment *core.Comment) error {
	id, err := s.client.Incr(ctx, s.prefix+"comments:seq").Result()
	if err != nil {
		return fmt.Errorf("failed to allocate comment id: %w", err)
	}

	stored := *comment
	stored.ID = id
	stored.User = nil
	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode comment: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.mintCommentsKey(comment.TokenMint), payload)
		pipe.RPush(ctx, s.userCommentsKey(comment.UserPubkey), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store comment: %w", err)
	}

	comment.ID = id
	return nil
}

// CommentsByMint returns comments on tokenMint in insertion order
func (s *RedisStore) CommentsByMint(ctx context.Context, tokenMint string) ([]core.Comment, error) {
	return s.listComments(ctx, s.mintCommentsKey(tokenMint), false)
}

// CommentsByUser returns comments by publicKey, newest first
func (s *RedisStore) CommentsByUser(ctx context.Context, publicKey string) ([]core.Comment, error) {
	return s.listComments(ctx, s.userCommentsKey(publicKey), true)
}

func (s *RedisStore) listComments(ctx context.Context, key string, newestFirst bool) ([]core.Comment, error) {
	vals, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	out := make([]core.Comment, 0, len(vals))
	for i := range vals {
		val := vals[i]
		if newestFirst {
			val = vals[len(vals)-1-i]
		}
		var c core.Comment
		if err := json.Unmarshal([]byte(val), &c); err != nil {
			return nil, fmt.Errorf("failed to decode comment: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
