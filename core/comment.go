package core

import "time"

// Comment length bounds, in characters
const (
	MinCommentLength = 4
	MaxCommentLength = 1024
)

// Comment is a message a wallet posted about a token mint.
type Comment struct {
	ID         int64     `json:"id"`
	TokenMint  string    `json:"tokenMint"`
	UserPubkey string    `json:"userPubkey"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created"`

	// User is the author's profile, attached when listing
	User *User `json:"users,omitempty"`
}
