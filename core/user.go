package core

import "time"

// DefaultBio is assigned to profiles created without a bio.
const DefaultBio = "Hello, welcome to my profile!"

// User is the profile record kept for a wallet.
type User struct {
	PublicKey string    `json:"pubkey"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"updated"`
}

// NewUser returns a profile for publicKey filled with defaults for empty fields.
func NewUser(publicKey, name, bio string, now time.Time) *User {
	if name == "" {
		name = publicKey
	}
	if bio == "" {
		bio = DefaultBio
	}
	return &User{
		PublicKey: publicKey,
		Name:      name,
		Bio:       bio,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
