package ports

import "github.com/layer-3/walletgate/core"

// Tokenizer converts between credentials and bearer tokens
type Tokenizer interface {
	// CredentialToToken signs a credential into its text form
	CredentialToToken(credential *core.Credential) (string, error)

	// TokenToCredential verifies signature and expiry and returns the credential
	TokenToCredential(token string) (*core.Credential, error)

	// ClaimedIdentity returns the unverified subject of a token, for diagnostics only
	ClaimedIdentity(token string) string
}
