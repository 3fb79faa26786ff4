package ports

import (
	"context"

	"github.com/renvo/client-core/internal/core/domain"
)

// Credentials is what the client persists between runs: the bearer token and
// a cached copy of the user record.
type Credentials struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user,omitempty"`
}

// CredentialStore abstracts the platform's persistent credential storage
// (encrypted file on desktop, in-memory for tests and ephemeral sessions).
type CredentialStore interface {
	// Load returns the stored credentials, or domain.ErrNoCredentials when
	// nothing is stored.
	Load(ctx context.Context) (*Credentials, error)
	Save(ctx context.Context, creds *Credentials) error
	// Delete removes stored credentials. Deleting an empty store is not an error.
	Delete(ctx context.Context) error
}
