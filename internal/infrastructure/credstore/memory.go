package credstore

import (
	"context"
	"sync"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
)

// Memory holds credentials for the lifetime of the process. Used in tests
// and for ephemeral sessions that should not outlive a restart.
type Memory struct {
	mu    sync.Mutex
	creds *ports.Credentials
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (*ports.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil, domain.ErrNoCredentials
	}
	return clone(m.creds), nil
}

func (m *Memory) Save(_ context.Context, creds *ports.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = clone(creds)
	return nil
}

func (m *Memory) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}

func clone(c *ports.Credentials) *ports.Credentials {
	out := &ports.Credentials{Token: c.Token}
	if c.User != nil {
		u := *c.User
		out.User = &u
	}
	return out
}
