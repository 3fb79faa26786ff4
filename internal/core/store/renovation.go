package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
)

// RenovationStore holds the property and renovation lists. Fetches replace
// the lists on success and keep stale data on failure. Status changes are
// validated against the renovation state machine before any network call and
// applied pessimistically: the local copy only changes once the server
// confirms.
type RenovationStore struct {
	mu          sync.Mutex
	properties  []domain.Property
	renovations []domain.Renovation

	api ports.RenovationAPI
	log zerolog.Logger
}

func NewRenovationStore(api ports.RenovationAPI, log zerolog.Logger) *RenovationStore {
	return &RenovationStore{api: api, log: log}
}

func (s *RenovationStore) FetchProperties(ctx context.Context) error {
	list, err := s.api.ListProperties(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("property fetch failed, keeping stale list")
		return fmt.Errorf("fetch properties: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties = append(list[:0:0], list...)
	return nil
}

func (s *RenovationStore) FetchRenovations(ctx context.Context) error {
	list, err := s.api.ListRenovations(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("renovation fetch failed, keeping stale list")
		return fmt.Errorf("fetch renovations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.renovations = append(list[:0:0], list...)
	return nil
}

// AdvanceRenovation moves a renovation to the next status. An unknown id or
// an invalid transition fails fast without a network call.
func (s *RenovationStore) AdvanceRenovation(ctx context.Context, id string, next domain.RenovationStatus) error {
	s.mu.Lock()
	idx := -1
	for i := range s.renovations {
		if s.renovations[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrRenovationNotFound
	}
	current := s.renovations[idx].Status
	s.mu.Unlock()

	if !current.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, next)
	}

	updated, err := s.api.UpdateRenovationStatus(ctx, id, next)
	if err != nil {
		return fmt.Errorf("advance renovation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.renovations {
		if s.renovations[i].ID == id {
			s.renovations[i] = *updated
			break
		}
	}
	s.log.Info().Str("renovation_id", id).Str("status", string(next)).Msg("renovation advanced")
	return nil
}

// Properties returns a copy of the property list.
func (s *RenovationStore) Properties() []domain.Property {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(s.properties[:0:0], s.properties...)
}

// Renovations returns a copy of the renovation list.
func (s *RenovationStore) Renovations() []domain.Renovation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(s.renovations[:0:0], s.renovations...)
}
