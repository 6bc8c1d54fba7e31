// Package preferences keeps per-user display preferences in memory.
package preferences

import (
	"context"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"

	gocache "github.com/patrickmn/go-cache"
)

// Store is an in-memory port.PreferenceStore. Entries never expire.
type Store struct {
	items *gocache.Cache
}

// NewStore creates an empty preference store.
func NewStore() *Store {
	return &Store{items: gocache.New(gocache.NoExpiration, 0)}
}

// Init stores the defaults for userID unless preferences already exist.
func (s *Store) Init(_ context.Context, userID string) (domain.Preferences, error) {
	defaults := domain.DefaultPreferences()
	// Add fails when the key exists, which is exactly the "keep what's there" case.
	if err := s.items.Add(userID, defaults, gocache.NoExpiration); err == nil {
		return defaults, nil
	}
	return s.lookup(userID), nil
}

// Get returns the stored preferences, or the defaults for an unknown user.
func (s *Store) Get(_ context.Context, userID string) (domain.Preferences, error) {
	return s.lookup(userID), nil
}

// Set replaces the user's preferences.
func (s *Store) Set(_ context.Context, userID string, prefs domain.Preferences) error {
	s.items.Set(userID, prefs, gocache.NoExpiration)
	return nil
}

func (s *Store) lookup(userID string) domain.Preferences {
	if v, ok := s.items.Get(userID); ok {
		if p, ok := v.(domain.Preferences); ok {
			return p
		}
	}
	return domain.DefaultPreferences()
}
