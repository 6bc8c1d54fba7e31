package service

import (
	"context"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/port"
)

// PreferenceService reads and writes the caller's display preferences.
type PreferenceService struct {
	identity port.IdentityResolver
	store    port.PreferenceStore
	engine   *Engine
}

// NewPreferenceService creates the preference service. engine may be nil;
// when set, its cached balance card is dropped on every write.
func NewPreferenceService(identity port.IdentityResolver, store port.PreferenceStore, engine *Engine) *PreferenceService {
	return &PreferenceService{identity: identity, store: store, engine: engine}
}

// Get returns the caller's preferences, initialising them on first use.
// Unauthenticated callers get the defaults.
func (s *PreferenceService) Get(ctx context.Context) (domain.Preferences, error) {
	id := s.identity.Resolve(ctx)
	if !id.Authenticated() {
		return domain.DefaultPreferences(), nil
	}
	return s.store.Init(ctx, id.UserID)
}

// SetBalanceVisible stores the balance visibility toggle.
func (s *PreferenceService) SetBalanceVisible(ctx context.Context, visible bool) (domain.Preferences, error) {
	id := s.identity.Resolve(ctx)
	if !id.Authenticated() {
		return domain.Preferences{}, &domain.ErrUnauthorized{Message: "a session is required to save preferences"}
	}

	prefs, err := s.store.Init(ctx, id.UserID)
	if err != nil {
		return domain.Preferences{}, err
	}
	prefs.BalanceVisible = visible
	if err := s.store.Set(ctx, id.UserID, prefs); err != nil {
		return domain.Preferences{}, err
	}

	if s.engine != nil {
		s.engine.Invalidate(id.UserID, domain.ViewMintBalance)
	}
	return prefs, nil
}
