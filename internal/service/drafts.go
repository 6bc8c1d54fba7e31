package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DraftStartRequest starts or resumes a loan application at a step.
type DraftStartRequest struct {
	Step int `json:"step" validate:"min=1,max=20"`
}

// DraftService manages the caller's resumable loan application.
type DraftService struct {
	identity port.IdentityResolver
	store    port.DraftStore
	logger   *zap.Logger
}

// NewDraftService creates the draft service.
func NewDraftService(identity port.IdentityResolver, store port.DraftStore, logger *zap.Logger) *DraftService {
	return &DraftService{identity: identity, store: store, logger: logger}
}

// InitLoanStep returns the caller's newest draft, creating one at step
// when none exists. An existing draft is returned as is.
func (s *DraftService) InitLoanStep(ctx context.Context, req DraftStartRequest) (*domain.LoanDraft, error) {
	ctx, span := tracer.Start(ctx, "DraftService.InitLoanStep")
	defer span.End()

	if err := Validate(req); err != nil {
		return nil, err
	}
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("user.id", id.UserID))

	existing, err := s.store.FindLatestDraft(ctx, id.UserID)
	if err != nil {
		s.logger.Error("draft lookup failed", zap.String("user_id", id.UserID), zap.Error(err))
		return nil, fmt.Errorf("find draft: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.store.CreateDraft(ctx, id.UserID, req.Step)
	if err != nil {
		s.logger.Error("draft create failed", zap.String("user_id", id.UserID), zap.Error(err))
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return created, nil
}

// UpdateDraft applies a partial update to one of the caller's drafts.
func (s *DraftService) UpdateDraft(ctx context.Context, draftID string, upd domain.LoanDraftUpdate) (*domain.LoanDraft, error) {
	ctx, span := tracer.Start(ctx, "DraftService.UpdateDraft")
	defer span.End()

	if err := Validate(upd); err != nil {
		return nil, err
	}
	cols := upd.Columns()
	if len(cols) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}

	if _, err := s.GetDraft(ctx, draftID); err != nil {
		return nil, err
	}

	d, err := s.store.UpdateDraft(ctx, draftID, cols)
	if err != nil {
		s.logger.Error("draft update failed", zap.String("draft_id", draftID), zap.Error(err))
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return d, nil
}

// GetDraft reads one of the caller's drafts. Drafts owned by someone else
// are reported as not found.
func (s *DraftService) GetDraft(ctx context.Context, draftID string) (*domain.LoanDraft, error) {
	if draftID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "is required"}
	}
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	d, err := s.store.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if d.UserID != id.UserID {
		return nil, &domain.ErrNotFound{Resource: "loan_application", ID: draftID}
	}
	return d, nil
}

func (s *DraftService) caller(ctx context.Context) (domain.Identity, error) {
	id := s.identity.Resolve(ctx)
	if !id.Authenticated() {
		return id, &domain.ErrUnauthorized{Message: "a session is required for drafts"}
	}
	return id, nil
}
