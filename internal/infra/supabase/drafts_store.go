package supabase

import (
	"context"
	"fmt"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================
// Draft loan applications (implements port.DraftStore)
// ============================================================

const draftTable = "loan_application"

// FindLatestDraft returns the user's newest draft, nil when there is none.
func (c *Client) FindLatestDraft(ctx context.Context, userID string) (*domain.LoanDraft, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindLatestDraft")
	defer span.End()

	path := fmt.Sprintf("%s?user_id=%s&status=%s&order=created_at.desc&limit=1", draftTable, eq(userID), eq(domain.DraftStatusDraft))
	return selectOne[domain.LoanDraft](ctx, c, "supabase/"+draftTable, path)
}

// CreateDraft inserts a new draft at the given step. The id is minted
// here so a failed insert can be correlated in the logs.
func (c *Client) CreateDraft(ctx context.Context, userID string, step int) (*domain.LoanDraft, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDraft")
	defer span.End()

	id := uuid.NewString()
	rows, err := doPost[domain.LoanDraft](ctx, c, draftTable, map[string]any{
		"id":          id,
		"user_id":     userID,
		"step_number": step,
		"status":      domain.DraftStatusDraft,
	})
	if err != nil {
		c.logger.Error("supabase: draft insert failed",
			zap.String("draft_id", id),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create draft %s: empty representation", id)
	}

	c.logger.Info("supabase: draft created",
		zap.String("draft_id", rows[0].ID),
		zap.String("user_id", userID),
	)
	return &rows[0], nil
}

// UpdateDraft patches a draft and returns the updated row.
func (c *Client) UpdateDraft(ctx context.Context, draftID string, cols map[string]any) (*domain.LoanDraft, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateDraft")
	defer span.End()

	rows, err := doPatch[domain.LoanDraft](ctx, c, draftTable, fmt.Sprintf("%s?id=%s", draftTable, eq(draftID)), cols)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "loan_application", ID: draftID}
	}
	return &rows[0], nil
}

// GetDraft reads a draft by id.
func (c *Client) GetDraft(ctx context.Context, draftID string) (*domain.LoanDraft, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDraft")
	defer span.End()

	path := fmt.Sprintf("%s?id=%s&limit=1", draftTable, eq(draftID))
	d, err := selectOne[domain.LoanDraft](ctx, c, "supabase/"+draftTable, path)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &domain.ErrNotFound{Resource: "loan_application", ID: draftID}
	}
	return d, nil
}
