package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/mint-dashboard-bfa/internal/domain"
	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/preferences"
	"github.com/boddenberg/mint-dashboard-bfa/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDrafts struct {
	rows      map[string]*domain.LoanDraft
	latest    *domain.LoanDraft
	created   int
	createErr error
	updates   []map[string]any
}

func (f *fakeDrafts) FindLatestDraft(context.Context, string) (*domain.LoanDraft, error) {
	return f.latest, nil
}

func (f *fakeDrafts) CreateDraft(_ context.Context, userID string, step int) (*domain.LoanDraft, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	d := &domain.LoanDraft{ID: "new", UserID: userID, StepNumber: step, Status: domain.DraftStatusDraft}
	return d, nil
}

func (f *fakeDrafts) UpdateDraft(_ context.Context, id string, cols map[string]any) (*domain.LoanDraft, error) {
	f.updates = append(f.updates, cols)
	d := *f.rows[id]
	if step, ok := cols["step_number"].(int); ok {
		d.StepNumber = step
	}
	return &d, nil
}

func (f *fakeDrafts) GetDraft(_ context.Context, id string) (*domain.LoanDraft, error) {
	d, ok := f.rows[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "loan_application", ID: id}
	}
	return d, nil
}

func TestInitLoanStep_CreatesWhenNoDraft(t *testing.T) {
	store := &fakeDrafts{}
	svc := service.NewDraftService(authenticated("u1"), store, zap.NewNop())

	d, err := svc.InitLoanStep(context.Background(), service.DraftStartRequest{Step: 2})

	require.NoError(t, err)
	assert.Equal(t, 1, store.created)
	assert.Equal(t, "u1", d.UserID)
	assert.Equal(t, 2, d.StepNumber)
	assert.Equal(t, domain.DraftStatusDraft, d.Status)
}

func TestInitLoanStep_ResumesExisting(t *testing.T) {
	existing := &domain.LoanDraft{ID: "d1", UserID: "u1", StepNumber: 4, Status: domain.DraftStatusDraft}
	store := &fakeDrafts{latest: existing}
	svc := service.NewDraftService(authenticated("u1"), store, zap.NewNop())

	d, err := svc.InitLoanStep(context.Background(), service.DraftStartRequest{Step: 1})

	require.NoError(t, err)
	assert.Same(t, existing, d)
	assert.Zero(t, store.created)
}

func TestInitLoanStep_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      fakeIdentity
		store   *fakeDrafts
		step    int
		wantErr any
	}{
		{"unauthenticated", fakeIdentity{}, &fakeDrafts{}, 1, &domain.ErrUnauthorized{}},
		{"step too small", authenticated("u1"), &fakeDrafts{}, 0, &domain.ErrValidation{}},
		{"step too large", authenticated("u1"), &fakeDrafts{}, 21, &domain.ErrValidation{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := service.NewDraftService(tt.id, tt.store, zap.NewNop())
			_, err := svc.InitLoanStep(context.Background(), service.DraftStartRequest{Step: tt.step})
			require.Error(t, err)
			assert.IsType(t, tt.wantErr, err)
		})
	}
}

func TestInitLoanStep_StoreFailure(t *testing.T) {
	boom := errors.New("insert failed")
	svc := service.NewDraftService(authenticated("u1"), &fakeDrafts{createErr: boom}, zap.NewNop())

	d, err := svc.InitLoanStep(context.Background(), service.DraftStartRequest{Step: 1})

	assert.Nil(t, d)
	assert.ErrorIs(t, err, boom)
}

func TestUpdateDraft(t *testing.T) {
	store := &fakeDrafts{rows: map[string]*domain.LoanDraft{
		"d1": {ID: "d1", UserID: "u1", StepNumber: 1, Status: domain.DraftStatusDraft},
		"d2": {ID: "d2", UserID: "someone-else", StepNumber: 1},
	}}
	svc := service.NewDraftService(authenticated("u1"), store, zap.NewNop())
	ctx := context.Background()

	d, err := svc.UpdateDraft(ctx, "d1", domain.LoanDraftUpdate{StepNumber: domain.Ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, d.StepNumber)
	assert.Equal(t, []map[string]any{{"step_number": 3}}, store.updates)

	_, err = svc.UpdateDraft(ctx, "d2", domain.LoanDraftUpdate{StepNumber: domain.Ptr(3)})
	var notFound *domain.ErrNotFound
	assert.ErrorAs(t, err, &notFound)

	_, err = svc.UpdateDraft(ctx, "d1", domain.LoanDraftUpdate{Status: domain.Ptr("approved")})
	var invalid *domain.ErrValidation
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "status", invalid.Field)

	_, err = svc.UpdateDraft(ctx, "d1", domain.LoanDraftUpdate{})
	assert.ErrorAs(t, err, &invalid)

	assert.Len(t, store.updates, 1)
}

func TestGetDraft(t *testing.T) {
	store := &fakeDrafts{rows: map[string]*domain.LoanDraft{
		"d1": {ID: "d1", UserID: "u1"},
	}}
	svc := service.NewDraftService(authenticated("u1"), store, zap.NewNop())

	d, err := svc.GetDraft(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1", d.ID)

	_, err = svc.GetDraft(context.Background(), "missing")
	var notFound *domain.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestPreferenceService(t *testing.T) {
	ctx := context.Background()
	store := preferences.NewStore()

	anon := service.NewPreferenceService(fakeIdentity{}, store, nil)
	prefs, err := anon.Get(ctx)
	require.NoError(t, err)
	assert.True(t, prefs.BalanceVisible)
	_, err = anon.SetBalanceVisible(ctx, false)
	var unauthorized *domain.ErrUnauthorized
	assert.ErrorAs(t, err, &unauthorized)

	svc := service.NewPreferenceService(authenticated("u1"), store, nil)
	_, err = svc.SetBalanceVisible(ctx, false)
	require.NoError(t, err)
	prefs, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.False(t, prefs.BalanceVisible)
}
