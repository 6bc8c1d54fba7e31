package domain

import "time"

// SessionUser is the authenticated user as reported by the auth service.
type SessionUser struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

// MetadataString returns a string metadata field, "" when absent or not a string.
func (u *SessionUser) MetadataString(key string) string {
	if u == nil || u.Metadata == nil {
		return ""
	}
	s, _ := u.Metadata[key].(string)
	return s
}

// Session is an active auth session.
type Session struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        SessionUser `json:"user"`
}

// SessionStatus is what GET /v1/session reports. The token itself is
// never echoed back.
type SessionStatus struct {
	Authenticated bool       `json:"authenticated"`
	UserID        string     `json:"userId,omitempty"`
	Email         string     `json:"email,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// Identity is the resolved caller. The zero value is unauthenticated.
type Identity struct {
	UserID string
	User   *SessionUser
}

// Unauthenticated is the identity of a caller without a usable session.
var Unauthenticated = Identity{}

// Authenticated reports whether the identity carries a user id.
func (i Identity) Authenticated() bool { return i.UserID != "" }

// Preferences holds per-user display preferences.
type Preferences struct {
	BalanceVisible bool `json:"balanceVisible"`
}

// DefaultPreferences is what a user starts with.
func DefaultPreferences() Preferences {
	return Preferences{BalanceVisible: true}
}

// ============================================================
// Draft loan application
// ============================================================

// Draft statuses.
const (
	DraftStatusDraft     = "draft"
	DraftStatusSubmitted = "submitted"
)

// LoanDraft is a resumable, multi-step loan application row.
type LoanDraft struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	StepNumber int            `json:"step_number"`
	Status     string         `json:"status"`
	Amount     *float64       `json:"amount,omitempty"`
	TermMonths *int           `json:"term_months,omitempty"`
	Purpose    string         `json:"purpose,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// LoanDraftUpdate is a partial update of a draft; nil fields are left alone.
type LoanDraftUpdate struct {
	StepNumber *int           `json:"step_number" validate:"omitempty,min=1,max=20"`
	Status     *string        `json:"status" validate:"omitempty,oneof=draft submitted"`
	Amount     *float64       `json:"amount" validate:"omitempty,gt=0"`
	TermMonths *int           `json:"term_months" validate:"omitempty,min=1,max=360"`
	Purpose    *string        `json:"purpose" validate:"omitempty,max=200"`
	Extra      map[string]any `json:"extra"`
}

// Columns converts the update into a PostgREST PATCH body.
func (u LoanDraftUpdate) Columns() map[string]any {
	cols := map[string]any{}
	if u.StepNumber != nil {
		cols["step_number"] = *u.StepNumber
	}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.Amount != nil {
		cols["amount"] = *u.Amount
	}
	if u.TermMonths != nil {
		cols["term_months"] = *u.TermMonths
	}
	if u.Purpose != nil {
		cols["purpose"] = *u.Purpose
	}
	if u.Extra != nil {
		cols["extra"] = u.Extra
	}
	return cols
}
