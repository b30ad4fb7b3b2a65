package member

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Package member holds the member record and the list helpers the views use.

// Member is one membership record as it is shown and persisted.
type Member struct {
	ID          uuid.UUID       `json:"id"`
	StoreName   string          `json:"storeName"`
	Location    string          `json:"location"`
	Balance     decimal.Decimal `json:"balance"`
	PhoneNumber string          `json:"phoneNumber"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// now is swapped in tests that need deterministic timestamps.
var now = time.Now

// New creates a record with a fresh ID and CreatedAt == UpdatedAt.
func New(storeName, location, phoneNumber string, balance decimal.Decimal) Member {
	ts := now()
	return Member{
		ID:          uuid.New(),
		StoreName:   storeName,
		Location:    location,
		Balance:     balance,
		PhoneNumber: phoneNumber,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// Touch returns a copy with UpdatedAt refreshed. UpdatedAt never moves before CreatedAt.
func (m Member) Touch() Member {
	ts := now()
	if ts.Before(m.CreatedAt) {
		ts = m.CreatedAt
	}
	m.UpdatedAt = ts
	return m
}

// Equal compares every field, using value equality for the balance and timestamps.
func (m Member) Equal(other Member) bool {
	return m.ID == other.ID &&
		m.StoreName == other.StoreName &&
		m.Location == other.Location &&
		m.Balance.Equal(other.Balance) &&
		m.PhoneNumber == other.PhoneNumber &&
		m.CreatedAt.Equal(other.CreatedAt) &&
		m.UpdatedAt.Equal(other.UpdatedAt)
}

// ShortID is the first eight characters of the ID, used for display and lookup.
func (m Member) ShortID() string {
	return m.ID.String()[:8]
}

// FormatBalance renders the balance with two decimals.
func (m Member) FormatBalance() string {
	return m.Balance.StringFixed(2)
}
