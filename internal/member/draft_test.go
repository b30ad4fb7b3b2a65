package member

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	return Draft{
		StoreName:   "Shop A",
		Location:    "Main St",
		PhoneNumber: "13800000000",
		Balance:     "12.50",
	}
}

func TestDraftValidate(t *testing.T) {
	require.NoError(t, validDraft().Validate())

	cases := []struct {
		name   string
		mutate func(*Draft)
		want   string
	}{
		{"blank store name", func(d *Draft) { d.StoreName = "   " }, "store name is required"},
		{"blank location", func(d *Draft) { d.Location = "" }, "location is required"},
		{"short phone", func(d *Draft) { d.PhoneNumber = "1380000" }, "phone number must be at least 11 digits"},
		{"phone with letters", func(d *Draft) { d.PhoneNumber = "1380000000x" }, "phone number must be at least 11 digits"},
		{"negative balance", func(d *Draft) { d.Balance = "-1" }, "balance must be a non-negative number"},
		{"garbage balance", func(d *Draft) { d.Balance = "abc" }, "balance must be a non-negative number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(&d)
			err := d.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDraftBuildTrimsAndCreates(t *testing.T) {
	d := validDraft()
	d.StoreName = "  Shop A  "
	m, err := d.Build()
	require.NoError(t, err)
	assert.Equal(t, "Shop A", m.StoreName)
	assert.True(t, m.Balance.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, m.CreatedAt.Equal(m.UpdatedAt))
}

func TestDraftApplyKeepsIdentity(t *testing.T) {
	created := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	withClock(t, created, created.Add(time.Minute))

	orig := New("Shop A", "Main St", "13800000000", decimal.NewFromInt(1))
	d := DraftFrom(orig)
	assert.Equal(t, "1.00", d.Balance)

	d.Location = "Harbour"
	edited, err := d.Apply(orig)
	require.NoError(t, err)
	assert.Equal(t, orig.ID, edited.ID)
	assert.True(t, edited.CreatedAt.Equal(orig.CreatedAt))
	assert.True(t, edited.UpdatedAt.Equal(created.Add(time.Minute)))
	assert.Equal(t, "Harbour", edited.Location)

	d.PhoneNumber = ""
	_, err = d.Apply(orig)
	assert.Error(t, err)
}

func TestInputFilters(t *testing.T) {
	assert.Equal(t, "13800000000", FilterPhoneInput("138-0000-0000 99"))
	assert.Equal(t, "", FilterPhoneInput("abc"))

	assert.Equal(t, "12.34", FilterBalanceInput("12.345"))
	assert.Equal(t, "12.39", FilterBalanceInput("1a2.3.9x"))
	assert.Equal(t, "100", FilterBalanceInput("$100"))
}
