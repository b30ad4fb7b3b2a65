package member

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// MinPhoneDigits is the shortest phone number the forms accept.
const MinPhoneDigits = 11

// Draft is the raw text a user typed into the add or edit form.
type Draft struct {
	StoreName   string `validate:"required"`
	Location    string `validate:"required"`
	PhoneNumber string `validate:"required,number,min=11"`
	Balance     string `validate:"required,balance"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("balance", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative()
	})
	return v
}

// DraftFrom pre-fills an edit form from an existing record.
func DraftFrom(m Member) Draft {
	return Draft{
		StoreName:   m.StoreName,
		Location:    m.Location,
		PhoneNumber: m.PhoneNumber,
		Balance:     m.FormatBalance(),
	}
}

func (d Draft) normalized() Draft {
	return Draft{
		StoreName:   strings.TrimSpace(d.StoreName),
		Location:    strings.TrimSpace(d.Location),
		PhoneNumber: strings.TrimSpace(d.PhoneNumber),
		Balance:     strings.TrimSpace(d.Balance),
	}
}

// Validate checks the form rules: non-empty name and location, a phone number of
// at least MinPhoneDigits digits and a non-negative balance.
func (d Draft) Validate() error {
	err := validate.Struct(d.normalized())
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate member")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Field() {
	case "StoreName":
		return "store name is required"
	case "Location":
		return "location is required"
	case "PhoneNumber":
		return fmt.Sprintf("phone number must be at least %d digits", MinPhoneDigits)
	case "Balance":
		return "balance must be a non-negative number"
	default:
		return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
	}
}

// Build validates the draft and creates a new record from it.
func (d Draft) Build() (Member, error) {
	if err := d.Validate(); err != nil {
		return Member{}, err
	}
	n := d.normalized()
	return New(n.StoreName, n.Location, n.PhoneNumber, mustBalance(n.Balance)), nil
}

// Apply validates the draft and returns existing with the edited fields and a
// refreshed UpdatedAt. ID and CreatedAt are kept.
func (d Draft) Apply(existing Member) (Member, error) {
	if err := d.Validate(); err != nil {
		return Member{}, err
	}
	n := d.normalized()
	existing.StoreName = n.StoreName
	existing.Location = n.Location
	existing.PhoneNumber = n.PhoneNumber
	existing.Balance = mustBalance(n.Balance)
	return existing.Touch(), nil
}

// mustBalance is only called on validated input.
func mustBalance(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// FilterPhoneInput keeps the digits of s, truncated to MinPhoneDigits.
func FilterPhoneInput(s string) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == MinPhoneDigits {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FilterBalanceInput keeps digits and the first dot, with at most two decimals.
func FilterBalanceInput(s string) string {
	var b strings.Builder
	seenDot := false
	decimals := 0
	for _, r := range s {
		switch {
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if seenDot {
				if decimals == 2 {
					continue
				}
				decimals++
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
