// Package validate holds the data-shape rules applied to journal writes.
// Every check here runs before a request reaches a store; a failing check
// aborts the operation with a 400 and no write occurs.
package validate

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	// moneyRe matches digits with an optional decimal point and 1-2
	// fractional digits. No sign, no exponent.
	moneyRe = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

	// sharesRe matches digits with an optional fraction of any length.
	sharesRe = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// IsMoney reports whether s is a well-formed non-negative money amount:
// "12", "12.5" and "12.50" pass; "12.555", "-5", "1e3" and "abc" fail.
func IsMoney(s string) bool {
	return moneyRe.MatchString(s)
}

// IsPositiveShareCount reports whether s is a well-formed share count
// strictly greater than zero. Fractional shares of any precision are fine.
func IsPositiveShareCount(s string) bool {
	if !sharesRe.MatchString(s) {
		return false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return d.IsPositive()
}

// Amount is a money or share-count field as it arrives in a request body.
// Clients send both JSON numbers and strings, so the raw literal is kept
// for format validation instead of eagerly converting to float.
type Amount struct {
	raw string
	set bool
}

// NewAmount builds a set Amount from a literal, for tests and internal use.
func NewAmount(raw string) Amount {
	return Amount{raw: raw, set: true}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = Amount{}
		return nil
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*a = Amount{}
		return nil
	}
	*a = Amount{raw: s, set: true}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.set {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", a.raw)), nil
}

// Present reports whether the field was supplied with a non-empty value.
// Absent, null and empty-string inputs all count as not present.
func (a Amount) Present() bool {
	return a.set
}

// String returns the raw literal as received.
func (a Amount) String() string {
	return a.raw
}

// Float64 converts the amount to a float64. Call only after the format
// predicates have passed.
func (a Amount) Float64() (float64, error) {
	d, err := decimal.NewFromString(a.raw)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", a.raw, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// PairedSoldFields enforces the both-or-neither rule for the sold date and
// sell price: a trade closes by supplying both, stays open by supplying
// neither. nil and empty-string sold dates count as absent.
func PairedSoldFields(soldAt *string, sellPrice Amount) bool {
	hasDate := soldAt != nil && strings.TrimSpace(*soldAt) != ""
	return hasDate == sellPrice.Present()
}

// New returns a validator with the journal's custom rules registered:
// "money" and "shares" run the format predicates above, and Amount fields
// are unwrapped to their raw literal so required/len tags work on them.
func New() *validator.Validate {
	v := validator.New()

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if a, ok := field.Interface().(Amount); ok {
			if !a.Present() {
				return nil
			}
			return a.String()
		}
		return nil
	}, Amount{})

	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && IsMoney(s)
	})

	_ = v.RegisterValidation("shares", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && IsPositiveShareCount(s)
	})

	return v
}

// Message renders a validator error as a single human-readable reason,
// naming the first failing field.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return field + " is required"
		case "money":
			return field + " must be an amount with at most 2 decimal places"
		case "shares":
			return field + " must be a positive share count"
		default:
			return field + " is invalid"
		}
	}
	return err.Error()
}
