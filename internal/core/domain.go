package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// MaxDescriptionLength bounds the free-text description of a transaction.
const MaxDescriptionLength = 500

// Dates outside [MinYear, MaxYear] are rejected. Stores keep instants as
// unix nanoseconds, which only cover the years 1678 to 2262.
const (
	MinYear = 1900
	MaxYear = 2200
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string
		UserID      string
		Amount      Money
		Type        TransactionType
		Category    string // Category identifier from the catalogue
		Date        Date
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// TransactionPatch carries a partial update. Nil fields are left untouched.
	TransactionPatch struct {
		Amount      *Money
		Type        *TransactionType
		Category    *string
		Date        *Date
		Description *string
	}

	// Filter narrows a transaction listing. Zero values impose no constraint.
	Filter struct {
		Type      TransactionType
		Category  string
		StartDate time.Time
		EndDate   time.Time
	}
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("transaction not found")
	ErrStorage      = errors.New("storage error")
)

var (
	ErrMissingFields      = fmt.Errorf("%w: amount, type, category and date are required", ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be a positive decimal", ErrValidation)
	ErrInvalidType        = fmt.Errorf("%w: type must be income or expense", ErrValidation)
	ErrMissingCategory    = fmt.Errorf("%w: category is required", ErrValidation)
	ErrMissingDate        = fmt.Errorf("%w: date is required", ErrValidation)
	ErrInvalidDate        = fmt.Errorf("%w: date must be YYYY-MM-DD or RFC 3339", ErrValidation)
	ErrDateOutOfRange     = fmt.Errorf("%w: date must be between years %d and %d", ErrValidation, MinYear, MaxYear)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, MaxDescriptionLength)
)

// Valid reports whether t is one of the two known variants.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseTransactionType converts user input into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidType
	}
	return t, nil
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
// The result is always in UTC.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrMissingDate
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return Date{}, ErrInvalidDate
		}
	}
	d := Date{Time: t.UTC()}
	if !d.InRange() {
		return Date{}, ErrDateOutOfRange
	}
	return d, nil
}

// InRange reports whether d falls within the supported years.
func (d Date) InRange() bool {
	y := d.UTC().Year()
	return y >= MinYear && y <= MaxYear
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrMissingDate
	}
	if !d.InRange() {
		return ErrDateOutOfRange
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the invariants of a transaction about to be stored.
// Category is only checked for presence, never against the catalogue.
func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrMissingCategory
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len([]rune(t.Description)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// IsEmpty reports whether the patch changes no field.
func (p TransactionPatch) IsEmpty() bool {
	return p.Amount == nil && p.Type == nil && p.Category == nil && p.Date == nil && p.Description == nil
}

// Validate checks only the fields that are present.
func (p TransactionPatch) Validate() error {
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Type != nil && !p.Type.Valid() {
		return ErrInvalidType
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return ErrMissingCategory
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.Description != nil && len([]rune(*p.Description)) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// Apply returns a copy of t with the patch applied and UpdatedAt set to now.
func (p TransactionPatch) Apply(t Transaction, now time.Time) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Category != nil {
		t.Category = strings.TrimSpace(*p.Category)
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	t.UpdatedAt = now
	return t
}

// Validate rejects filters with an unknown type or a bound outside the
// supported years.
func (f Filter) Validate() error {
	if f.Type != "" && !f.Type.Valid() {
		return ErrInvalidType
	}
	for _, bound := range []time.Time{f.StartDate, f.EndDate} {
		if !bound.IsZero() && !(Date{Time: bound}).InRange() {
			return ErrDateOutOfRange
		}
	}
	return nil
}

// Matches reports whether t satisfies every criterion set on f.
func (f Filter) Matches(t Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if !f.StartDate.IsZero() && t.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && t.Date.After(f.EndDate) {
		return false
	}
	return true
}
