package book

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/tartampluch/go-contacts/internal/config"
)

// Validation errors returned by the field constructors. Callers match them
// with errors.Is to translate into user-facing messages.
var (
	ErrEmptyName    = errors.New(config.ErrNameEmpty)
	ErrInvalidPhone = errors.New(config.ErrPhoneInvalid)
	ErrInvalidDate  = errors.New(config.ErrDateInvalid)
)

// phonePattern matches exactly ten decimal digits, nothing else.
var phonePattern = regexp.MustCompile(`^\d{10}$`)

// Name is the mandatory display name of a contact.
// Always valid in memory: use ParseName to construct.
type Name struct {
	value string
}

// ParseName validates and constructs a Name. Empty or whitespace-only
// input is rejected with ErrEmptyName.
func ParseName(raw string) (Name, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Name{}, ErrEmptyName
	}
	return Name{value: trimmed}, nil
}

func (n Name) String() string { return n.value }

// Phone is a ten-digit phone number. Unlike Name, a Phone is mutable in
// place through Record.EditPhone, but every write goes through ParsePhone.
type Phone struct {
	value string
}

// ParsePhone validates and constructs a Phone.
func ParsePhone(raw string) (Phone, error) {
	if !phonePattern.MatchString(raw) {
		return Phone{}, ErrInvalidPhone
	}
	return Phone{value: raw}, nil
}

func (p Phone) String() string { return p.value }

// Birthday is a calendar date entered and displayed as DD.MM.YYYY.
// Stored as a normalized midnight timestamp, not as text.
type Birthday struct {
	date time.Time
}

// ParseBirthday validates and constructs a Birthday. The input must be a
// real calendar date: time.Parse rejects impossible triples like 31.02.2024.
// Any year, past or future, is accepted.
func ParseBirthday(raw string) (Birthday, error) {
	t, err := time.Parse(config.BirthdayLayout, raw)
	if err != nil {
		return Birthday{}, ErrInvalidDate
	}
	return Birthday{date: t}, nil
}

// BirthdayFromDate constructs a Birthday from an already-parsed date,
// truncating any time-of-day component. Used by the vCard importer.
func BirthdayFromDate(t time.Time) Birthday {
	return Birthday{date: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// Date returns the underlying date value.
func (b Birthday) Date() time.Time { return b.date }

// IsZero reports whether the birthday has never been set.
func (b Birthday) IsZero() bool { return b.date.IsZero() }

// String renders the date back to the canonical zero-padded DD.MM.YYYY form.
func (b Birthday) String() string { return b.date.Format(config.BirthdayLayout) }
