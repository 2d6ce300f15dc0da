package book

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tartampluch/go-contacts/internal/config"
)

// Lookup errors. Both describe normal, recoverable outcomes: a miss is
// reported to the user, never fatal.
var (
	ErrRecordNotFound = errors.New(config.ErrRecordMissing)
	ErrPhoneNotFound  = errors.New(config.ErrPhoneMissing)
)

// Record is one contact: a fixed name, an ordered list of phone numbers
// (duplicates allowed) and an optional birthday.
type Record struct {
	name     Name
	phones   []Phone
	birthday Birthday
}

// NewRecord creates a Record for the given raw name.
func NewRecord(rawName string) (*Record, error) {
	name, err := ParseName(rawName)
	if err != nil {
		return nil, err
	}
	return &Record{name: name}, nil
}

// Name returns the contact's name. It never changes after construction.
func (r *Record) Name() Name { return r.name }

// Phones returns the phone list in insertion order.
// The returned slice is a copy; mutations go through the methods below.
func (r *Record) Phones() []Phone {
	out := make([]Phone, len(r.phones))
	copy(out, r.phones)
	return out
}

// Birthday returns the contact's birthday. Check IsZero before use.
func (r *Record) Birthday() Birthday { return r.birthday }

// AddPhone validates raw and appends it to the phone list.
// A rejected number is never partially applied.
func (r *Record) AddPhone(raw string) error {
	phone, err := ParsePhone(raw)
	if err != nil {
		return err
	}
	r.phones = append(r.phones, phone)
	return nil
}

// RemovePhone removes the first phone equal to raw.
// Removing an absent number is a silent no-op.
func (r *Record) RemovePhone(raw string) {
	for i, p := range r.phones {
		if p.value == raw {
			r.phones = append(r.phones[:i], r.phones[i+1:]...)
			return
		}
	}
}

// EditPhone replaces the first phone equal to old with new, re-validating
// new first. Editing an absent old number is a silent no-op, matching
// RemovePhone.
func (r *Record) EditPhone(old, raw string) error {
	phone, err := ParsePhone(raw)
	if err != nil {
		return err
	}
	for i, p := range r.phones {
		if p.value == old {
			r.phones[i] = phone
			return nil
		}
	}
	return nil
}

// FindPhone returns the first phone equal to raw, or ErrPhoneNotFound.
func (r *Record) FindPhone(raw string) (Phone, error) {
	for _, p := range r.phones {
		if p.value == raw {
			return p, nil
		}
	}
	return Phone{}, ErrPhoneNotFound
}

// SetBirthday validates raw and sets the birthday, overwriting any
// previous value. There is no way to clear a birthday once set.
func (r *Record) SetBirthday(raw string) error {
	bday, err := ParseBirthday(raw)
	if err != nil {
		return err
	}
	r.birthday = bday
	return nil
}

// Describe renders the record as a single display line.
func (r *Record) Describe() string {
	phones := make([]string, len(r.phones))
	for i, p := range r.phones {
		phones[i] = p.String()
	}

	bday := config.BirthdayNotSet
	if !r.birthday.IsZero() {
		bday = r.birthday.String()
	}

	return fmt.Sprintf("Contact name: %s, phones: %s, birthday: %s",
		r.name, strings.Join(phones, config.PhoneListSeparator), bday)
}
