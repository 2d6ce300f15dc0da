package book

import (
	"sort"
	"time"
)

// AddressBook is the keyed collection of all records, keyed by contact name.
// It owns an internal map plus an insertion-order index so listings stay
// stable across runs. All access goes through the methods below; the map is
// never exposed.
//
// The book is not safe for concurrent use. The application is a single
// synchronous session, so no locking is needed; anyone exposing the book as
// a service must add their own boundary around it.
type AddressBook struct {
	records map[string]*Record
	order   []string
}

// NewAddressBook creates an empty address book.
func NewAddressBook() *AddressBook {
	return &AddressBook{records: make(map[string]*Record)}
}

// Len returns the number of records in the book.
func (ab *AddressBook) Len() int { return len(ab.records) }

// AddRecord inserts the record keyed by its name. Adding a record whose
// name already exists silently replaces the previous entry: last write
// wins, no merge.
func (ab *AddressBook) AddRecord(r *Record) {
	key := r.Name().String()
	if _, exists := ab.records[key]; !exists {
		ab.order = append(ab.order, key)
	}
	ab.records[key] = r
}

// Find returns the record for the given name, or ErrRecordNotFound.
func (ab *AddressBook) Find(name string) (*Record, error) {
	r, ok := ab.records[name]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return r, nil
}

// Delete removes the record for the given name.
// Deleting an absent name is a silent no-op.
func (ab *AddressBook) Delete(name string) {
	if _, ok := ab.records[name]; !ok {
		return
	}
	delete(ab.records, name)
	for i, key := range ab.order {
		if key == name {
			ab.order = append(ab.order[:i], ab.order[i+1:]...)
			return
		}
	}
}

// Records returns all records in insertion order.
func (ab *AddressBook) Records() []*Record {
	out := make([]*Record, 0, len(ab.order))
	for _, key := range ab.order {
		out = append(out, ab.records[key])
	}
	return out
}

// NextOccurrence projects a birthday onto the current or next year relative
// to today. The candidate is the birthday's month/day in today's year; if
// that date has already passed it rolls to the next year. time.Date
// normalizes Feb 29 to Mar 1 when the target year is not a leap year.
func NextOccurrence(today time.Time, birthday Birthday) time.Time {
	loc := today.Location()
	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	b := birthday.Date()
	candidate := time.Date(today.Year(), b.Month(), b.Day(), 0, 0, 0, 0, loc)
	if candidate.Before(todayStart) {
		candidate = time.Date(today.Year()+1, b.Month(), b.Day(), 0, 0, 0, 0, loc)
	}
	return candidate
}

// UpcomingBirthdays returns the records whose next birthday occurrence falls
// within [today, today+windowDays], inclusive on both ends. Comparison is
// date-only: today is truncated to midnight first. The result is sorted
// ascending by occurrence date, then by name, so output is deterministic.
func (ab *AddressBook) UpcomingBirthdays(today time.Time, windowDays int) []*Record {
	loc := today.Location()
	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	windowEnd := todayStart.AddDate(0, 0, windowDays)

	type upcoming struct {
		record *Record
		next   time.Time
	}

	var hits []upcoming
	for _, key := range ab.order {
		r := ab.records[key]
		if r.Birthday().IsZero() {
			continue
		}
		next := NextOccurrence(todayStart, r.Birthday())
		if next.Before(todayStart) || next.After(windowEnd) {
			continue
		}
		hits = append(hits, upcoming{record: r, next: next})
	}

	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].next.Equal(hits[j].next) {
			return hits[i].next.Before(hits[j].next)
		}
		return hits[i].record.Name().String() < hits[j].record.Name().String()
	})

	out := make([]*Record, len(hits))
	for i, h := range hits {
		out[i] = h.record
	}
	return out
}
