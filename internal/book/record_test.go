package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T, name string) *Record {
	t.Helper()
	r, err := NewRecord(name)
	require.NoError(t, err)
	return r
}

func TestNewRecord(t *testing.T) {
	r := newTestRecord(t, "Ann")
	assert.Equal(t, "Ann", r.Name().String())
	assert.Empty(t, r.Phones())
	assert.True(t, r.Birthday().IsZero())

	_, err := NewRecord("")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestRecord_AddPhone(t *testing.T) {
	r := newTestRecord(t, "Ann")

	require.NoError(t, r.AddPhone("1234567890"))
	require.NoError(t, r.AddPhone("0987654321"))
	// Duplicates are permitted, insertion order preserved.
	require.NoError(t, r.AddPhone("1234567890"))

	phones := r.Phones()
	require.Len(t, phones, 3)
	assert.Equal(t, "1234567890", phones[0].String())
	assert.Equal(t, "0987654321", phones[1].String())
	assert.Equal(t, "1234567890", phones[2].String())
}

func TestRecord_AddPhone_RejectedNeverApplied(t *testing.T) {
	r := newTestRecord(t, "Ann")

	err := r.AddPhone("not-a-phone")

	assert.ErrorIs(t, err, ErrInvalidPhone)
	assert.Empty(t, r.Phones(), "A rejected phone must never land in the list")
}

func TestRecord_RemovePhone(t *testing.T) {
	r := newTestRecord(t, "Ann")
	require.NoError(t, r.AddPhone("1111111111"))
	require.NoError(t, r.AddPhone("2222222222"))
	require.NoError(t, r.AddPhone("1111111111"))

	// Only the first match goes.
	r.RemovePhone("1111111111")
	phones := r.Phones()
	require.Len(t, phones, 2)
	assert.Equal(t, "2222222222", phones[0].String())
	assert.Equal(t, "1111111111", phones[1].String())

	// Absent number: silent no-op.
	r.RemovePhone("3333333333")
	assert.Len(t, r.Phones(), 2)
}

func TestRecord_EditPhone(t *testing.T) {
	r := newTestRecord(t, "Ann")
	require.NoError(t, r.AddPhone("1111111111"))
	require.NoError(t, r.AddPhone("2222222222"))

	require.NoError(t, r.EditPhone("1111111111", "5555555555"))

	phones := r.Phones()
	assert.Equal(t, "5555555555", phones[0].String())
	assert.Equal(t, "2222222222", phones[1].String())
}

func TestRecord_EditPhone_ValidatesNewValue(t *testing.T) {
	r := newTestRecord(t, "Ann")
	require.NoError(t, r.AddPhone("1111111111"))

	err := r.EditPhone("1111111111", "abc")

	assert.ErrorIs(t, err, ErrInvalidPhone)
	assert.Equal(t, "1111111111", r.Phones()[0].String(), "Failed edit must leave the list untouched")
}

func TestRecord_EditPhone_MissingOldIsNoOp(t *testing.T) {
	r := newTestRecord(t, "Ann")
	require.NoError(t, r.AddPhone("1111111111"))

	err := r.EditPhone("9999999999", "5555555555")

	assert.NoError(t, err, "Editing an absent number is not an error")
	require.Len(t, r.Phones(), 1)
	assert.Equal(t, "1111111111", r.Phones()[0].String())
}

func TestRecord_FindPhone(t *testing.T) {
	r := newTestRecord(t, "Ann")
	require.NoError(t, r.AddPhone("1234567890"))

	p, err := r.FindPhone("1234567890")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", p.String())

	_, err = r.FindPhone("0000000000")
	assert.ErrorIs(t, err, ErrPhoneNotFound)
}

func TestRecord_SetBirthday(t *testing.T) {
	r := newTestRecord(t, "Ann")

	require.NoError(t, r.SetBirthday("12.06.1990"))
	assert.Equal(t, "12.06.1990", r.Birthday().String())

	// Setting again overwrites.
	require.NoError(t, r.SetBirthday("01.01.2000"))
	assert.Equal(t, "01.01.2000", r.Birthday().String())

	// A rejected date leaves the previous value in place.
	assert.ErrorIs(t, r.SetBirthday("31.02.2024"), ErrInvalidDate)
	assert.Equal(t, "01.01.2000", r.Birthday().String())
}

func TestRecord_Describe(t *testing.T) {
	r := newTestRecord(t, "Ann")
	require.NoError(t, r.AddPhone("1234567890"))
	require.NoError(t, r.AddPhone("0987654321"))

	assert.Equal(t,
		"Contact name: Ann, phones: 1234567890; 0987654321, birthday: Not set",
		r.Describe())

	require.NoError(t, r.SetBirthday("12.06.1990"))
	assert.Equal(t,
		"Contact name: Ann, phones: 1234567890; 0987654321, birthday: 12.06.1990",
		r.Describe())

	// Idempotence: describing an unmodified record yields identical text.
	assert.Equal(t, r.Describe(), r.Describe())
}
