package repl_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-contacts/internal/book"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/repl"
)

// MockClock controls time for deterministic testing.
type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.CurrentTime
}

// MockFetcher simulates the network layer using testify/mock.
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if r := args.Get(0); r != nil {
		return r.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestREPL(ab *book.AddressBook) *repl.REPL {
	return repl.New(ab, strings.NewReader(""), io.Discard, repl.Options{
		Clock: MockClock{CurrentTime: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)},
	})
}

func dispatch(r *repl.REPL, name string, args ...string) string {
	return r.Dispatch(context.Background(), name, args)
}

func TestDispatch_Hello(t *testing.T) {
	r := newTestREPL(book.NewAddressBook())
	assert.Equal(t, "How can I help you?", dispatch(r, config.CmdHello))
}

func TestDispatch_UnknownCommand(t *testing.T) {
	r := newTestREPL(book.NewAddressBook())
	assert.Equal(t, "Invalid command.", dispatch(r, "frobnicate"))
}

func TestDispatch_MissingArgument(t *testing.T) {
	r := newTestREPL(book.NewAddressBook())

	assert.Equal(t, "Missing argument. Please check the command format.",
		dispatch(r, config.CmdAdd, "Ann"))
	assert.Equal(t, "Missing argument. Please check the command format.",
		dispatch(r, config.CmdChange, "Ann", "1234567890"))
}

func TestDispatch_AddContact(t *testing.T) {
	ab := book.NewAddressBook()
	r := newTestREPL(ab)

	assert.Equal(t, "Contact added.", dispatch(r, config.CmdAdd, "Ann", "1234567890"))
	// Same name again: the record is updated, not duplicated.
	assert.Equal(t, "Contact updated.", dispatch(r, config.CmdAdd, "Ann", "0987654321"))

	rec, err := ab.Find("Ann")
	require.NoError(t, err)
	assert.Len(t, rec.Phones(), 2)
}

func TestDispatch_AddContact_InvalidPhone(t *testing.T) {
	ab := book.NewAddressBook()
	r := newTestREPL(ab)

	assert.Equal(t, "Invalid phone number. Must be 10 digits.",
		dispatch(r, config.CmdAdd, "Ann", "123"))
	// The rejected contact must not linger in the book.
	_, err := ab.Find("Ann")
	assert.ErrorIs(t, err, book.ErrRecordNotFound)
}

func TestDispatch_ChangePhone(t *testing.T) {
	ab := book.NewAddressBook()
	r := newTestREPL(ab)
	dispatch(r, config.CmdAdd, "Ann", "1234567890")

	assert.Equal(t, "Phone for Ann changed from 1234567890 to 5555555555.",
		dispatch(r, config.CmdChange, "Ann", "1234567890", "5555555555"))
	assert.Equal(t, "Contact Bob not found.",
		dispatch(r, config.CmdChange, "Bob", "1234567890", "5555555555"))
	assert.Equal(t, "Invalid phone number. Must be 10 digits.",
		dispatch(r, config.CmdChange, "Ann", "5555555555", "bad"))
}

func TestDispatch_ShowPhones(t *testing.T) {
	ab := book.NewAddressBook()
	r := newTestREPL(ab)
	dispatch(r, config.CmdAdd, "Ann", "1234567890")
	dispatch(r, config.CmdAdd, "Ann", "0987654321")

	assert.Equal(t, "Phones for Ann: 1234567890; 0987654321",
		dispatch(r, config.CmdPhone, "Ann"))
	assert.Equal(t, "Contact Bob not found.", dispatch(r, config.CmdPhone, "Bob"))
}

func TestDispatch_All(t *testing.T) {
	ab := book.NewAddressBook()
	r := newTestREPL(ab)

	assert.Equal(t, "No contacts in the address book.", dispatch(r, config.CmdAll))

	dispatch(r, config.CmdAdd, "Ann", "1234567890")
	dispatch(r, config.CmdAdd, "Bob", "0987654321")

	out := dispatch(r, config.CmdAll)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Contact name: Ann, phones: 1234567890, birthday: Not set", lines[0])
	assert.Equal(t, "Contact name: Bob, phones: 0987654321, birthday: Not set", lines[1])
}

func TestDispatch_Birthdays(t *testing.T) {
	ab := book.NewAddressBook()
	r := newTestREPL(ab) // "today" is 10.06.2025

	assert.Equal(t, "No upcoming birthdays this week.", dispatch(r, config.CmdBirthdays))

	dispatch(r, config.CmdAdd, "Bob", "1234567890")
	assert.Equal(t, "Birthday for Bob added.",
		dispatch(r, config.CmdAddBirthday, "Bob", "12.06.1990"))

	dispatch(r, config.CmdAdd, "Cara", "0987654321")
	dispatch(r, config.CmdAddBirthday, "Cara", "09.06.1985")

	// Bob's birthday is within the window; Cara's passed yesterday.
	assert.Equal(t, "Bob: 12.06.1990", dispatch(r, config.CmdBirthdays))
}

func TestDispatch_ShowBirthday(t *testing.T) {
	ab := book.NewAddressBook()
	r := newTestREPL(ab)
	dispatch(r, config.CmdAdd, "Ann", "1234567890")

	assert.Equal(t, "Ann does not have a birthday set.",
		dispatch(r, config.CmdShowBirthday, "Ann"))

	dispatch(r, config.CmdAddBirthday, "Ann", "12.06.1990")
	assert.Equal(t, "Ann's birthday: 12.06.1990",
		dispatch(r, config.CmdShowBirthday, "Ann"))

	assert.Equal(t, "Contact Bob not found.", dispatch(r, config.CmdShowBirthday, "Bob"))

	assert.Equal(t, "Invalid date format. Use DD.MM.YYYY",
		dispatch(r, config.CmdAddBirthday, "Ann", "31.02.2024"))
}

func TestDispatch_Delete(t *testing.T) {
	ab := book.NewAddressBook()
	r := newTestREPL(ab)
	dispatch(r, config.CmdAdd, "Ann", "1234567890")

	assert.Equal(t, "Contact Ann deleted.", dispatch(r, config.CmdDelete, "Ann"))
	assert.Equal(t, "Contact Ann not found.", dispatch(r, config.CmdDelete, "Ann"))
}

func TestDispatch_ImportFromFile(t *testing.T) {
	vcf := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:4.0",
		"FN:Imported",
		"TEL:1112223333",
		"BDAY:19900612",
		"END:VCARD",
		"",
	}, "\r\n")
	path := filepath.Join(t.TempDir(), "in.vcf")
	require.NoError(t, os.WriteFile(path, []byte(vcf), 0o600))

	ab := book.NewAddressBook()
	r := newTestREPL(ab)

	assert.Equal(t, "Imported 1 contacts.", dispatch(r, config.CmdImport, path))

	rec, err := ab.Find("Imported")
	require.NoError(t, err)
	assert.Equal(t, "12.06.1990", rec.Birthday().String())
}

func TestDispatch_ImportFromURL(t *testing.T) {
	vcf := "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Remote\r\nTEL:1112223333\r\nEND:VCARD\r\n"
	url := "https://example.com/contacts.vcf"

	fetcher := &MockFetcher{}
	fetcher.On("Fetch", mock.Anything, url).
		Return(io.NopCloser(strings.NewReader(vcf)), nil)

	ab := book.NewAddressBook()
	r := repl.New(ab, strings.NewReader(""), io.Discard, repl.Options{Fetcher: fetcher})

	assert.Equal(t, "Imported 1 contacts.", dispatch(r, config.CmdImport, url))

	_, err := ab.Find("Remote")
	assert.NoError(t, err)
	fetcher.AssertExpectations(t)
}

func TestDispatch_ImportFailure(t *testing.T) {
	r := newTestREPL(book.NewAddressBook())

	out := dispatch(r, config.CmdImport, filepath.Join(t.TempDir(), "absent.vcf"))

	assert.Contains(t, out, "Import failed:")
}

// TestRun_SessionFlow drives a full scripted session through the loop.
func TestRun_SessionFlow(t *testing.T) {
	input := strings.Join([]string{
		"hello",
		"add Ann 1234567890",
		"phone Ann",
		"",
		"exit",
	}, "\n")

	var out strings.Builder
	ab := book.NewAddressBook()
	r := repl.New(ab, strings.NewReader(input), &out, repl.Options{})

	require.NoError(t, r.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Welcome to the assistant bot!")
	assert.Contains(t, text, "How can I help you?")
	assert.Contains(t, text, "Contact added.")
	assert.Contains(t, text, "Phones for Ann: 1234567890")
	assert.Contains(t, text, "Good bye!")
}

func TestRun_EOFEndsSession(t *testing.T) {
	r := repl.New(book.NewAddressBook(), strings.NewReader("hello\n"), io.Discard, repl.Options{})
	assert.NoError(t, r.Run(context.Background()))
}

func TestRun_CommandsAreCaseInsensitive(t *testing.T) {
	var out strings.Builder
	r := repl.New(book.NewAddressBook(), strings.NewReader("HELLO\nexit\n"), &out, repl.Options{})

	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "How can I help you?")
}

func TestLocalizer_French(t *testing.T) {
	loc := repl.NewLocalizer("fr")

	r := repl.New(book.NewAddressBook(), strings.NewReader(""), io.Discard,
		repl.Options{Localizer: loc})

	assert.Equal(t, "Comment puis-je vous aider ?", dispatch(r, config.CmdHello))
	assert.Equal(t, "Commande invalide.", dispatch(r, "frobnicate"))
}

func TestLocalizer_FallbackToKey(t *testing.T) {
	loc := repl.NewLocalizer("en")
	assert.Equal(t, "no_such_key", loc.Msg("no_such_key"))
}

func TestLocalizer_FormatSummary(t *testing.T) {
	loc := repl.NewLocalizer("en")

	assert.Equal(t, "Birthday: Ann (35)", loc.FormatSummary("Ann", 35))
	assert.Equal(t, "Birthday: Ann (birth)", loc.FormatSummary("Ann", 0))
}
