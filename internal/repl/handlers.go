package repl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tartampluch/go-contacts/internal/book"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/store"
)

func (r *REPL) hello(context.Context, []string) string {
	return r.loc.Msg(config.TKeyGreeting)
}

func (r *REPL) help(context.Context, []string) string {
	return r.loc.Msg(config.TKeyHelp)
}

// addContact creates the record on first sight of a name, then appends the
// phone. The reply distinguishes a brand-new contact from an updated one.
func (r *REPL) addContact(_ context.Context, args []string) string {
	name, phone := args[0], args[1]

	rec, err := r.book.Find(name)
	created := false
	if errors.Is(err, book.ErrRecordNotFound) {
		rec, err = book.NewRecord(name)
		if err != nil {
			return r.errorText(err)
		}
		created = true
	}

	if err := rec.AddPhone(phone); err != nil {
		return r.errorText(err)
	}

	if created {
		r.book.AddRecord(rec)
		return r.loc.Msg(config.TKeyContactAdded)
	}
	return r.loc.Msg(config.TKeyContactUpdated)
}

func (r *REPL) changePhone(_ context.Context, args []string) string {
	name, oldPhone, newPhone := args[0], args[1], args[2]

	rec, err := r.book.Find(name)
	if err != nil {
		return r.loc.MsgData(config.TKeyContactMissing, map[string]any{"Name": name})
	}

	if err := rec.EditPhone(oldPhone, newPhone); err != nil {
		return r.errorText(err)
	}
	return r.loc.MsgData(config.TKeyPhoneChanged, map[string]any{
		"Name": name,
		"Old":  oldPhone,
		"New":  newPhone,
	})
}

func (r *REPL) showPhones(_ context.Context, args []string) string {
	name := args[0]

	rec, err := r.book.Find(name)
	if err != nil {
		return r.loc.MsgData(config.TKeyContactMissing, map[string]any{"Name": name})
	}

	phones := make([]string, len(rec.Phones()))
	for i, p := range rec.Phones() {
		phones[i] = p.String()
	}
	return r.loc.MsgData(config.TKeyPhoneList, map[string]any{
		"Name":   name,
		"Phones": strings.Join(phones, config.PhoneListSeparator),
	})
}

func (r *REPL) showAll(context.Context, []string) string {
	if r.book.Len() == 0 {
		return r.loc.Msg(config.TKeyBookEmpty)
	}

	lines := make([]string, 0, r.book.Len())
	for _, rec := range r.book.Records() {
		lines = append(lines, rec.Describe())
	}
	return strings.Join(lines, "\n")
}

func (r *REPL) addBirthday(_ context.Context, args []string) string {
	name, date := args[0], args[1]

	rec, err := r.book.Find(name)
	if err != nil {
		return r.loc.MsgData(config.TKeyContactMissing, map[string]any{"Name": name})
	}

	if err := rec.SetBirthday(date); err != nil {
		return r.errorText(err)
	}
	return r.loc.MsgData(config.TKeyBdayAdded, map[string]any{"Name": name})
}

func (r *REPL) showBirthday(_ context.Context, args []string) string {
	name := args[0]

	rec, err := r.book.Find(name)
	if err != nil {
		return r.loc.MsgData(config.TKeyContactMissing, map[string]any{"Name": name})
	}
	if rec.Birthday().IsZero() {
		return r.loc.MsgData(config.TKeyBdayUnset, map[string]any{"Name": name})
	}
	return r.loc.MsgData(config.TKeyBdayShow, map[string]any{
		"Name":     name,
		"Birthday": rec.Birthday().String(),
	})
}

func (r *REPL) upcomingBirthdays(context.Context, []string) string {
	upcoming := r.book.UpcomingBirthdays(r.clock.Now(), r.windowDays)
	if len(upcoming) == 0 {
		return r.loc.Msg(config.TKeyBdayNone)
	}

	lines := make([]string, len(upcoming))
	for i, rec := range upcoming {
		lines[i] = rec.Name().String() + ": " + rec.Birthday().String()
	}
	return strings.Join(lines, "\n")
}

func (r *REPL) deleteContact(_ context.Context, args []string) string {
	name := args[0]

	if _, err := r.book.Find(name); err != nil {
		return r.loc.MsgData(config.TKeyContactMissing, map[string]any{"Name": name})
	}
	r.book.Delete(name)
	return r.loc.MsgData(config.TKeyContactDeleted, map[string]any{"Name": name})
}

// importContacts merges contacts from a local vCard file or an http(s) URL.
// Imported records follow AddRecord semantics: an existing name is replaced.
func (r *REPL) importContacts(ctx context.Context, args []string) string {
	src := args[0]

	reader, err := r.openImportSource(ctx, src)
	if err != nil {
		return r.loc.MsgData(config.TKeyErrImport, map[string]any{"Error": err.Error()})
	}
	defer func() { _ = reader.Close() }()

	imported, err := store.DecodeVCards(reader)
	if err != nil {
		return r.loc.MsgData(config.TKeyErrImport, map[string]any{"Error": err.Error()})
	}

	for _, rec := range imported.Records() {
		r.book.AddRecord(rec)
	}

	slog.Info(config.MsgImportDone,
		config.LogKeyComponent, config.CompRepl,
		config.LogKeyCount, imported.Len(),
	)
	return r.loc.MsgData(config.TKeyImported, map[string]any{"Count": imported.Len()})
}

func (r *REPL) openImportSource(ctx context.Context, src string) (io.ReadCloser, error) {
	if strings.HasPrefix(src, config.SchemeHTTP+"://") || strings.HasPrefix(src, config.SchemeHTTPS+"://") {
		return r.fetcher.Fetch(ctx, src)
	}
	return os.Open(src)
}
