// Package store persists the address book to disk and loads it back.
// The on-disk format is chosen by file extension: .vcf/.vcard uses the
// vCard 4.0 codec, everything else a JSON snapshot.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/goccy/go-json"
	"github.com/tartampluch/go-contacts/internal/book"
	"github.com/tartampluch/go-contacts/internal/config"
)

// Contact is the serialized form of one record. It is shared by the JSON
// snapshot codec and the HTTP contacts feed.
type Contact struct {
	Name     string   `json:"name"`
	Phones   []string `json:"phones"`
	Birthday string   `json:"birthday,omitempty"` // DD.MM.YYYY
}

// bdayLayouts lists the BDAY formats accepted on load. Writing always uses
// the first one.
var bdayLayouts = []string{config.VCardBDAYLayout, "2006-01-02"}

// Load reads the address book at path. A missing file is not an error: the
// session starts with an empty book, which is the documented recovery
// policy for a first run.
func Load(path string) (*book.AddressBook, error) {
	log := slog.With(config.LogKeyComponent, config.CompStore, config.LogKeyFile, path)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info(config.MsgBookFresh)
		return book.NewAddressBook(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrBookLoad, err)
	}
	defer func() { _ = f.Close() }()

	ab, err := Decode(f, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrBookLoad, err)
	}

	log.Info(config.MsgBookLoaded, config.LogKeyCount, ab.Len())
	return ab, nil
}

// Save serializes the full book to path. The write is atomic: data goes to
// a temp file in the same directory first, then renames over the target, so
// a crash mid-write never corrupts the previous book.
func Save(path string, ab *book.AddressBook) error {
	var buf bytes.Buffer
	if err := Encode(&buf, ab, filepath.Ext(path)); err != nil {
		return fmt.Errorf("%s: %w", config.ErrBookSave, err)
	}

	tmp := path + config.ExtTmp
	if err := os.WriteFile(tmp, buf.Bytes(), config.FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", config.ErrBookSave, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%s: %w", config.ErrBookSave, err)
	}

	slog.Info(config.MsgBookSaved,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyFile, path,
		config.LogKeyCount, ab.Len(),
	)
	return nil
}

// Decode reads a book from r in the format implied by ext.
func Decode(r io.Reader, ext string) (*book.AddressBook, error) {
	switch strings.ToLower(ext) {
	case config.ExtVCF, config.ExtVCard:
		return DecodeVCards(r)
	default:
		return decodeJSON(r)
	}
}

// Encode writes the book to w in the format implied by ext.
func Encode(w io.Writer, ab *book.AddressBook, ext string) error {
	switch strings.ToLower(ext) {
	case config.ExtVCF, config.ExtVCard:
		return encodeVCards(w, ab)
	default:
		return encodeJSON(w, ab)
	}
}

// DecodeVCards parses a vCard stream into an address book. Malformed cards
// and unusable field values are skipped with a warning so one bad entry
// never loses the rest of the file. Exported because the import command
// feeds remote streams through it as well.
func DecodeVCards(r io.Reader) (*book.AddressBook, error) {
	log := slog.With(config.LogKeyComponent, config.CompStore)
	ab := book.NewAddressBook()
	dec := vcard.NewDecoder(r)

	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warn(config.MsgSkippedCard, config.LogKeyError, err)
			continue
		}

		fn := card.Get(config.VCardFN)
		if fn == nil {
			log.Warn(config.MsgSkippedCard, config.LogKeyError, book.ErrEmptyName)
			continue
		}

		rec, err := book.NewRecord(fn.Value)
		if err != nil {
			log.Warn(config.MsgSkippedCard, config.LogKeyError, err)
			continue
		}

		for _, tel := range card.Values(config.VCardTEL) {
			if err := rec.AddPhone(tel); err != nil {
				log.Warn(config.MsgSkippedCard,
					config.LogKeyName, fn.Value,
					config.LogKeyValue, tel,
					config.LogKeyError, err,
				)
			}
		}

		if bday := card.Get(config.VCardBDAY); bday != nil && bday.Value != "" {
			if t, ok := parseBDAY(bday.Value); ok {
				_ = rec.SetBirthday(book.BirthdayFromDate(t).String())
			} else {
				log.Debug(config.MsgSkippedDate,
					config.LogKeyName, fn.Value,
					config.LogKeyValue, bday.Value,
				)
			}
		}

		ab.AddRecord(rec)
	}

	return ab, nil
}

// encodeVCards writes one vCard 4.0 per record.
func encodeVCards(w io.Writer, ab *book.AddressBook) error {
	enc := vcard.NewEncoder(w)

	for _, rec := range ab.Records() {
		card := make(vcard.Card)
		card.SetValue(config.VCardFN, rec.Name().String())
		for _, p := range rec.Phones() {
			card.AddValue(config.VCardTEL, p.String())
		}
		if !rec.Birthday().IsZero() {
			card.SetValue(config.VCardBDAY, rec.Birthday().Date().Format(config.VCardBDAYLayout))
		}

		vcard.ToV4(card)
		if err := enc.Encode(card); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot converts the book into its serialized contact list,
// preserving insertion order.
func Snapshot(ab *book.AddressBook) []Contact {
	out := make([]Contact, 0, ab.Len())
	for _, rec := range ab.Records() {
		c := Contact{Name: rec.Name().String()}
		for _, p := range rec.Phones() {
			c.Phones = append(c.Phones, p.String())
		}
		if !rec.Birthday().IsZero() {
			c.Birthday = rec.Birthday().String()
		}
		out = append(out, c)
	}
	return out
}

// MarshalContacts renders the contact list as indented JSON,
// for the HTTP feed and the JSON snapshot file.
func MarshalContacts(ab *book.AddressBook) ([]byte, error) {
	return json.MarshalIndent(Snapshot(ab), "", "  ")
}

func encodeJSON(w io.Writer, ab *book.AddressBook) error {
	data, err := MarshalContacts(ab)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func decodeJSON(r io.Reader) (*book.AddressBook, error) {
	log := slog.With(config.LogKeyComponent, config.CompStore)

	var contacts []Contact
	if err := json.NewDecoder(r).Decode(&contacts); err != nil {
		// An empty snapshot file decodes to an empty book.
		if errors.Is(err, io.EOF) {
			return book.NewAddressBook(), nil
		}
		return nil, err
	}

	ab := book.NewAddressBook()
	for _, c := range contacts {
		rec, err := book.NewRecord(c.Name)
		if err != nil {
			log.Warn(config.MsgSkippedCard, config.LogKeyError, err)
			continue
		}
		for _, p := range c.Phones {
			if err := rec.AddPhone(p); err != nil {
				log.Warn(config.MsgSkippedCard,
					config.LogKeyName, c.Name,
					config.LogKeyValue, p,
					config.LogKeyError, err,
				)
			}
		}
		if c.Birthday != "" {
			if err := rec.SetBirthday(c.Birthday); err != nil {
				log.Debug(config.MsgSkippedDate,
					config.LogKeyName, c.Name,
					config.LogKeyValue, c.Birthday,
				)
			}
		}
		ab.AddRecord(rec)
	}
	return ab, nil
}

// parseBDAY accepts the layouts this tool writes plus the RFC 6350 dash form.
func parseBDAY(value string) (time.Time, bool) {
	for _, layout := range bdayLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
