// Package calendar renders the address book's birthdays as an iCalendar feed.
package calendar

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/go-contacts/internal/book"
	"github.com/tartampluch/go-contacts/internal/config"
)

// Generator builds the iCalendar feed from an address book.
type Generator struct {
	Clock book.Clock

	// ReminderTrigger is an optional ISO8601 duration ("-P1D") attached as a
	// DISPLAY alarm to every event. Empty disables alarms.
	ReminderTrigger string

	// FormatSummary lets the caller inject localized event titles.
	FormatSummary func(name string, age int) string
}

// Generate converts the book into ICS bytes and reports how many contacts
// have their birthday today.
func (g *Generator) Generate(ab *book.AddressBook) ([]byte, int, error) {
	start := time.Now()
	log := slog.With(config.LogKeyComponent, config.CompCalendar)

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986: suggest a refresh interval to subscribing clients.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	// Birthdays are local calendar dates; only the DTSTAMP is in UTC.
	now := g.Clock.Now()
	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	stats := struct{ withBday, today int }{}

	for _, rec := range ab.Records() {
		if rec.Birthday().IsZero() {
			continue
		}
		stats.withBday++

		events, isToday := g.createEvents(rec, now)
		if isToday {
			stats.today++
			log.Info(config.MsgBdayToday,
				config.LogKeyName, rec.Name().String(),
				config.LogKeyDOB, rec.Birthday().String(),
			)
		}

		for _, e := range events {
			e.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, e.Component)
		}
	}

	// An empty VCALENDAR still has to be syntactically valid, otherwise
	// clients flag the whole feed as broken.
	if len(cal.Children) == 0 {
		g.logSuccess(stats, ab.Len())
		return []byte(config.StubVCalendar), 0, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	g.logSuccess(stats, ab.Len())
	log.Debug("Generation finished", config.LogKeyDuration, time.Since(start).Milliseconds())
	return buf.Bytes(), stats.today, nil
}

func (g *Generator) logSuccess(stats struct{ withBday, today int }, total int) {
	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompCalendar,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, total),
			slog.Int(config.LogKeyFound, stats.withBday),
			slog.Int(config.LogKeyToday, stats.today),
		),
	)
}

// createEvents generates one event per year for CurrentYear-1, CurrentYear
// and CurrentYear+1, so calendar clients scrolling back or forward see the
// birthday without an immediate re-sync. Years before the birth are skipped.
func (g *Generator) createEvents(rec *book.Record, now time.Time) ([]*ical.Event, bool) {
	name := rec.Name().String()
	birthDate := rec.Birthday().Date()
	uidBase := eventUID(name, birthDate)

	currentYear := now.Year()
	targetYears := []int{currentYear - 1, currentYear, currentYear + 1}
	loc := now.Location()

	var events []*ical.Event
	isToday := false

	todayYear, todayMonth, todayDay := now.Date()

	for _, y := range targetYears {
		if y < birthDate.Year() {
			continue
		}

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, uidBase, y, config.ICalDomain))

		age := y - birthDate.Year()
		summary := fmt.Sprintf(config.FallbackSummary, name)
		if g.FormatSummary != nil {
			summary = g.FormatSummary(name, age)
		}
		event.Props.SetText(config.PropSummary, summary)

		// time.Date normalizes Feb 29 to Mar 1 in non-leap years.
		eventDate := time.Date(y, birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, loc)

		if y == todayYear && eventDate.Month() == todayMonth && eventDate.Day() == todayDay {
			isToday = true
		}

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(eventDate)
		event.Props.Set(dtStartProp)

		if g.ReminderTrigger != "" {
			addAlarm(event, g.ReminderTrigger, summary)
		}

		events = append(events, event)
	}
	return events, isToday
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set trigger manually to avoid the "VALUE=TEXT" param SetText would add.
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

// eventUID derives a deterministic UID so refreshes never duplicate events
// in subscribing clients.
func eventUID(name string, birthDate time.Time) string {
	input := fmt.Sprintf(config.FormatHashInput, name, birthDate.Format(time.RFC3339), config.UIDSalt)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%x", hash[:config.UIDHashLength])
}
