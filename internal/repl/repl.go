// Package repl implements the line-oriented command dispatcher. It parses
// one command per line, applies it to the address book and prints the
// localized reply. All errors are recoverable: the loop only ends on
// close/exit, EOF or context cancellation.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tartampluch/go-contacts/internal/book"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/store"
)

// ErrMissingArgument reports fewer arguments than a command requires.
// Arity is checked here, before any handler runs, so handlers can index
// their arguments directly.
var ErrMissingArgument = errors.New(config.ErrArgMissing)

// command binds a handler to its minimum argument count.
type command struct {
	arity int
	run   func(ctx context.Context, args []string) string
}

// REPL drives one interactive session over an address book.
type REPL struct {
	book       *book.AddressBook
	clock      book.Clock
	loc        *Localizer
	fetcher    store.Fetcher
	windowDays int

	in  io.Reader
	out io.Writer

	commands map[string]command
}

// Options configures a REPL session. Zero fields get sensible defaults.
type Options struct {
	Clock      book.Clock
	Localizer  *Localizer
	Fetcher    store.Fetcher
	WindowDays int
}

// New creates a REPL bound to the given book and I/O streams.
func New(ab *book.AddressBook, in io.Reader, out io.Writer, opts Options) *REPL {
	if opts.Clock == nil {
		opts.Clock = book.RealClock{}
	}
	if opts.Localizer == nil {
		opts.Localizer = NewLocalizer(config.DefaultLanguage)
	}
	if opts.Fetcher == nil {
		opts.Fetcher = store.NewHTTPFetcher()
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = config.DefaultWindowDays
	}

	r := &REPL{
		book:       ab,
		clock:      opts.Clock,
		loc:        opts.Localizer,
		fetcher:    opts.Fetcher,
		windowDays: opts.WindowDays,
		in:         in,
		out:        out,
	}

	r.commands = map[string]command{
		config.CmdHello:        {arity: 0, run: r.hello},
		config.CmdAdd:          {arity: 2, run: r.addContact},
		config.CmdChange:       {arity: 3, run: r.changePhone},
		config.CmdPhone:        {arity: 1, run: r.showPhones},
		config.CmdAll:          {arity: 0, run: r.showAll},
		config.CmdAddBirthday:  {arity: 2, run: r.addBirthday},
		config.CmdShowBirthday: {arity: 1, run: r.showBirthday},
		config.CmdBirthdays:    {arity: 0, run: r.upcomingBirthdays},
		config.CmdDelete:       {arity: 1, run: r.deleteContact},
		config.CmdImport:       {arity: 1, run: r.importContacts},
		config.CmdHelp:         {arity: 0, run: r.help},
	}

	return r
}

// Run executes the session loop until close/exit, EOF or context
// cancellation. The caller remains responsible for persisting the book.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, r.loc.Msg(config.TKeyWelcome))

	scanner := bufio.NewScanner(r.in)
	for {
		if err := ctx.Err(); err != nil {
			slog.Info(config.MsgCtxCancel, config.LogKeyComponent, config.CompRepl)
			return nil
		}

		fmt.Fprint(r.out, config.Prompt)
		if !scanner.Scan() {
			// EOF behaves like exit so piped input terminates cleanly.
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		name, args := tokenize(scanner.Text())
		if name == "" {
			continue
		}

		if name == config.CmdClose || name == config.CmdExit {
			fmt.Fprintln(r.out, r.loc.Msg(config.TKeyGoodbye))
			return nil
		}

		fmt.Fprintln(r.out, r.Dispatch(ctx, name, args))
	}
}

// Dispatch runs a single named command and returns its display text.
// Unknown commands and arity failures become messages, never errors.
func (r *REPL) Dispatch(ctx context.Context, name string, args []string) string {
	cmd, ok := r.commands[name]
	if !ok {
		return r.loc.Msg(config.TKeyInvalidCmd)
	}

	slog.Debug(config.MsgCommandRun,
		config.LogKeyComponent, config.CompRepl,
		config.LogKeyCommand, name,
	)

	if len(args) < cmd.arity {
		return r.errorText(ErrMissingArgument)
	}
	return cmd.run(ctx, args)
}

// tokenize splits one input line into a command name and its arguments.
func tokenize(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// errorText maps a structured error to its localized display message.
func (r *REPL) errorText(err error) string {
	switch {
	case errors.Is(err, book.ErrEmptyName):
		return r.loc.Msg(config.TKeyErrEmptyName)
	case errors.Is(err, book.ErrInvalidPhone):
		return r.loc.Msg(config.TKeyErrInvalidPhone)
	case errors.Is(err, book.ErrInvalidDate):
		return r.loc.Msg(config.TKeyErrInvalidDate)
	case errors.Is(err, book.ErrPhoneNotFound):
		return r.loc.Msg(config.TKeyErrPhoneMissing)
	case errors.Is(err, ErrMissingArgument):
		return r.loc.Msg(config.TKeyMissingArg)
	default:
		return err.Error()
	}
}
