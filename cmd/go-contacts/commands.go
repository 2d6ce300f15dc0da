package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-contacts/internal/book"
	"github.com/tartampluch/go-contacts/internal/calendar"
	"github.com/tartampluch/go-contacts/internal/config"
	"github.com/tartampluch/go-contacts/internal/repl"
	"github.com/tartampluch/go-contacts/internal/server"
	"github.com/tartampluch/go-contacts/internal/store"
)

// appFlags holds the persistent flag values shared by all subcommands.
type appFlags struct {
	debug bool
	book  string
	lang  string
}

// newRootCmd wires the command tree. The returned func exposes the log file
// opened during PersistentPreRun so main can close it on the way out.
func newRootCmd() (*cobra.Command, func() io.Closer) {
	flags := &appFlags{}
	var logCloser io.Closer

	root := &cobra.Command{
		Use:           "go-contacts",
		Short:         config.AppName + " — a contact book with birthday tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logCloser = setupLogging(flags.debug)
			logStartupInfo()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd, flags)
		},
	}

	root.PersistentFlags().BoolVar(&flags.debug, config.FlagDebug, false, config.FlagDescDebug)
	root.PersistentFlags().StringVar(&flags.book, config.FlagBook, "", config.FlagDescBook)
	root.PersistentFlags().StringVar(&flags.lang, config.FlagLang, "", config.FlagDescLang)

	root.AddCommand(newVersionCmd(), newExportCmd(flags), newServeCmd(flags))

	return root, func() io.Closer { return logCloser }
}

// loadEnvironment resolves settings (file, then flag overrides) and loads
// the address book.
func loadEnvironment(flags *appFlags) (config.Settings, *book.AddressBook, error) {
	settings := config.DefaultSettings()
	if path, err := config.SettingsPath(); err == nil {
		if loaded, err := config.LoadSettings(path); err == nil {
			settings = loaded
		} else {
			slog.Warn(config.ErrSettingsParse,
				config.LogKeyComponent, config.CompMain,
				config.LogKeyError, err,
			)
		}
	}

	if flags.book != "" {
		settings.BookPath = flags.book
	}
	if flags.lang != "" {
		settings.Language = flags.lang
	}

	ab, err := store.Load(settings.BookPath)
	if err != nil {
		return settings, nil, err
	}
	return settings, ab, nil
}

// runSession runs the interactive REPL and persists the book on exit.
func runSession(cmd *cobra.Command, flags *appFlags) error {
	settings, ab, err := loadEnvironment(flags)
	if err != nil {
		return err
	}

	session := repl.New(ab, cmd.InOrStdin(), cmd.OutOrStdout(), repl.Options{
		Localizer:  repl.NewLocalizer(settings.Language),
		WindowDays: settings.WindowDays,
	})

	if err := session.Run(cmd.Context()); err != nil {
		return err
	}

	return store.Save(settings.BookPath, ab)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show application version and exit",
		Run: func(*cobra.Command, []string) {
			printVersion()
		},
	}
}

// newGenerator builds the calendar generator with localized event titles.
func newGenerator(settings config.Settings) *calendar.Generator {
	loc := repl.NewLocalizer(settings.Language)
	return &calendar.Generator{
		Clock:           book.RealClock{},
		ReminderTrigger: settings.ReminderTrigger,
		FormatSummary:   loc.FormatSummary,
	}
}

func newExportCmd(flags *appFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the birthday calendar as an iCalendar file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, ab, err := loadEnvironment(flags)
			if err != nil {
				return err
			}

			ics, _, err := newGenerator(settings).Generate(ab)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(ics)
				return err
			}
			return os.WriteFile(output, ics, config.FilePermUserRW)
		},
	}

	cmd.Flags().StringVarP(&output, config.FlagOutput, "o", "", config.FlagDescOut)
	return cmd
}

func newServeCmd(flags *appFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the birthday calendar and contact list over localhost HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, ab, err := loadEnvironment(flags)
			if err != nil {
				return err
			}
			if port != "" {
				settings.ServerPort = port
			}

			ics, today, err := newGenerator(settings).Generate(ab)
			if err != nil {
				return err
			}

			contacts, err := store.MarshalContacts(ab)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %d contacts (%d birthdays today) on http://%s%s%s\n",
				ab.Len(), today,
				config.LocalhostBindAddr, config.AddrSeparator, settings.ServerPort)

			srv := server.NewFeedServer(settings.ServerPort)
			srv.UpdateCalendar(ics)
			srv.UpdateContacts(contacts)
			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&port, config.FlagPort, "p", "", config.FlagDescPort)
	return cmd
}
