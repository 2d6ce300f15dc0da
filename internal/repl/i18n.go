package repl

import (
	"embed"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-contacts/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// Localizer translates message keys into the configured UI language.
// Missing keys fall back to the key itself so the REPL stays usable even
// with a broken locale file.
type Localizer struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
}

// NewLocalizer loads the embedded locale files and selects lang.
func NewLocalizer(lang string) *Localizer {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return &Localizer{bundle: bundle, localizer: i18n.NewLocalizer(bundle, lang)}
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
		} else {
			slog.Debug(config.MsgLocaleLoaded,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyLang, langCode,
				config.LogKeyFile, name,
			)
		}
	}

	if lang == "" {
		lang = config.DefaultLanguage
	}

	return &Localizer{
		bundle:    bundle,
		localizer: i18n.NewLocalizer(bundle, lang, config.DefaultLanguage),
	}
}

// Msg translates a plain message key.
func (l *Localizer) Msg(key string) string {
	return l.MsgData(key, nil)
}

// MsgData translates a message key with template data.
func (l *Localizer) MsgData(key string, data map[string]any) string {
	msg, err := l.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}

// FormatSummary builds a localized calendar event title for a contact
// turning age. Age zero means the year of birth itself.
func (l *Localizer) FormatSummary(name string, age int) string {
	if age == 0 {
		return l.MsgData(config.TKeyEvtSummaryBirth, map[string]any{"Name": name})
	}
	return l.MsgData(config.TKeyEvtSummaryAge, map[string]any{"Name": name, "Age": age})
}
