package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client when importing remote vCard files.
var UserAgent = "Go-Contacts/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Contacts"
	AppID             = "com.github.tartampluch.go-contacts"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	SettingsFileName  = "settings.yaml"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for the address book, the settings file and logs.
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	// Used for creating the config and cache directories.
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagDebug     = "debug"
	FlagBook      = "book"
	FlagLang      = "lang"
	FlagPort      = "port"
	FlagOutput    = "output"
	FlagDescDebug = "Enable debug logging"
	FlagDescBook  = "Path to the address book file (.vcf or .json)"
	FlagDescLang  = "UI language (ISO 639-1 code)"
	FlagDescPort  = "Port for the local calendar feed server"
	FlagDescOut   = "Destination file for the iCalendar export"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	// BirthdayLayout is the canonical display and input format for birthdays.
	BirthdayLayout = "02.01.2006"

	// PhoneDigits is the exact number of decimal digits a phone number must have.
	PhoneDigits = 10

	// DefaultWindowDays is the span of the upcoming-birthdays query.
	// The window is inclusive on both ends: [today, today+7d] covers 8 calendar days.
	DefaultWindowDays = 7

	DefaultBookFile = "addressbook.vcf"
	DefaultPort     = "18080"
	DefaultLanguage = "en"

	PhoneListSeparator = "; "
	BirthdayNotSet     = "Not set"

	UIDSalt = "go-contacts-v1-" // Salt for deterministic calendar UID generation
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// REPL Commands
// -----------------------------------------------------------------------------

const (
	CmdHello        = "hello"
	CmdAdd          = "add"
	CmdChange       = "change"
	CmdPhone        = "phone"
	CmdAll          = "all"
	CmdAddBirthday  = "add-birthday"
	CmdShowBirthday = "show-birthday"
	CmdBirthdays    = "birthdays"
	CmdDelete       = "delete"
	CmdImport       = "import"
	CmdHelp         = "help"
	CmdClose        = "close"
	CmdExit         = "exit"

	Prompt = "Enter a command: "
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyGreeting       = "msg_greeting"
	TKeyWelcome        = "msg_welcome"
	TKeyGoodbye        = "msg_goodbye"
	TKeyContactAdded   = "msg_contact_added"
	TKeyContactUpdated = "msg_contact_updated"
	TKeyContactDeleted = "msg_contact_deleted"
	TKeyContactMissing = "msg_contact_not_found"
	TKeyPhoneChanged   = "msg_phone_changed"
	TKeyPhoneList      = "msg_phone_list"
	TKeyBdayAdded      = "msg_birthday_added"
	TKeyBdayShow       = "msg_birthday_show"
	TKeyBdayUnset      = "msg_birthday_unset"
	TKeyBdayNone       = "msg_no_upcoming"
	TKeyBookEmpty      = "msg_book_empty"
	TKeyImported       = "msg_imported"
	TKeyInvalidCmd     = "msg_invalid_command"
	TKeyMissingArg     = "msg_missing_argument"
	TKeyHelp           = "msg_help"

	TKeyErrEmptyName    = "err_empty_name"
	TKeyErrInvalidPhone = "err_invalid_phone"
	TKeyErrInvalidDate  = "err_invalid_date"
	TKeyErrPhoneMissing = "err_phone_not_found"
	TKeyErrImport       = "err_import_failed"

	TKeyEvtSummary      = "event_summary"
	TKeyEvtSummaryAge   = "event_summary_age"
	TKeyEvtSummaryBirth = "event_summary_birth"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar & vCard
// -----------------------------------------------------------------------------

const (
	// iCal Properties
	ICalVersion   = "2.0"
	ICalProdid    = "-//Go Contacts//Calendar//EN"
	ICalCalName   = "Birthdays"
	ICalMethod    = "PUBLISH"
	ICalScale     = "GREGORIAN"
	ICalComponent = "VALARM"
	ICalAction    = "DISPLAY"
	ICalDomain    = "gocontacts"

	// iCal/vCard Fields
	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropAction      = "ACTION"
	PropDescription = "DESCRIPTION"
	PropTrigger     = "TRIGGER"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	VCardBDAY = "BDAY"
	VCardFN   = "FN"
	VCardTEL  = "TEL"

	// VCardBDAYLayout is the BDAY serialization format (RFC 6350 full date).
	VCardBDAYLayout = "20060102"

	// StubVCalendar is the minimal valid iCalendar object used when no events exist.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	DefaultICalRefresh = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats, Limits & File Extensions
// -----------------------------------------------------------------------------

const (
	// UID Generation
	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s-%d@%s"

	// File Extensions
	ExtVCF   = ".vcf"
	ExtVCard = ".vcard"
	ExtJSON  = ".json"
	ExtICS   = ".ics"
	ExtTmp   = ".tmp"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 64 * 1024 * 1024 // 64MB is generous for any vCard export
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteCalendar       = "/calendar.ics"
	RouteContacts       = "/contacts.json"
	AddrSeparator       = ":"

	MinPort = 1
	MaxPort = 65535
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json; charset=utf-8"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrNameEmpty      = "name cannot be empty"
	ErrPhoneInvalid   = "invalid phone number, must be 10 digits"
	ErrDateInvalid    = "invalid date format, use DD.MM.YYYY"
	ErrRecordMissing  = "contact not found"
	ErrPhoneMissing   = "phone number not found"
	ErrArgMissing     = "missing argument"
	ErrUnknownFormat  = "unsupported address book format"
	ErrBookSave       = "failed to save address book"
	ErrBookLoad       = "failed to load address book"
	ErrServerStartup  = "server startup failed"
	ErrServerShutdown = "server shutdown failed"
	ErrPortRequired   = "server port is required"
	ErrPortRange      = "server port must be between 1 and 65535"
	ErrInvalidURL     = "invalid URL structure"
	ErrProtocol       = "unsupported protocol scheme (http/https only)"
	ErrVCardDecode    = "failed to decode vCard stream"
	ErrICalEncode     = "failed to encode iCalendar data"
	ErrLogFile        = "failed to open log file"
	ErrCacheDir       = "could not determine user cache dir"
	ErrConfigDir      = "could not determine user config dir"
	ErrCreateDir      = "could not create app dir"
	ErrAppFailed      = "application failed unexpectedly"
	ErrWriteResp      = "failed to write response body"
	ErrLocalesAccess  = "failed to access embedded locales"
	ErrLocaleLoad     = "failed to load locale file"
	ErrSettingsParse  = "failed to parse settings file"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Feed initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgNotFound     = "Not Found"
)

// -----------------------------------------------------------------------------
// Fallbacks & Log Messages
// -----------------------------------------------------------------------------

const (
	FallbackSummary = "Birthday: %s"

	MsgAppStarting   = "Starting application"
	MsgAppStop       = "Application stopped gracefully"
	MsgCtxCancel     = "Context cancelled, shutting down"
	MsgBookLoaded    = "Address book loaded"
	MsgBookSaved     = "Address book saved"
	MsgBookFresh     = "No address book found, starting empty"
	MsgSettingsFresh = "No settings file found, using defaults"
	MsgSkippedCard   = "Skipping malformed vCard"
	MsgSkippedDate   = "Skipping invalid birthday value"
	MsgGenSuccess    = "Calendar generation successful"
	MsgServerListen  = "HTTP server listening"
	MsgServerStop    = "Shutting down HTTP server..."
	MsgCacheUpdated  = "Feed cache updated"
	MsgLocaleSkip    = "Skipping non-locale file"
	MsgLocaleBadName = "Skipping malformed locale filename"
	MsgLocaleLoaded  = "Locale loaded successfully"
	MsgTransMissing  = "Missing translation key"
	MsgImportStart   = "Import started"
	MsgImportDone    = "Import finished"
	MsgCommandRun    = "Command dispatched"
	MsgBdayToday     = "Birthday found today"
	MsgLogWarning    = "Warning: %s at %s: %v\n"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeyCommand   = "command"
	LogKeyCount     = "count"
	LogKeyName      = "name"
	LogKeyDOB       = "date_of_birth"
	LogKeyValue     = "value"
	LogKeyStats     = "stats"
	LogKeyTotal     = "total_cards"
	LogKeyFound     = "birthdays_found"
	LogKeyToday     = "birthdays_today"
	LogKeySizeBytes = "size_bytes"
	LogKeyETag      = "etag"
	LogKeyDuration  = "duration_ms"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompBook     = "book"
	CompStore    = "store"
	CompCalendar = "calendar"
	CompServer   = "server"
	CompRepl     = "repl"
	CompI18n     = "i18n"
	CompMain     = "main"
)
