package internal

import (
	"fmt"
	"log/slog"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notesplit/internal/refactor"
	"github.com/starford/notesplit/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Refactor RefactorConfig    `yaml:"refactor"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Refactor.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig describes the Markdown vault.
//
// NotesFolder is the vault-relative folder new notes are written to; empty
// means the vault root. Ignore holds doublestar patterns excluded from
// listing, indexing and link resolution.
type VaultConfig struct {
	Path        string   `yaml:"path"`
	NotesFolder string   `yaml:"notes_folder"`
	LinkStyle   string   `yaml:"link_style"`
	Ignore      []string `yaml:"ignore"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if c.LinkStyle == "" {
		c.LinkStyle = storage.LinkStyleWikilink
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.LinkStyle, validation.In(storage.LinkStyleWikilink, storage.LinkStyleMarkdown)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

var headingFormatRe = regexp.MustCompile(`^#{1,6}$`)

// RefactorConfig holds the note refactor settings.
type RefactorConfig struct {
	TranscludeByDefault           bool   `yaml:"transclude_by_default"`
	NoteLinkTemplate              string `yaml:"note_link_template"`
	NewNoteTemplate               string `yaml:"new_note_template"`
	FileNamePrefix                string `yaml:"file_name_prefix"`
	IncludeFirstLineAsNoteHeading bool   `yaml:"include_first_line_as_note_heading"`
	HeadingFormat                 string `yaml:"heading_format"`
	ExcludeFirstLineInNote        bool   `yaml:"exclude_first_line_in_note"`
	NormalizeHeaderLevels         bool   `yaml:"normalize_header_levels"`
}

// Validate validates the refactor configuration.
func (c *RefactorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HeadingFormat, validation.Match(headingFormatRe).Error("must be 1 to 6 '#' characters")),
	)
}

// Settings converts the configuration into engine settings.
func (c *RefactorConfig) Settings() refactor.Settings {
	return refactor.Settings{
		TranscludeByDefault:           c.TranscludeByDefault,
		NoteLinkTemplate:              c.NoteLinkTemplate,
		NewNoteTemplate:               c.NewNoteTemplate,
		FileNamePrefix:                c.FileNamePrefix,
		IncludeFirstLineAsNoteHeading: c.IncludeFirstLineAsNoteHeading,
		HeadingFormat:                 c.HeadingFormat,
		ExcludeFirstLineInNote:        c.ExcludeFirstLineInNote,
		NormalizeHeaderLevels:         c.NormalizeHeaderLevels,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:      "./vault",
			LinkStyle: storage.LinkStyleWikilink,
		},
		SQLite: SQLiteConfig{
			Path: "./notesplit.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Refactor: RefactorConfig{
			NoteLinkTemplate: "{{new_note_link}}",
			HeadingFormat:    "#",
		},
	}
}
