package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/prompt"
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
	Journal  JournalConfig     `yaml:"journal"`
	Analysis AnalysisConfig    `yaml:"analysis"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate checks every section and reports the first failure.
func (c *Config) Validate() error {
	sections := []interface{ Validate() error }{
		&c.App, &c.Vault, &c.Journal, &c.Analysis, &c.SQLite, &c.Auth,
	}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the listen address for the HTTP server.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// JournalConfig locates journal files inside the vault and sizes the default
// analysis window.
type JournalConfig struct {
	Folder        string `yaml:"folder"`
	MetaFolder    string `yaml:"meta_folder"`
	DaysToAnalyze int    `yaml:"days_to_analyze"`
}

func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Folder, validation.Required),
		validation.Field(&c.MetaFolder, validation.Required),
		validation.Field(&c.DaysToAnalyze, validation.Required, validation.Min(1)),
	)
}

// AnalysisConfig holds the external tool invocation and connection-suggestion
// settings.
type AnalysisConfig struct {
	ToolPath        string   `yaml:"tool_path"`
	MinConfidence   int      `yaml:"min_confidence"`
	ConnectionTypes []string `yaml:"connection_types"`
	MaxCandidates   int      `yaml:"max_candidates"`
	PreviewChars    int      `yaml:"preview_chars"`
}

// Validate rejects out-of-range settings. MaxCandidates may lower the
// built-in candidate cap but never raise it.
func (c *AnalysisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ToolPath, validation.Required),
		validation.Field(&c.MinConfidence, validation.Min(0), validation.Max(100)),
		validation.Field(&c.ConnectionTypes, validation.Required, validation.Length(1, 0)),
		validation.Field(&c.MaxCandidates, validation.Required, validation.Min(1), validation.Max(prompt.MaxCandidates)),
		validation.Field(&c.PreviewChars, validation.Required, validation.Min(1)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig controls API authentication.
//
// Mode selects the scheme:
//   - "disabled" (default): everything open, for local single-user setups.
//   - "token": Bearer token auth; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

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

// NewDefaultConfig returns a Config preloaded with local-first defaults:
// a ./vault vault, a journal/ folder inside it, and the claude CLI as the
// analysis tool.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		Journal: JournalConfig{
			Folder:        "journal",
			MetaFolder:    "journal/meta",
			DaysToAnalyze: 30,
		},
		Analysis: AnalysisConfig{
			ToolPath:        "claude",
			MinConfidence:   70,
			ConnectionTypes: []string{"thematic", "temporal", "entity"},
			MaxCandidates:   prompt.MaxCandidates,
			PreviewChars:    prompt.PreviewChars,
		},
		SQLite: SQLiteConfig{
			Path: "./journal-index.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
