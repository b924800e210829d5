package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lifedash/internal/models"
	"github.com/starford/lifedash/internal/pipeline"
	"github.com/starford/lifedash/internal/vault"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Vault sources.
const (
	VaultSourceFS     = "fs"
	VaultSourceGitHub = "github"
)

var (
	repoPattern  = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Vault     VaultConfig       `yaml:"vault"`
	GitHub    GitHubConfig      `yaml:"github"`
	LLM       LLMConfig         `yaml:"llm"`
	Pipeline  PipelineConfig    `yaml:"pipeline"`
	Search    SearchConfig      `yaml:"search"`
	Seed      SeedConfig        `yaml:"seed"`
	Quadrants []QuadrantConfig  `yaml:"quadrants"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.SQLite.Validate(); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	for i := range c.Quadrants {
		if err := c.Quadrants[i].Validate(); err != nil {
			return fmt.Errorf("quadrants[%d]: %w", i, err)
		}
	}
	return nil
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
// Mode controls how the API token is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// CronSecret is checked independently of Mode, and only on GET /api/process.
// When it is empty the scheduled trigger is refused.
type AuthConfig struct {
	Mode       string `yaml:"mode"`
	Token      string `yaml:"token"`
	CronSecret string `yaml:"cron_secret"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
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

// VaultConfig selects where notes are read from.
type VaultConfig struct {
	Source   string `yaml:"source"`
	Path     string `yaml:"path"`
	Repo     string `yaml:"repo"`
	Branch   string `yaml:"branch"`
	MaxFiles int    `yaml:"max_files"`
	Watch    bool   `yaml:"watch"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	if c.Source == "" {
		c.Source = VaultSourceFS
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.In(VaultSourceFS, VaultSourceGitHub)),
		validation.Field(&c.Path, validation.When(c.Source == VaultSourceFS, validation.Required)),
		validation.Field(&c.Repo,
			validation.When(c.Source == VaultSourceGitHub, validation.Required),
			validation.Match(repoPattern).Error("must be owner/name"),
		),
		validation.Field(&c.MaxFiles, validation.Min(0)),
		validation.Field(&c.Watch, validation.When(c.Source == VaultSourceGitHub,
			validation.Empty.Error("is only supported for the fs source"))),
	)
}

// GitHubConfig holds the account whose activity is summarized. The token,
// when set, is also used to read a GitHub-hosted vault.
type GitHubConfig struct {
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
	APIURL   string `yaml:"api_url"`
}

// LLMConfig configures the analysis API. An empty key leaves refresh
// unconfigured; the rest of the service still runs.
type LLMConfig struct {
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	APIURL    string        `yaml:"api_url"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Validate validates the LLM configuration.
func (c *LLMConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxTokens, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// PipelineConfig tunes refresh cycles.
type PipelineConfig struct {
	LookbackDays int           `yaml:"lookback_days"`
	RunTimeout   time.Duration `yaml:"run_timeout"`
	LeaseTTL     time.Duration `yaml:"lease_ttl"`
}

// Validate validates the pipeline configuration.
func (c *PipelineConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LookbackDays, validation.Min(0), validation.Max(365)),
		validation.Field(&c.RunTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.LeaseTTL, validation.Min(time.Duration(0))),
	)
}

// Lookback returns the note and activity window.
func (c *PipelineConfig) Lookback() time.Duration {
	if c.LookbackDays <= 0 {
		return pipeline.DefaultLookback
	}
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// SearchConfig holds the full-text index location. An empty path keeps the
// index in memory and rebuilds it on every start.
type SearchConfig struct {
	Path string `yaml:"path"`
}

// SeedConfig holds the directory the seed command reads.
type SeedConfig struct {
	Dir string `yaml:"dir"`
}

// QuadrantConfig overrides the display name or color of one quadrant.
type QuadrantConfig struct {
	Category models.Category `yaml:"category"`
	Name     string          `yaml:"name"`
	Color    string          `yaml:"color"`
}

// Validate validates the quadrant override.
func (c *QuadrantConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Category, validation.Required, validation.In(categoryValues()...)),
		validation.Field(&c.Color, validation.Match(colorPattern)),
	)
}

func categoryValues() []any {
	out := make([]any, len(models.Categories))
	for i, c := range models.Categories {
		out[i] = c
	}
	return out
}

// QuadrantDefs returns the default quadrant definitions with the configured
// overrides applied.
func (c *Config) QuadrantDefs() []models.QuadrantDef {
	defs := make([]models.QuadrantDef, len(models.DefaultQuadrants))
	copy(defs, models.DefaultQuadrants)
	for _, o := range c.Quadrants {
		for i := range defs {
			if defs[i].Category != o.Category {
				continue
			}
			if o.Name != "" {
				defs[i].Name = o.Name
			}
			if o.Color != "" {
				defs[i].Color = o.Color
			}
		}
	}
	return defs
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
		SQLite: SQLiteConfig{
			Path: "./lifedash.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Vault: VaultConfig{
			Source:   VaultSourceFS,
			Path:     "./vault",
			Branch:   "main",
			MaxFiles: vault.DefaultMaxFiles,
		},
		Pipeline: PipelineConfig{
			LookbackDays: 14,
			RunTimeout:   pipeline.DefaultRunTimeout,
			LeaseTTL:     pipeline.DefaultLeaseTTL,
		},
		Seed: SeedConfig{
			Dir: "./data",
		},
	}
}
