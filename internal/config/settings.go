package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// EnvPrefix is the prefix of all environment variables read by LoadSettings.
const EnvPrefix = "RELIC_POSTS"

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ContentSettings locates the markdown collections.
type ContentSettings struct {
	Dir         string   `mapstructure:"dir"`
	DefaultLang string   `mapstructure:"default_lang"`
	Langs       []string `mapstructure:"langs"`
}

// OutputSettings locates the build output.
type OutputSettings struct {
	Dir     string `mapstructure:"dir"`
	WorkDir string `mapstructure:"work_dir"` // scratch space for Bleve indexes; empty means the OS temp dir
}

// SearchSettings configuration for loading and querying search artifacts
type SearchSettings struct {
	SourceURL    string        `mapstructure:"source_url"` // empty means read artifacts from the output dir
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	MaxResults   int           `mapstructure:"max_results"`
}

// RelatedSettings tunes related-post scoring.
type RelatedSettings struct {
	TagBoost     float64 `mapstructure:"tag_boost"`
	HalfLifeDays float64 `mapstructure:"half_life_days"`
	Limit        int     `mapstructure:"limit"`
}

// BuildSettings configuration for artifact builds
type BuildSettings struct {
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

// Settings application settings
type Settings struct {
	Transport string          `mapstructure:"transport"`
	Host      string          `mapstructure:"host"`
	Port      int             `mapstructure:"port"`
	Auth      AuthSettings    `mapstructure:"auth"`
	Content   ContentSettings `mapstructure:"content"`
	Output    OutputSettings  `mapstructure:"output"`
	Search    SearchSettings  `mapstructure:"search"`
	Related   RelatedSettings `mapstructure:"related"`
	Build     BuildSettings   `mapstructure:"build"`
}

// flagBindings maps setting keys to CLI flag names.
var flagBindings = map[string]string{
	"transport":              "transport",
	"host":                   "host",
	"port":                   "port",
	"auth.type":              "auth-type",
	"auth.basic.username":    "auth-basic-username",
	"auth.basic.password":    "auth-basic-password",
	"auth.api_keys":          "auth-api-keys",
	"content.dir":            "content-dir",
	"content.default_lang":   "default-lang",
	"content.langs":          "langs",
	"output.dir":             "output-dir",
	"output.work_dir":        "work-dir",
	"search.source_url":      "search-source-url",
	"search.fetch_timeout":   "search-fetch-timeout",
	"search.max_results":     "search-max-results",
	"related.tag_boost":      "related-tag-boost",
	"related.half_life_days": "related-half-life-days",
	"related.limit":          "related-limit",
	"build.lock_timeout":     "build-lock-timeout",
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("transport", "stdio")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("auth.type", AuthTypeNone)

	v.SetDefault("content.dir", "./content")
	v.SetDefault("content.default_lang", "en")
	v.SetDefault("content.langs", []string{"en"})
	v.SetDefault("output.dir", "./dist")
	v.SetDefault("output.work_dir", "")
	v.SetDefault("search.source_url", "")
	v.SetDefault("search.fetch_timeout", 30*time.Second)
	v.SetDefault("search.max_results", 10)
	v.SetDefault("related.tag_boost", 0.12)
	v.SetDefault("related.half_life_days", 180.0)
	v.SetDefault("related.limit", 3)
	v.SetDefault("build.lock_timeout", 60*time.Second)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Nested keys are bound explicitly so Unmarshal sees them
	for key := range flagBindings {
		_ = v.BindEnv(key, envName(key))
	}

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		for key, name := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	settings.Auth.APIKeys = splitList(settings.Auth.APIKeys, os.Getenv(envName("auth.api_keys")))
	settings.Content.Langs = splitList(settings.Content.Langs, os.Getenv(envName("content.langs")))
	for i := range settings.Content.Langs {
		settings.Content.Langs[i] = strings.ToLower(settings.Content.Langs[i])
	}
	settings.Content.DefaultLang = strings.ToLower(strings.TrimSpace(settings.Content.DefaultLang))

	settings.Content.Dir = expandHomeDir(settings.Content.Dir)
	settings.Output.Dir = expandHomeDir(settings.Output.Dir)
	settings.Output.WorkDir = expandHomeDir(settings.Output.WorkDir)
	settings.Search.SourceURL = strings.TrimRight(strings.TrimSpace(settings.Search.SourceURL), "/")

	return &settings, nil
}

// envName returns the environment variable bound to a setting key.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// splitList normalizes a list setting. Values that arrive from the
// environment as one comma-separated string are split; entries are trimmed
// and empty ones dropped.
func splitList(values []string, env string) []string {
	if env != "" {
		if len(values) == 0 || (len(values) == 1 && strings.Contains(values[0], ",")) {
			values = strings.Split(env, ",")
		}
	}

	var result []string
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s)
		}
	}
	return result
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// ValidateSettings checks for conflicting configurations.
// Returns an error if the settings contain mutually exclusive or incomplete auth config.
func ValidateSettings(s *Settings) error {
	// Validate transport type
	switch s.Transport {
	case "stdio", "sse":
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	if err := validateContentSettings(&s.Content); err != nil {
		return err
	}
	return validateQuerySettings(s)
}

func validateContentSettings(c *ContentSettings) error {
	if c.Dir == "" {
		return errors.New("content-dir cannot be empty")
	}
	if c.DefaultLang == "" {
		return errors.New("default-lang cannot be empty")
	}
	if len(c.Langs) == 0 {
		return errors.New("langs requires at least one language")
	}
	if !slices.Contains(c.Langs, c.DefaultLang) {
		return fmt.Errorf("default-lang %q must be one of langs %v", c.DefaultLang, c.Langs)
	}
	return nil
}

func validateQuerySettings(s *Settings) error {
	if s.Output.Dir == "" {
		return errors.New("output-dir cannot be empty")
	}
	if s.Search.FetchTimeout <= 0 {
		return errors.New("search-fetch-timeout must be positive")
	}
	if s.Search.MaxResults <= 0 {
		return errors.New("search-max-results must be positive")
	}
	if s.Related.TagBoost <= 0 {
		return errors.New("related-tag-boost must be positive")
	}
	if s.Related.HalfLifeDays <= 0 {
		return errors.New("related-half-life-days must be positive")
	}
	if s.Related.Limit <= 0 {
		return errors.New("related-limit must be positive")
	}
	if s.Build.LockTimeout <= 0 {
		return errors.New("build-lock-timeout must be positive")
	}
	return nil
}
