// Package config loads saveplus settings from an optional YAML file and
// SAVEPLUS_* environment variables, then checks them against an embedded
// CUE schema.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/roach88/saveplus/internal/naming"
)

//go:embed schema.cue
var schemaSource string

// EnvPrefix is prepended to every environment override, e.g.
// SAVEPLUS_HISTORY_PATH or SAVEPLUS_NAMING_MAX_ATTEMPTS.
const EnvPrefix = "saveplus"

// DefaultHistoryPath is where the event database lives when nothing else
// is configured.
const DefaultHistoryPath = "saveplus_history.db"

// Lineage scopes.
const (
	ScopeName      = "name"
	ScopeDirectory = "directory"
)

// Config is the full saveplus configuration.
type Config struct {
	History HistoryConfig `mapstructure:"history" json:"history"`
	Naming  NamingConfig  `mapstructure:"naming" json:"naming"`
	Lineage LineageConfig `mapstructure:"lineage" json:"lineage"`
	Log     LogConfig     `mapstructure:"log" json:"log"`
}

// HistoryConfig locates the event database.
type HistoryConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

// NamingConfig mirrors naming.Options.
type NamingConfig struct {
	CaseInsensitive   bool   `mapstructure:"case_insensitive" json:"case_insensitive"`
	MaxAttempts       int    `mapstructure:"max_attempts" json:"max_attempts"`
	InitialToken      string `mapstructure:"initial_token" json:"initial_token"`
	DefaultExtension  string `mapstructure:"default_extension" json:"default_extension"`
	AppendWhenMissing bool   `mapstructure:"append_when_missing" json:"append_when_missing"`
}

// LineageConfig controls how saves are grouped into lineages.
type LineageConfig struct {
	// Scope is "name" (lineage key only) or "directory" (key prefixed with
	// the file's directory, so same-named files in different folders do
	// not share a history).
	Scope string `mapstructure:"scope" json:"scope"`
}

// LogConfig sets the slog level and handler format.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`
	Format string `mapstructure:"format" json:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: HistoryConfig{Path: DefaultHistoryPath},
		Naming: NamingConfig{
			MaxAttempts:       naming.DefaultMaxAttempts,
			InitialToken:      naming.DefaultInitialToken,
			AppendWhenMissing: true,
		},
		Lineage: LineageConfig{Scope: ScopeName},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration. An empty path skips the file and uses defaults
// plus environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// never appear in the file.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("naming.case_insensitive", d.Naming.CaseInsensitive)
	v.SetDefault("naming.max_attempts", d.Naming.MaxAttempts)
	v.SetDefault("naming.initial_token", d.Naming.InitialToken)
	v.SetDefault("naming.default_extension", d.Naming.DefaultExtension)
	v.SetDefault("naming.append_when_missing", d.Naming.AppendWhenMissing)
	v.SetDefault("lineage.scope", d.Lineage.Scope)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks c against the embedded #Config schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	unified := def.Unify(ctx.Encode(c))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NamingOptions converts the naming section for naming.New.
func (c Config) NamingOptions() naming.Options {
	return naming.Options{
		CaseInsensitive:   c.Naming.CaseInsensitive,
		MaxAttempts:       c.Naming.MaxAttempts,
		InitialToken:      c.Naming.InitialToken,
		DefaultExtension:  c.Naming.DefaultExtension,
		AppendWhenMissing: c.Naming.AppendWhenMissing,
	}
}

// SlogLevel maps log.level to a slog level. Unknown values map to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
