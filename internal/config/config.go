// Package config provides Viper-based configuration loading for the adventure engine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for the campaign store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig points the engine at its game content on disk.
type ContentConfig struct {
	// CompendiumDir is the root directory of the JSON compendium.
	CompendiumDir string `mapstructure:"compendium_dir"`
	// ConditionsDir holds YAML condition definitions layered over the builtins.
	ConditionsDir string `mapstructure:"conditions_dir"`
	// VocabularyFile optionally extends the built-in Spanish vocabulary.
	VocabularyFile string `mapstructure:"vocabulary_file"`
}

// RulesConfig holds rule interpretation toggles.
type RulesConfig struct {
	// StrictEquipment rejects attacks with weapons that are carried but not
	// equipped instead of allowing them.
	StrictEquipment bool `mapstructure:"strict_equipment"`
}

// LLMConfig holds settings for the language model used for narration and as
// a normalization fallback. The API key is read from the environment by the
// client library, never from configuration files.
type LLMConfig struct {
	// Enabled turns the language model integration on. When false the engine
	// runs fully offline with deterministic narration.
	Enabled bool `mapstructure:"enabled"`
	// Model is the model identifier passed to the API.
	Model string `mapstructure:"model"`
	// MaxTokens bounds the length of a single completion.
	MaxTokens int `mapstructure:"max_tokens"`
	// Timeout is the per-call deadline.
	Timeout time.Duration `mapstructure:"timeout"`
	// NormalizerFallback consults the model for player input the local
	// normalizer cannot resolve.
	NormalizerFallback bool `mapstructure:"normalizer_fallback"`
}

// ScriptingConfig holds Lua house-rule script settings.
type ScriptingConfig struct {
	// Enabled turns house-rule script loading on.
	Enabled bool `mapstructure:"enabled"`
	// ScriptsDir is the directory scanned for .lua files.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// InstructionLimit bounds the Lua instructions a single hook call may
	// execute before being aborted.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// SessionConfig holds play session behavior settings.
type SessionConfig struct {
	// Autosave persists the campaign after every completed turn.
	Autosave bool `mapstructure:"autosave"`
	// NarrationStyle selects the narration voice: "epico", "casual", or
	// "minimalista".
	NarrationStyle string `mapstructure:"narration_style"`
	// HistoryLimit caps the number of recent events handed to the narrator
	// as context.
	HistoryLimit int `mapstructure:"history_limit"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Content   ContentConfig   `mapstructure:"content"`
	Rules     RulesConfig     `mapstructure:"rules"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Session   SessionConfig   `mapstructure:"session"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLLM(c.LLM); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSession(c.Session); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.CompendiumDir == "" {
		errs = append(errs, "content.compendium_dir must not be empty")
	}
	if c.ConditionsDir == "" {
		errs = append(errs, "content.conditions_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLLM(l LLMConfig) error {
	if !l.Enabled {
		return nil
	}
	var errs []string
	if l.Model == "" {
		errs = append(errs, "llm.model must not be empty when llm.enabled is true")
	}
	if l.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("llm.max_tokens must be >= 1, got %d", l.MaxTokens))
	}
	if l.Timeout <= 0 {
		errs = append(errs, "llm.timeout must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if !s.Enabled {
		return nil
	}
	var errs []string
	if s.ScriptsDir == "" {
		errs = append(errs, "scripting.scripts_dir must not be empty when scripting.enabled is true")
	}
	if s.InstructionLimit < 1 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 1, got %d", s.InstructionLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSession(s SessionConfig) error {
	var errs []string
	validStyles := map[string]bool{"epico": true, "casual": true, "minimalista": true}
	if !validStyles[s.NarrationStyle] {
		errs = append(errs, fmt.Sprintf("session.narration_style must be one of [epico, casual, minimalista], got %q", s.NarrationStyle))
	}
	if s.HistoryLimit < 0 {
		errs = append(errs, fmt.Sprintf("session.history_limit must be >= 0, got %d", s.HistoryLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MAZMORRA_ prefix
	v.SetEnvPrefix("MAZMORRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
//
// Postcondition: the returned Config passes Validate.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic("config: default configuration failed to unmarshal: " + err.Error())
	}
	return cfg
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mazmorra")
	v.SetDefault("database.password", "mazmorra")
	v.SetDefault("database.name", "mazmorra")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("content.compendium_dir", "content/compendio")
	v.SetDefault("content.conditions_dir", "content/condiciones")
	v.SetDefault("content.vocabulary_file", "")

	v.SetDefault("rules.strict_equipment", false)

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.model", "claude-sonnet-4-0")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.normalizer_fallback", true)

	v.SetDefault("scripting.enabled", false)
	v.SetDefault("scripting.scripts_dir", "content/scripts")
	v.SetDefault("scripting.instruction_limit", 100000)

	v.SetDefault("session.autosave", true)
	v.SetDefault("session.narration_style", "casual")
	v.SetDefault("session.history_limit", 30)
}
