// Package config loads the bot configuration: a YAML file plus a small set
// of environment overrides for the values that usually live outside the
// file (token, database path, log level). The configuration is read once
// at startup and never mutated afterwards.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// TemplateField is one titled body inside a structured template.
type TemplateField struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Template is a configurable reply shape: either plain text or a
// structured title/description/fields document. Exactly one form should
// be populated; Text wins when both are.
type Template struct {
	Text        string          `yaml:"text,omitempty"`
	Title       string          `yaml:"title,omitempty"`
	Description string          `yaml:"description,omitempty"`
	Fields      []TemplateField `yaml:"fields,omitempty"`
}

// IsStructured reports whether the template declares a structured shape.
func (t Template) IsStructured() bool {
	return t.Text == "" && (t.Title != "" || t.Description != "" || len(t.Fields) > 0)
}

// Discord holds transport credentials and tuning.
type Discord struct {
	Token string `yaml:"token" env:"YOMIKO_DISCORD_TOKEN"`
}

// Config is the full bot configuration.
type Config struct {
	Prefix       string   `yaml:"prefix"`
	DeleteEmoji  string   `yaml:"delete_emoji"`
	OwnerID      string   `yaml:"owner_id"`
	EmbedsActive bool     `yaml:"embeds_active"`
	CharLimit    int      `yaml:"char_limit"`
	Timeout      Template `yaml:"timeout_notice"`
	Help         Template `yaml:"help"`
	RulesDir     string   `yaml:"rules_dir"`
	DBPath       string   `yaml:"db_path" env:"YOMIKO_DB_PATH"`
	StatusCron   string   `yaml:"status_cron"`
	LogLevel     string   `yaml:"log_level" env:"YOMIKO_LOG_LEVEL"`
	Discord      Discord  `yaml:"discord"`
}

// Load reads the YAML file at path, applies environment overrides, fills
// defaults and validates. Any failure aborts startup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{
		Prefix:       "!",
		DeleteEmoji:  "❌",
		EmbedsActive: true,
		CharLimit:    1800,
		RulesDir:     "rules",
		DBPath:       "yomiko.db",
		LogLevel:     "info",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord.token is required")
	}
	if c.Prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	if c.CharLimit < 1 {
		return fmt.Errorf("char_limit must be >= 1, got %d", c.CharLimit)
	}
	if c.DeleteEmoji == "" {
		return fmt.Errorf("delete_emoji must not be empty")
	}
	return nil
}
