// Package config loads the settings of immerse and the persisted deck
// mappings. Sources are applied in order: built-in defaults, the YAML
// config file, IMMERSE_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/immerse/internal/domain"
	"github.com/conorfennell/immerse/internal/storage"
)

const envPrefix = "IMMERSE_"

// KanjiVG locates the stroke-order data.
type KanjiVG struct {
	URL string `koanf:"url" validate:"required,url"`
	Dir string `koanf:"dir" validate:"required"`
}

// Config is the resolved configuration.
type Config struct {
	DB          string               `koanf:"db" validate:"required"`
	Endpoint    string               `koanf:"endpoint" validate:"required,url"`
	Version     int                  `koanf:"version" validate:"min=1"`
	Fanout      int                  `koanf:"fanout" validate:"min=1,max=64"`
	Limit       int                  `koanf:"limit" validate:"min=0"`
	Retention   float64              `koanf:"retention" validate:"gt=0,lt=1"`
	MaxInterval float64              `koanf:"maxinterval" validate:"gt=0"`
	KanjiVG     KanjiVG              `koanf:"kanjivg"`
	Decks       []domain.DeckMapping `koanf:"decks" validate:"unique=Name,dive"`

	path string
	// file holds only what was read from path. Save writes it back.
	file *koanf.Koanf
}

// Flag names bound to config keys. Other flags of the set are ignored.
var flagKeys = map[string]string{
	"db":           "db",
	"endpoint":     "endpoint",
	"anki-version": "version",
	"fanout":       "fanout",
	"limit":        "limit",
	"retention":    "retention",
	"max-interval": "maxinterval",
	"kanjivg-dir":  "kanjivg.dir",
}

func defaults() (map[string]any, error) {
	db, err := storage.DefaultDBPath()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"db":          db,
		"endpoint":    "http://localhost:8765",
		"version":     6,
		"fanout":      4,
		"limit":       20,
		"retention":   0.9,
		"maxinterval": 36500.0,
		"kanjivg.url": "https://github.com/KanjiVG/kanjivg.git",
		"kanjivg.dir": filepath.Join(filepath.Dir(db), "kanjivg"),
	}, nil
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		return p
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "immerse", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "immerse", "config.yaml")
}

// Load resolves the configuration. An empty path means DefaultPath; a
// missing file is not an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	defs, err := defaults()
	if err != nil {
		return nil, &domain.ConfigError{Err: err}
	}
	k := koanf.New(".")
	for key, val := range defs {
		if err := k.Set(key, val); err != nil {
			return nil, &domain.ConfigError{Err: err}
		}
	}

	fk := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := fk.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, &domain.ConfigError{Err: fmt.Errorf("load %s: %w", path, err)}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, &domain.ConfigError{Err: err}
	}
	if err := k.Merge(fk); err != nil {
		return nil, &domain.ConfigError{Err: err}
	}

	envKey := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, &domain.ConfigError{Err: err}
	}

	if flags != nil {
		bound := func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, bound), nil); err != nil {
			return nil, &domain.ConfigError{Err: err}
		}
	}

	cfg := &Config{path: path, file: fk}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &domain.ConfigError{Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges and deck mappings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &domain.ConfigError{Err: err}
	}
	return nil
}

// Path returns the file the configuration is saved to.
func (c *Config) Path() string {
	return c.path
}

// Deck returns the mapping of the named deck.
func (c *Config) Deck(name string) (domain.DeckMapping, bool) {
	for _, d := range c.Decks {
		if d.Name == name {
			return d, true
		}
	}
	return domain.DeckMapping{}, false
}

// AddDeck records a mapping. It reports false, leaving the configuration
// unchanged, if the deck already has one.
func (c *Config) AddDeck(m domain.DeckMapping) (bool, error) {
	if _, ok := c.Deck(m.Name); ok {
		return false, nil
	}
	if err := validate.Struct(m); err != nil {
		return false, &domain.ConfigError{Deck: m.Name, Err: err}
	}
	c.Decks = append(c.Decks, m)
	return true, nil
}

// Save writes the deck mappings to the config file as YAML. Other keys keep
// the values read from the file; defaults, environment and flags are never
// written.
func (c *Config) Save() error {
	if c.path == "" {
		return &domain.ConfigError{Err: errors.New("no config path")}
	}
	if c.file == nil {
		c.file = koanf.New(".")
	}

	decks := make([]map[string]any, 0, len(c.Decks))
	for _, d := range c.Decks {
		decks = append(decks, map[string]any{
			"name":       d.Name,
			"word":       d.Word,
			"definition": d.Definition,
			"reading":    d.Reading,
		})
	}
	if err := c.file.Set("decks", decks); err != nil {
		return &domain.ConfigError{Err: err}
	}
	out, err := c.file.Marshal(yaml.Parser())
	if err != nil {
		return &domain.ConfigError{Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return &domain.ConfigError{Err: err}
	}
	if err := os.WriteFile(c.path, out, 0o600); err != nil {
		return &domain.ConfigError{Err: err}
	}
	return nil
}
