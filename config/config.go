// Package config persists user settings in a YAML file: the prefix text put in
// front of every transcript, capture tunables, and provider choices.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"earshot/capture"
)

const fileName = "config.yaml"

var (
	validProviders = []string{"openai", "groq", "deepgram"}
	validFormats   = []string{"wav", "flac"}
)

type Transcription struct {
	Provider string `yaml:"provider"` // empty picks the first provider with a key set
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	Format   string `yaml:"format"`
}

type Correction struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

type Config struct {
	PrefixText    string         `yaml:"prefix_text"`
	Capture       capture.Config `yaml:"capture"`
	Transcription Transcription  `yaml:"transcription"`
	Correction    Correction     `yaml:"correction"`

	path string
}

func Default() *Config {
	return &Config{
		Capture:       capture.DefaultConfig(),
		Transcription: Transcription{Format: "wav"},
		Correction:    Correction{Enabled: true, Model: "gpt-4o-mini"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/earshot/config.yaml, falling back to
// ~/.config/earshot/config.yaml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "earshot", fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home dir: %w", err)
	}
	return filepath.Join(home, ".config", "earshot", fileName), nil
}

// Load reads the config at path, or at DefaultPath when path is empty. A
// missing file is created with defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		cfg.path = path
		if err := cfg.Save(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// LoadFromReader decodes YAML on top of Default, so keys left out of the
// document keep their default values. The result is validated.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if err := c.Capture.Validate(); err != nil {
		errs = append(errs, err)
	}
	if p := c.Transcription.Provider; p != "" && !slices.Contains(validProviders, p) {
		errs = append(errs, fmt.Errorf("transcription.provider %q is invalid; valid values: %s", p, strings.Join(validProviders, ", ")))
	}
	if f := c.Transcription.Format; f != "" && !slices.Contains(validFormats, f) {
		errs = append(errs, fmt.Errorf("transcription.format %q is invalid; valid values: %s", f, strings.Join(validFormats, ", ")))
	}
	return errors.Join(errs...)
}

// Path is the file the config was loaded from and is saved to.
func (c *Config) Path() string { return c.path }

func (c *Config) Save() error {
	if c.path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		c.path = p
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

func (c *Config) GetPrefix() string { return c.PrefixText }

// SetPrefix stores text with Windows and old Mac line endings turned into \n.
func (c *Config) SetPrefix(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	c.PrefixText = strings.ReplaceAll(text, "\r", "\n")
}

func (c *Config) ClearPrefix() { c.PrefixText = "" }

// ApplyPrefix prepends the prefix verbatim. Any separator, such as a
// trailing newline, is part of the prefix itself.
func (c *Config) ApplyPrefix(text string) string {
	return c.PrefixText + text
}
