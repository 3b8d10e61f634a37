package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	LogLevel     string `json:"log_level" env:"ARENA_LOG_LEVEL"`
	AgentID      string `json:"agent_id" env:"ARENA_AGENT_ID"`
	OpponentID   string `json:"opponent_id" env:"ARENA_OPPONENT_ID"`
	DiscardStale bool   `json:"discard_stale" env:"ARENA_DISCARD_STALE"`
	API          struct {
		BaseURL        string `json:"base_url" env:"ARENA_API_BASE_URL"`
		TimeoutSeconds int    `json:"timeout_seconds" env:"ARENA_API_TIMEOUT_SECONDS"`
	} `json:"api"`
	Strategies struct {
		Agent    string `json:"agent"`
		Opponent string `json:"opponent"`
	} `json:"strategies"`
	Refresh struct {
		Schedule string `json:"schedule" env:"ARENA_REFRESH_SCHEDULE"`
	} `json:"refresh"`
	Telegram struct {
		Token  string `json:"token" env:"TELEGRAM_BOT_TOKEN"`
		ChatID int64  `json:"chat_id" env:"TELEGRAM_CHAT_ID"`
	} `json:"telegram"`
}

// DefaultPath is ~/.arena/config.json.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".arena", "config.json")
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	cfg := &Config{
		LogLevel:   "info",
		AgentID:    "demo_agent_1",
		OpponentID: "demo_agent_2",
	}
	cfg.API.BaseURL = "http://localhost:8000"
	cfg.Strategies.Agent = "Attack aggressively with all items."
	cfg.Strategies.Opponent = "Defend and counter-attack."
	cfg.Refresh.Schedule = "@every 30s"
	return cfg
}

// Load reads the config at path, writing defaults first if it does not
// exist. Environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the client cannot run without.
func (c *Config) Validate() error {
	switch {
	case c.AgentID == "":
		return fmt.Errorf("agent_id is required")
	case c.API.BaseURL == "":
		return fmt.Errorf("api.base_url is required")
	case c.API.TimeoutSeconds < 0:
		return fmt.Errorf("api.timeout_seconds must not be negative")
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Save writes cfg to path atomically.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ToMap converts cfg to a nested map keyed by JSON names. Numbers are kept
// as json.Number so large chat ids survive.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListValues returns the flattened config, with secrets masked if mask is set.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	flat, _ := ListValues(Defaults(), false)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetValue returns the effective value of a dotted key.
func GetValue(path, key string) (any, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	flat, err := ListValues(cfg, false)
	if err != nil {
		return nil, err
	}
	v, ok := flat[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return v, nil
}

// SetValue parses value according to the type of key and saves it to the
// file at path. Environment overrides are not written back.
func SetValue(path, key, value string) error {
	defaults, err := ListValues(Defaults(), false)
	if err != nil {
		return err
	}
	current, ok := defaults[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}

	var parsed any
	switch current.(type) {
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false: %w", key, err)
		}
		parsed = b
	case json.Number:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s expects an integer: %w", key, err)
		}
		parsed = n
	default:
		parsed = value
	}

	cfg := Defaults()
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	flat, err := ListValues(cfg, false)
	if err != nil {
		return err
	}
	flat[key] = parsed
	data, err := json.Marshal(Unflatten(flat))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	updated := &Config{}
	if err := json.Unmarshal(data, updated); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	return Save(path, updated)
}
