package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempConfigPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "config.json")
}

func TestLoad_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AgentID != "demo_agent_1" || cfg.OpponentID != "demo_agent_2" {
		t.Errorf("unexpected default agents %q vs %q", cfg.AgentID, cfg.OpponentID)
	}
	if cfg.Refresh.Schedule != "@every 30s" {
		t.Errorf("unexpected refresh schedule %q", cfg.Refresh.Schedule)
	}
	if cfg.API.TimeoutSeconds != 0 {
		t.Errorf("expected no timeout by default, got %d", cfg.API.TimeoutSeconds)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults not written: %v", err)
	}
}

func TestSave_ReloadRoundTrip(t *testing.T) {
	path := tempConfigPath(t)

	original := Defaults()
	original.LogLevel = "debug"
	original.AgentID = "agent_x"
	original.DiscardStale = true
	original.API.BaseURL = "http://arena.test:9000"
	original.API.TimeoutSeconds = 15
	original.Strategies.Agent = "Rush"
	original.Telegram.Token = "bot-token-456"
	original.Telegram.ChatID = -1001234567890

	if err := Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *original {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *loaded, *original)
	}
}

func TestSave_AtomicWrite(t *testing.T) {
	path := tempConfigPath(t)

	if err := Save(path, Defaults()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should not exist after successful save")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved config: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Errorf("saved file is not valid JSON: %v", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := tempConfigPath(t)
	cfg := Defaults()
	cfg.AgentID = "from_file"
	cfg.API.BaseURL = "http://file"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ARENA_AGENT_ID", "from_env")
	t.Setenv("ARENA_API_BASE_URL", "http://env")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.AgentID != "from_env" {
		t.Errorf("expected env agent, got %q", loaded.AgentID)
	}
	if loaded.API.BaseURL != "http://env" {
		t.Errorf("expected env base url, got %q", loaded.API.BaseURL)
	}
	if loaded.Telegram.ChatID != 42 {
		t.Errorf("expected chat id 42, got %d", loaded.Telegram.ChatID)
	}
	if loaded.OpponentID != "demo_agent_2" {
		t.Errorf("unset env should keep file value, got %q", loaded.OpponentID)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	path := tempConfigPath(t)
	t.Setenv("ARENA_API_TIMEOUT_SECONDS", "soon")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for non-numeric timeout")
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := tempConfigPath(t)
	if err := os.WriteFile(path, []byte(`{"agent_id": "", "log_level": "loud"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestListValues(t *testing.T) {
	cfg := Defaults()
	cfg.Telegram.Token = "123456:ABCdefGHIjkl"
	cfg.Telegram.ChatID = -1001234567890

	flat, err := ListValues(cfg, false)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}
	if flat["telegram.token"] != "123456:ABCdefGHIjkl" {
		t.Errorf("expected raw token, got %v", flat["telegram.token"])
	}
	if n, ok := flat["telegram.chat_id"].(json.Number); !ok || n.String() != "-1001234567890" {
		t.Errorf("chat id lost precision: %v", flat["telegram.chat_id"])
	}

	masked, err := ListValues(cfg, true)
	if err != nil {
		t.Fatalf("ListValues failed: %v", err)
	}
	if masked["telegram.token"] != "***Ijkl" {
		t.Errorf("expected masked token, got %v", masked["telegram.token"])
	}
	if masked["agent_id"] != "demo_agent_1" {
		t.Errorf("non-secret masked: %v", masked["agent_id"])
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	for _, want := range []string{"agent_id", "api.base_url", "refresh.schedule", "telegram.token"} {
		found := false
		for _, k := range keys {
			if k == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing key %q in %v", want, keys)
		}
	}
}

func TestGetValue_UnknownKey(t *testing.T) {
	path := tempConfigPath(t)
	_, err := GetValue(path, "nonexistent.key")
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestSetValue(t *testing.T) {
	path := tempConfigPath(t)
	if _, err := Load(path); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"log_level", "debug", "debug"},
		{"agent_id", "12345", "12345"},
		{"api.timeout_seconds", "10", "10"},
		{"discard_stale", "true", "true"},
		{"telegram.chat_id", "-1001234567890", "-1001234567890"},
		{"refresh.schedule", "@every 1m", "@every 1m"},
	}
	for _, tt := range tests {
		if err := SetValue(path, tt.key, tt.value); err != nil {
			t.Fatalf("SetValue(%s) failed: %v", tt.key, err)
		}
		v, err := GetValue(path, tt.key)
		if err != nil {
			t.Fatalf("GetValue(%s) failed: %v", tt.key, err)
		}
		if got := toString(v); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.key, tt.want, got)
		}
	}

	// Earlier writes survive later ones.
	v, _ := GetValue(path, "log_level")
	if v != "debug" {
		t.Errorf("log_level lost after later sets: %v", v)
	}
}

func TestSetValue_Rejects(t *testing.T) {
	path := tempConfigPath(t)

	tests := []struct {
		key, value string
	}{
		{"some_flag", "true"},
		{"api", "x"},
		{"api.timeout_seconds", "ten"},
		{"discard_stale", "maybe"},
		{"log_level", "loud"},
		{"agent_id", ""},
	}
	for _, tt := range tests {
		if err := SetValue(path, tt.key, tt.value); err == nil {
			t.Errorf("SetValue(%s=%q): expected error", tt.key, tt.value)
		}
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	return ""
}
