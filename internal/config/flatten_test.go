package config

import (
	"testing"
)

func TestFlatten_Nested(t *testing.T) {
	m := map[string]any{
		"api": map[string]any{
			"base_url":        "http://arena.local",
			"timeout_seconds": 5.0,
		},
		"log_level": "info",
	}
	got := Flatten(m)
	if got["api.base_url"] != "http://arena.local" {
		t.Errorf("expected api.base_url, got %v", got["api.base_url"])
	}
	if got["api.timeout_seconds"] != 5.0 {
		t.Errorf("expected api.timeout_seconds=5, got %v", got["api.timeout_seconds"])
	}
	if got["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", got["log_level"])
	}
	if len(got) != 3 {
		t.Errorf("expected 3 keys, got %d", len(got))
	}
}

func TestFlatten_DeeplyNested(t *testing.T) {
	m := map[string]any{
		"a": map[string]any{
			"b": map[string]any{
				"c": "deep",
			},
		},
	}
	got := Flatten(m)
	if got["a.b.c"] != "deep" {
		t.Errorf("expected a.b.c=deep, got %v", got["a.b.c"])
	}
	if len(got) != 1 {
		t.Errorf("expected 1 key, got %d", len(got))
	}
}

func TestFlatten_EmptyNestedMap(t *testing.T) {
	got := Flatten(map[string]any{"strategies": map[string]any{}})
	if len(got) != 0 {
		t.Errorf("expected no keys, got %v", got)
	}
}

func TestUnflatten_Nested(t *testing.T) {
	flat := map[string]any{
		"telegram.token":   "abc",
		"telegram.chat_id": 42,
		"agent_id":         "demo_agent_1",
	}
	got := Unflatten(flat)
	tg, ok := got["telegram"].(map[string]any)
	if !ok {
		t.Fatalf("expected telegram map, got %T", got["telegram"])
	}
	if tg["token"] != "abc" || tg["chat_id"] != 42 {
		t.Errorf("unexpected telegram section %v", tg)
	}
	if got["agent_id"] != "demo_agent_1" {
		t.Errorf("expected agent_id, got %v", got["agent_id"])
	}
}

func TestRoundTrip_FlattenUnflatten(t *testing.T) {
	original := map[string]any{
		"log_level": "debug",
		"refresh": map[string]any{
			"schedule": "@every 30s",
		},
		"telegram": map[string]any{
			"token":   "123456:ABC",
			"chat_id": 42.0,
		},
	}
	got := Unflatten(Flatten(original))
	if got["log_level"] != "debug" {
		t.Errorf("log_level mismatch: %v", got["log_level"])
	}
	refresh := got["refresh"].(map[string]any)
	if refresh["schedule"] != "@every 30s" {
		t.Errorf("refresh.schedule mismatch: %v", refresh["schedule"])
	}
	tg := got["telegram"].(map[string]any)
	if tg["token"] != "123456:ABC" || tg["chat_id"] != 42.0 {
		t.Errorf("telegram mismatch: %v", tg)
	}
}

func TestMaskSecrets(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"long token", "123456:ABCdefGHIjkl", "***Ijkl"},
		{"empty", "", ""},
		{"short", "ab", "***ab"},
		{"exactly four", "abcd", "***abcd"},
		{"non-string", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaskSecrets(map[string]any{
				"telegram.token": tt.value,
				"agent_id":       "demo_agent_1",
			})
			if got["telegram.token"] != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got["telegram.token"])
			}
			if got["agent_id"] != "demo_agent_1" {
				t.Errorf("non-secret changed: %v", got["agent_id"])
			}
		})
	}
}

func TestIsSecretKey(t *testing.T) {
	if !IsSecretKey("telegram.token") {
		t.Error("telegram.token should be secret")
	}
	if IsSecretKey("telegram.chat_id") {
		t.Error("telegram.chat_id should not be secret")
	}
}
