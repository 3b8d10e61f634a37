package delivery

import (
	"testing"
)

func TestRegistryDeliver(t *testing.T) {
	reg := NewRegistry()

	var gotTarget, gotMsg string
	reg.Register("test:", func(target, message string) error {
		gotTarget = target
		gotMsg = message
		return nil
	})

	err := reg.Deliver("test:123", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTarget != "test:123" {
		t.Errorf("expected target %q, got %q", "test:123", gotTarget)
	}
	if gotMsg != "hello" {
		t.Errorf("expected message %q, got %q", "hello", gotMsg)
	}
}

func TestRegistryNoHandler(t *testing.T) {
	reg := NewRegistry()

	err := reg.Deliver("unknown:123", "hello")
	if err == nil {
		t.Fatal("expected error for unregistered prefix, got nil")
	}
}

func TestRegistryLongestPrefixWins(t *testing.T) {
	reg := NewRegistry()

	var general, specific int
	reg.Register("telegram:", func(string, string) error {
		general++
		return nil
	})
	reg.Register("telegram:-100", func(string, string) error {
		specific++
		return nil
	})

	for range 10 {
		if err := reg.Deliver("telegram:-100123", "group"); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.Deliver("telegram:42", "direct"); err != nil {
		t.Fatal(err)
	}

	if specific != 10 {
		t.Errorf("expected 10 group deliveries, got %d", specific)
	}
	if general != 1 {
		t.Errorf("expected 1 direct delivery, got %d", general)
	}
}
