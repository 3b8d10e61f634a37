package config

import (
	"strings"
)

// secretKeys are the dotted keys masked by list and get.
var secretKeys = map[string]bool{
	"telegram.token": true,
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}

// Flatten turns nested JSON objects into dotted keys, so
// {"api": {"base_url": "x"}} becomes {"api.base_url": "x"}. Empty objects
// produce no keys.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			if child, ok := v.(map[string]any); ok {
				walk(prefix+k+".", child)
				continue
			}
			out[prefix+k] = v
		}
	}
	walk("", m)
	return out
}

// Unflatten is the inverse of Flatten. Keys come from Flatten, so a prefix
// is never also a leaf.
func Unflatten(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for key, v := range flat {
		section, leaf := out, key
		for {
			head, rest, nested := strings.Cut(leaf, ".")
			if !nested {
				break
			}
			next, _ := section[head].(map[string]any)
			if next == nil {
				next = make(map[string]any)
				section[head] = next
			}
			section, leaf = next, rest
		}
		section[leaf] = v
	}
	return out
}

// MaskSecrets copies flat, replacing non-empty secret strings with "***"
// and their last four characters.
func MaskSecrets(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	for k, v := range flat {
		out[k] = v
		if s, ok := v.(string); ok && s != "" && secretKeys[k] {
			out[k] = "***" + s[max(len(s)-4, 0):]
		}
	}
	return out
}
