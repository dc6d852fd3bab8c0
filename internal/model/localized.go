package model

import (
	"encoding/json"
	"fmt"
)

// LocalizedText holds a value that may be present in multiple languages.
// Upstream payloads are inconsistent about its shape: some fields carry a
// bare string (historically German), some a plain language map, and some a
// countable object with singular/plural/uncountable sub-values.
type LocalizedText struct {
	En string `json:"en,omitempty"`
	De string `json:"de,omitempty"`
	Es string `json:"es,omitempty"`
	Fr string `json:"fr,omitempty"`
	Pt string `json:"pt,omitempty"`
}

// fallbackOrder is the language priority used when resolving a single value.
var fallbackOrder = []string{"de", "en", "es", "fr", "pt"}

// Fallback returns the first non-empty value in priority order
// de, en, es, fr, pt, or "" when all languages are absent.
func (t LocalizedText) Fallback() string {
	for _, lang := range fallbackOrder {
		if v := t.get(lang); v != "" {
			return v
		}
	}
	return ""
}

func (t LocalizedText) get(lang string) string {
	switch lang {
	case "en":
		return t.En
	case "de":
		return t.De
	case "es":
		return t.Es
	case "fr":
		return t.Fr
	case "pt":
		return t.Pt
	}
	return ""
}

// IsEmpty reports whether no language carries a value.
func (t LocalizedText) IsEmpty() bool {
	return t == LocalizedText{}
}

// UnmarshalJSON applies the shape recognizers in order: bare string,
// countable object (singular preferred, then plural, then uncountable),
// plain language map. Unknown keys are ignored.
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	// Bare string payloads default to German.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = LocalizedText{De: s}
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding localized text: %w", err)
	}

	for _, key := range []string{"singular", "plural", "uncountable"} {
		sub, ok := raw[key]
		if !ok || isJSONNull(sub) {
			continue
		}
		// A sub-object is a language map in its own right; a bare string
		// sub-value is treated like any other bare string.
		return t.UnmarshalJSON(sub)
	}

	type plain LocalizedText
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decoding localized text: %w", err)
	}
	*t = LocalizedText(p)
	return nil
}

func isJSONNull(data json.RawMessage) bool {
	return len(data) == 0 || string(data) == "null"
}
