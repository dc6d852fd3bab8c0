// Package groups partitions recipe ingredients into labeled display groups
// by their upstream typ.
package groups

import (
	"strings"

	"github.com/ephes/kptncook/internal/model"
)

// fallbackKey buckets ingredients whose payload carries no typ.
const fallbackKey = "other"

// Labels maps group keys to display labels, preserving configuration order.
type Labels struct {
	keys   []string
	labels map[string]string
}

// DefaultLabels returns the built-in label set: "regular" and "basic"
// ingredients get the usual shopping list headings.
func DefaultLabels() *Labels {
	l := &Labels{labels: make(map[string]string)}
	l.set("regular", "You need")
	l.set("basic", "Pantry")
	return l
}

// ParseLabels extends the defaults with a "key:label,key:label" override
// string. Malformed entries are skipped, keys are lowercased, overriding a
// default keeps its position.
func ParseLabels(raw string) *Labels {
	l := DefaultLabels()
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		key, value, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		l.set(key, value)
	}
	return l
}

func (l *Labels) set(key, value string) {
	if _, ok := l.labels[key]; !ok {
		l.keys = append(l.keys, key)
	}
	l.labels[key] = value
}

// Label resolves the display label for a group key. Unconfigured keys are
// title-cased with underscores turned into spaces.
func (l *Labels) Label(key string) string {
	if label, ok := l.labels[key]; ok {
		return label
	}
	return titleCase(strings.ReplaceAll(key, "_", " "))
}

// Group is one labeled partition of the ingredient list.
type Group struct {
	Label       string
	Ingredients []model.Ingredient
}

// Ungrouped wraps the ingredient list in a single unlabeled group, for
// exports with grouping disabled.
func Ungrouped(ingredients []model.Ingredient) []Group {
	return []Group{{Ingredients: ingredients}}
}

// ByTyp partitions the ingredients by their typ key. Groups with a
// configured label come first in configuration order, the rest follow in
// first-seen order. Relative ingredient order within a group is preserved.
func ByTyp(ingredients []model.Ingredient, labels *Labels) []Group {
	if labels == nil {
		labels = DefaultLabels()
	}

	byKey := make(map[string][]model.Ingredient)
	var seen []string
	for _, ing := range ingredients {
		key := groupKey(ing)
		if _, ok := byKey[key]; !ok {
			seen = append(seen, key)
		}
		byKey[key] = append(byKey[key], ing)
	}

	var ordered []string
	for _, key := range labels.keys {
		if _, ok := byKey[key]; ok {
			ordered = append(ordered, key)
		}
	}
	for _, key := range seen {
		if !contains(ordered, key) {
			ordered = append(ordered, key)
		}
	}

	result := make([]Group, 0, len(ordered))
	for _, key := range ordered {
		result = append(result, Group{Label: labels.Label(key), Ingredients: byKey[key]})
	}
	return result
}

func groupKey(ing model.Ingredient) string {
	key := strings.ToLower(strings.TrimSpace(ing.Ingredient.Typ))
	if key == "" {
		return fallbackKey
	}
	return key
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// titleCase capitalizes the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
