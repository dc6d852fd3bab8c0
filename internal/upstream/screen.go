package upstream

import "encoding/json"

// DiscoveryListTypes are the list types the discovery endpoint serves.
// Curated and automated lists additionally need a list id.
var DiscoveryListTypes = map[string]bool{
	"latest":      true,
	"recommended": true,
	"curated":     true,
	"automated":   true,
}

// DiscoveryListNeedsID reports whether a list type requires a list id.
func DiscoveryListNeedsID(listType string) bool {
	return listType == "curated" || listType == "automated"
}

// DiscoveryList summarizes one list advertised on the discovery screen.
type DiscoveryList struct {
	ID    string
	Title string
	Type  string
}

// IngredientSummary is one entry of the popular ingredient catalog.
type IngredientSummary struct {
	ID   string
	Name string
}

// DiscoveryLists pulls the list summaries out of a discovery screen
// payload. Entries without any recognizable field are dropped.
func DiscoveryLists(payload json.RawMessage) []DiscoveryList {
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil
	}

	var lists []DiscoveryList
	entries := nestedList(decoded, []string{"lists", "discoveryLists", "discoveryList", "items", "sections"})
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		list := DiscoveryList{
			ID:    firstIDValue(obj, "id", "_id", "listId", "list_id", "oid"),
			Title: firstTextValue(obj, "title", "localizedTitle", "name"),
			Type:  firstStringValue(obj, "listType", "list_type", "type"),
		}
		if list.ID == "" && list.Title == "" && list.Type == "" {
			continue
		}
		lists = append(lists, list)
	}
	return lists
}

// QuickSearches pulls the quick search labels out of a discovery screen
// payload.
func QuickSearches(payload json.RawMessage) []string {
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil
	}

	var labels []string
	entries := nestedList(decoded, []string{"quickSearchEntries", "quickSearch", "quick_search", "quicksearch"})
	for _, entry := range entries {
		switch v := entry.(type) {
		case string:
			labels = append(labels, v)
		case map[string]any:
			if label := firstStringValue(v, "title", "name", "label", "text", "query"); label != "" {
				labels = append(labels, label)
				continue
			}
			if label := firstTextValue(v, "localizedTitle", "title"); label != "" {
				labels = append(labels, label)
			}
		}
	}
	return labels
}

// ParseIngredientSummaries projects raw catalog entries into id/name pairs.
// Entries carrying neither are dropped.
func ParseIngredientSummaries(items []json.RawMessage) []IngredientSummary {
	var summaries []IngredientSummary
	for _, raw := range items {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue
		}
		summary := IngredientSummary{
			ID:   firstIDValue(obj, "_id", "id", "ingredientId", "ingredient_id", "oid"),
			Name: firstTextValue(obj, "numberTitle", "localizedTitle", "name", "title", "label"),
		}
		if summary.ID == "" && summary.Name == "" {
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// nestedList finds the first list under one of the given keys, searching
// nested objects depth-first.
func nestedList(payload any, keys []string) []any {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range keys {
		if list, ok := obj[key].([]any); ok {
			return list
		}
	}
	for _, value := range obj {
		if _, ok := value.(map[string]any); !ok {
			continue
		}
		if nested := nestedList(value, keys); len(nested) > 0 {
			return nested
		}
	}
	return nil
}

// firstIDValue returns the first identifier under the given keys,
// unwrapping {"$oid": ...} and {"oid": ...} objects.
func firstIDValue(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := obj[key]
		if !ok {
			continue
		}
		if wrapped, ok := value.(map[string]any); ok {
			if v, ok := wrapped["$oid"]; ok {
				value = v
			} else if v, ok := wrapped["oid"]; ok {
				value = v
			}
		}
		if s, ok := value.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstStringValue returns the first plain string under the given keys.
func firstStringValue(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// firstTextValue returns the first localizable text under the given keys:
// a plain string, a language map, or a singular/plural wrapper.
func firstTextValue(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := obj[key]
		if !ok {
			continue
		}
		if text := localizedText(value); text != "" {
			return text
		}
	}
	return ""
}

func localizedText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		for _, key := range []string{"de", "en", "es", "fr", "pt"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
		for _, key := range []string{"singular", "plural", "uncountable"} {
			if s, ok := v[key].(string); ok && s != "" {
				return s
			}
		}
		for _, candidate := range v {
			if s, ok := candidate.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
