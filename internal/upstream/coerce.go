package upstream

// CollectIdentifiers coerces a mixed list of decoded JSON values into
// typed recipe identifiers, deduplicating while preserving first-seen
// order. Entries that carry no recognizable identifier are dropped.
func CollectIdentifiers(items []any) []ID {
	var ids []ID
	seen := make(map[ID]bool)
	for _, item := range items {
		id, ok := coerceIdentifier(item)
		if !ok || seen[id] {
			continue
		}
		ids = append(ids, id)
		seen[id] = true
	}
	return ids
}

// coerceIdentifier digs an identifier out of the shapes the API hands
// back: bare strings and URLs, {"identifier": ...} and {"uid": ...}
// wrappers, id objects under the usual keys, and summary wrappers.
func coerceIdentifier(value any) (ID, bool) {
	switch v := value.(type) {
	case ID:
		return v, v.Value != ""
	case string:
		if id, ok := ParseID(v); ok {
			return id, true
		}
		if LooksLikeUID(v) {
			return ID{Kind: KindUID, Value: v}, true
		}
		if LooksLikeOID(v) {
			return ID{Kind: KindOID, Value: v}, true
		}
		return ID{}, false
	case map[string]any:
		if raw, ok := v["identifier"]; ok {
			if id, found := coerceIdentifier(raw); found {
				id.Kind = KindOID
				return id, true
			}
			if s, ok := stringValue(raw); ok {
				return ID{Kind: KindOID, Value: s}, true
			}
		}
		if raw, ok := v["uid"]; ok {
			if id, found := coerceIdentifier(raw); found {
				id.Kind = KindUID
				return id, true
			}
			if s, ok := stringValue(raw); ok {
				return ID{Kind: KindUID, Value: s}, true
			}
		}
		for _, key := range []string{"_id", "id", "recipeId", "recipe_id"} {
			if raw, ok := v[key]; ok {
				if id, found := coerceIdentifier(raw); found {
					return id, true
				}
			}
		}
		for _, key := range []string{"$oid", "oid"} {
			if raw, ok := v[key]; ok {
				if id, found := coerceIdentifier(raw); found {
					id.Kind = KindOID
					return id, true
				}
			}
		}
		for _, key := range []string{"recipe", "recipeSummary", "recipe_summary", "summary"} {
			if raw, ok := v[key]; ok {
				if id, found := coerceIdentifier(raw); found {
					return id, true
				}
			}
		}
	}
	return ID{}, false
}

func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
