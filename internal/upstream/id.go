package upstream

import "strings"

// IDKind discriminates the two upstream recipe identifier formats.
type IDKind string

const (
	// KindOID is the 24-character hex object id of the backend store.
	KindOID IDKind = "oid"

	// KindUID is the 7 or 8 character share id used in share URLs.
	KindUID IDKind = "uid"
)

// ID is a typed upstream recipe identifier.
type ID struct {
	Kind  IDKind
	Value string
}

// LooksLikeUID reports whether a token has the shape of a share id.
func LooksLikeUID(token string) bool {
	if len(token) != 7 && len(token) != 8 {
		return false
	}
	return isAlnum(token)
}

// LooksLikeOID reports whether a token has the shape of an object id.
func LooksLikeOID(token string) bool {
	return len(token) == 24 && isAlnum(token)
}

// ParseID sniffs a recipe identifier out of free text, typically a pasted
// share URL. Share ids win over object ids.
func ParseID(text string) (ID, bool) {
	for _, part := range splitAny(text, "/?") {
		if LooksLikeUID(part) {
			return ID{Kind: KindUID, Value: part}, true
		}
	}
	for _, part := range splitAny(text, " ,/") {
		if LooksLikeOID(part) {
			return ID{Kind: KindOID, Value: part}, true
		}
	}
	return ID{}, false
}

func splitAny(s, seps string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
