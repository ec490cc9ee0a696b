package engine

import "unicode"

// Go-to-JS name conversion utilities used when exposing host methods.

// toLowerCamel converts an exported Go identifier to JS lowerCamelCase.
// A leading acronym is lowered as a whole: GetValue -> getValue,
// HTTPGet -> httpGet, URL -> url.
func toLowerCamel(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return ""
	}

	upperEnd := 0
	for upperEnd < len(runes) && unicode.IsUpper(runes[upperEnd]) {
		upperEnd++
	}

	switch {
	case upperEnd == 0:
		return s
	case upperEnd == 1 || upperEnd == len(runes):
		// single leading capital, or the whole name is an acronym
	default:
		// Last uppercase before lowercase starts next word, not part of acronym
		if unicode.IsLower(runes[upperEnd]) {
			upperEnd--
		}
	}

	for i := 0; i < upperEnd; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// isIdentifier reports whether name can be referenced as a bare JS identifier.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
