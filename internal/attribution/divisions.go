package attribution

import "strings"

// DivisionSeparator joins divisions inside the registry's division field.
const DivisionSeparator = ";"

// ParseDivisions splits a raw division field into trimmed division names.
// Empty tokens and the placeholders "nan" and "none" (any case) are dropped.
// Repeated names are kept, so a record's division count is the number of
// tokens that survive cleaning.
func ParseDivisions(raw string) []string {
	var out []string
	for _, tok := range strings.Split(raw, DivisionSeparator) {
		tok = strings.TrimSpace(tok)
		if isPlaceholder(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func isPlaceholder(tok string) bool {
	switch strings.ToLower(tok) {
	case "", "nan", "none":
		return true
	}
	return false
}
