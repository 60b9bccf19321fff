package typesystem

import (
	"regexp"

	"github.com/jas88/fansigo/fansierr"
)

// Translator is the per-dialect type translation contract. SQLTypeFor and
// TypeRequestFor are the two primary operations; Translate is their
// composition across two dialects.
type Translator interface {
	// Engine identifies which dialect this translator implements.
	Engine() Engine

	// SQLTypeFor renders a TypeRequest as this engine's concrete SQL type
	// spelling. Returns a TypeNotMapped error if the DataType is outside
	// the closed set this translator recognizes.
	SQLTypeFor(req TypeRequest) (string, error)

	// TypeRequestFor parses an engine-reported type spelling back into the
	// abstract model. Returns ok=false ("unsupported engine type") when no
	// recognizer pattern matches.
	TypeRequestFor(sqlType string) (req TypeRequest, ok bool)

	// UnboundedThreshold is the maximum bounded string width before this
	// dialect's SQLTypeFor switches to the unbounded spelling.
	UnboundedThreshold(unicode bool) int

	// DefaultStringWidth is used when a caller requests a string type
	// without specifying a width.
	DefaultStringWidth() int

	// GuesserFor constructs a progressive-widening inferrer seeded with
	// the column's current type.
	GuesserFor(current TypeRequest) *Guesser
}

// Translate renders sqlType, as reported by source's engine, in
// destination's dialect: parse it back to the abstract TypeRequest, then
// render that request in the destination's own spelling.
func Translate(sqlType string, source, destination Translator) (string, error) {
	req, ok := source.TypeRequestFor(sqlType)
	if !ok {
		return "", fansierr.TypeNotMapped(sqlType)
	}
	return destination.SQLTypeFor(req)
}

// recognizer is one anchored, case-insensitive pattern rule used by the
// reverse mapping from an engine's reported type spelling back to a
// TypeRequest. Build maps a regex match into a TypeRequest; Pattern is
// compiled once per translator at construction.
type recognizer struct {
	Pattern *regexp.Regexp
	Build   func(match []string) TypeRequest
}

func mustCompile(pattern string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + pattern)
}

// atoiOr returns fallback if s is empty or doesn't parse as a non-negative
// integer.
func atoiOr(s string, fallback int) int {
	n := 0
	if s == "" {
		return fallback
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
	}
	return n
}
