// Package syntax implements the per-dialect query syntax helper:
// identifier wrapping, name validation, fully qualified name assembly,
// scalar-function spellings, and alias parsing.
package syntax

import (
	"strconv"
	"strings"

	"github.com/jas88/fansigo/fansierr"
)

// ScalarFunction is the closed set of scalar functions a caller may ask a
// dialect to spell.
type ScalarFunction string

const (
	Len     ScalarFunction = "Len"
	GetDate ScalarFunction = "GetDate"
	Abs     ScalarFunction = "Abs"
	MD5     ScalarFunction = "MD5"
)

// Helper is the per-dialect query syntax contract.
type Helper interface {
	// Wrap quotes identifier in this dialect's quote characters.
	Wrap(identifier string) string

	// EnsureWrapped is idempotent: wrapping an already-wrapped identifier
	// returns it unchanged.
	EnsureWrapped(identifier string) string

	// RuntimeName extracts the bare identifier from a wrapped or qualified
	// name: the last segment after unwrapping, preserving any dot that
	// occurs inside a wrapped segment.
	RuntimeName(wrappedOrQualified string) string

	// EnsureFullyQualified assembles database.schema.table.column, dropping
	// segments the dialect does not support (Oracle has no database
	// qualifier of its own beyond schema; SQLite has none at all).
	EnsureFullyQualified(db, schema, table, column string) string

	// ValidateName checks length and nullness only; special characters are
	// always permitted because names are always wrapped before use.
	ValidateName(name string) error

	// SplitLine finds the dialect's alias-prefix token (case-insensitively,
	// respecting quoted regions and nested parens) and splits sql from
	// alias. ok is false if no alias token was found.
	SplitLine(line string) (sql string, alias string, ok bool)

	// ScalarFunctionName spells a scalar function call wrapping expr, or
	// returns a NotSupported error (SQLite has no built-in MD5).
	ScalarFunctionName(fn ScalarFunction, expr string) (string, error)

	// Placeholder returns this dialect's bound-parameter token for the
	// given 1-based index.
	Placeholder(index int) string
}

const maxIdentifierLength = 128

// baseHelper implements the parts of Helper that are identical across
// dialects modulo the quote character and alias-case handling; a concrete
// dialect composes it rather than re-implementing name validation five
// times.
type baseHelper struct {
	openQuote  byte
	closeQuote byte
	uppercase  bool
}

func (b baseHelper) Wrap(identifier string) string {
	var sb strings.Builder
	sb.WriteByte(b.openQuote)
	for i := 0; i < len(identifier); i++ {
		c := identifier[i]
		sb.WriteByte(c)
		if c == b.closeQuote && b.openQuote == b.closeQuote {
			sb.WriteByte(c) // double an embedded quote char
		}
	}
	sb.WriteByte(b.closeQuote)
	return sb.String()
}

func (b baseHelper) EnsureWrapped(identifier string) string {
	if len(identifier) >= 2 && identifier[0] == b.openQuote && identifier[len(identifier)-1] == b.closeQuote {
		return identifier
	}
	return b.Wrap(identifier)
}

func (b baseHelper) unwrapSegment(segment string) string {
	if len(segment) >= 2 && segment[0] == b.openQuote && segment[len(segment)-1] == b.closeQuote {
		inner := segment[1 : len(segment)-1]
		if b.openQuote == b.closeQuote {
			doubled := string(b.closeQuote) + string(b.closeQuote)
			inner = strings.ReplaceAll(inner, doubled, string(b.closeQuote))
		}
		return inner
	}
	return segment
}

// RuntimeName splits on dots that occur outside a wrapped segment, then
// unwraps and (for Oracle) uppercases the final segment.
func (b baseHelper) RuntimeName(s string) string {
	segments := splitOutsideQuotes(s, b.openQuote, b.closeQuote)
	last := b.unwrapSegment(segments[len(segments)-1])
	if b.uppercase {
		last = strings.ToUpper(last)
	}
	return last
}

// splitOutsideQuotes splits s on '.' characters that are not inside a
// openQuote/closeQuote delimited region.
func splitOutsideQuotes(s string, openQuote, closeQuote byte) []string {
	var segments []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch {
		case openQuote == closeQuote && s[i] == openQuote:
			inQuote = !inQuote
		case s[i] == openQuote:
			depth++
		case s[i] == closeQuote && depth > 0:
			depth--
		case s[i] == '.' && depth == 0 && !inQuote:
			segments = append(segments, s[start:i])
			start = i + 1
		}
	}
	segments = append(segments, s[start:])
	return segments
}

func (b baseHelper) ValidateName(name string) error {
	if name == "" {
		return fansierr.RuntimeNameError("identifier is blank")
	}
	if len(name) > maxIdentifierLength {
		return fansierr.RuntimeNameError("identifier exceeds maximum length")
	}
	return nil
}

// SplitLine finds the case-insensitive alias prefix (surrounded by spaces)
// that occurs outside parens and quoted regions, honoring this dialect's
// quote characters.
func (b baseHelper) SplitLine(line, aliasPrefix string) (string, string, bool) {
	depthParen := 0
	depthQuote := 0
	lower := strings.ToLower(line)
	prefix := strings.ToLower(aliasPrefix)
	for i := 0; i+len(prefix) <= len(line); i++ {
		switch line[i] {
		case '(':
			if depthQuote == 0 {
				depthParen++
			}
		case ')':
			if depthQuote == 0 && depthParen > 0 {
				depthParen--
			}
		case b.openQuote:
			if b.openQuote != b.closeQuote {
				depthQuote++
			} else {
				depthQuote = 1 - depthQuote
			}
		case b.closeQuote:
			if b.openQuote != b.closeQuote && depthQuote > 0 {
				depthQuote--
			}
		}
		if depthParen == 0 && depthQuote == 0 && lower[i:i+len(prefix)] == prefix {
			sql := strings.TrimSpace(line[:i])
			alias := strings.TrimSpace(line[i+len(prefix):])
			if sql != "" && alias != "" {
				return sql, alias, true
			}
		}
	}
	return line, "", false
}

func itoa(n int) string { return strconv.Itoa(n) }

func unsupportedFunction(engine string, fn ScalarFunction) error {
	return fansierr.NotSupported(engine + " has no builtin " + string(fn))
}
