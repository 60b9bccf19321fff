package typesystem

import (
	"fmt"
	"strings"

	"github.com/jas88/fansigo/fansierr"
)

// SqliteTranslator implements Translator for SQLite. SQLite has no real
// column types, only the four storage affinities TEXT, INTEGER, REAL, BLOB,
// so SQLTypeFor emits one of those four spellings for every DataType
// except Bool (spelled "boolean", which SQLite gives NUMERIC affinity), and
// precision/scale/width are carried in the column's application-level type
// request rather than the declared SQL type. Dates, times, decimals, and
// GUIDs all round-trip through TEXT.
type SqliteTranslator struct {
	recognizers []recognizer
}

func NewSqliteTranslator() *SqliteTranslator {
	t := &SqliteTranslator{}
	t.recognizers = []recognizer{
		{mustCompile(`^boolean$`), func(m []string) TypeRequest { return TypeRequest{DataType: Bool} }},
		{mustCompile(`^integer$`), func(m []string) TypeRequest { return TypeRequest{DataType: Int64} }},
		{mustCompile(`^real$`), func(m []string) TypeRequest { return TypeRequest{DataType: Float64} }},
		{mustCompile(`^blob$`), func(m []string) TypeRequest { return TypeRequest{DataType: ByteArray} }},
		{mustCompile(`^text$`), func(m []string) TypeRequest { return TypeRequest{DataType: String}.WithUnbounded() }},
	}
	return t
}

func (t *SqliteTranslator) Engine() Engine { return Sqlite }

// UnboundedThreshold is always 0: SQLite TEXT columns are never width
// bounded, so every string request is unbounded.
func (t *SqliteTranslator) UnboundedThreshold(unicode bool) int { return 0 }

func (t *SqliteTranslator) DefaultStringWidth() int { return 0 }

func (t *SqliteTranslator) GuesserFor(current TypeRequest) *Guesser { return NewGuesser(t, current) }

// SQLTypeFor collapses every DataType except Bool onto one of SQLite's four
// storage affinities. Width, precision, and scale are accepted but not reflected in
// the returned spelling — the engine does not enforce them.
func (t *SqliteTranslator) SQLTypeFor(req TypeRequest) (string, error) {
	switch req.DataType {
	case Bool:
		// BOOLEAN carries no affinity of its own; SQLite falls back to
		// NUMERIC for it, storing 0/1 the same as an integer column.
		return "boolean", nil
	case Byte, Int16, Int32, Int64:
		return "integer", nil
	case Float32, Float64:
		return "real", nil
	case Decimal:
		return "text", nil
	case Guid:
		return "text", nil
	case DateTime, DateOnly, TimeOnly, TimeSpan:
		return "text", nil
	case ByteArray:
		return "blob", nil
	case String:
		return "text", nil
	default:
		return "", fansierr.TypeNotMapped(fmt.Sprintf("Sqlite/%s", req.DataType))
	}
}

// TypeRequestFor maps a PRAGMA-reported type name back to its affinity.
// Declarations such as "varchar(255)" report an affinity via the first four
// of SQLite's type-name-inspection rules (INTEGER, TEXT, BLOB, REAL) rather
// than the declared width/precision, since those are cosmetic once the
// column exists. A name none of those rules match, such as "decimal(10,2)",
// is reported as an unbounded String.
func (t *SqliteTranslator) TypeRequestFor(sqlType string) (TypeRequest, bool) {
	s := strings.ToLower(strings.TrimSpace(sqlType))
	for _, r := range t.recognizers {
		if m := r.Pattern.FindStringSubmatch(s); m != nil {
			return r.Build(m), true
		}
	}
	switch {
	case strings.Contains(s, "int"):
		return TypeRequest{DataType: Int64}, true
	case strings.Contains(s, "char") || strings.Contains(s, "clob") || strings.Contains(s, "text"):
		return TypeRequest{DataType: String}.WithUnbounded(), true
	case strings.Contains(s, "blob") || s == "":
		return TypeRequest{DataType: ByteArray}, true
	case strings.Contains(s, "real") || strings.Contains(s, "floa") || strings.Contains(s, "doub"):
		return TypeRequest{DataType: Float64}, true
	default:
		return TypeRequest{DataType: String}.WithUnbounded(), true
	}
}
