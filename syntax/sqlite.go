package syntax

import (
	"fmt"
	"strings"

	"github.com/jas88/fansigo/fansierr"
)

// SqliteHelper implements Helper for SQLite: double-quote quoting.
// SQLite has no database-level qualification within a single-file
// connection, so EnsureFullyQualified only ever returns table.column.
type SqliteHelper struct {
	base baseHelper
}

func NewSqliteHelper() *SqliteHelper {
	return &SqliteHelper{base: baseHelper{openQuote: '"', closeQuote: '"'}}
}

func (h *SqliteHelper) Wrap(identifier string) string          { return h.base.Wrap(identifier) }
func (h *SqliteHelper) EnsureWrapped(identifier string) string { return h.base.EnsureWrapped(identifier) }
func (h *SqliteHelper) RuntimeName(s string) string            { return h.base.RuntimeName(s) }
func (h *SqliteHelper) ValidateName(name string) error         { return h.base.ValidateName(name) }

func (h *SqliteHelper) EnsureFullyQualified(db, schema, table, column string) string {
	parts := []string{h.EnsureWrapped(table)}
	if column != "" {
		parts = append(parts, h.EnsureWrapped(column))
	}
	return strings.Join(parts, ".")
}

func (h *SqliteHelper) SplitLine(line string) (string, string, bool) {
	return h.base.SplitLine(line, " as ")
}

func (h *SqliteHelper) Placeholder(index int) string { return "?" }

func (h *SqliteHelper) ScalarFunctionName(fn ScalarFunction, expr string) (string, error) {
	switch fn {
	case Len:
		return fmt.Sprintf("LENGTH(%s)", expr), nil
	case GetDate:
		return "CURRENT_TIMESTAMP", nil
	case Abs:
		return fmt.Sprintf("ABS(%s)", expr), nil
	case MD5:
		return "", fansierr.NotSupported("SQLite does not have a built-in MD5 function")
	default:
		return "", unsupportedFunction("Sqlite", fn)
	}
}
