package syntax

import (
	"fmt"
	"strings"
)

// PostgreSqlHelper implements Helper for PostgreSQL: double-quote
// quoting, $N placeholders.
type PostgreSqlHelper struct {
	base baseHelper
}

func NewPostgreSqlHelper() *PostgreSqlHelper {
	return &PostgreSqlHelper{base: baseHelper{openQuote: '"', closeQuote: '"'}}
}

func (h *PostgreSqlHelper) Wrap(identifier string) string          { return h.base.Wrap(identifier) }
func (h *PostgreSqlHelper) EnsureWrapped(identifier string) string { return h.base.EnsureWrapped(identifier) }
func (h *PostgreSqlHelper) RuntimeName(s string) string            { return h.base.RuntimeName(s) }
func (h *PostgreSqlHelper) ValidateName(name string) error         { return h.base.ValidateName(name) }

// EnsureFullyQualified omits db: PostgreSQL cannot reference another
// database's objects from the current session.
func (h *PostgreSqlHelper) EnsureFullyQualified(db, schema, table, column string) string {
	parts := []string{}
	if schema != "" {
		parts = append(parts, h.EnsureWrapped(schema))
	}
	parts = append(parts, h.EnsureWrapped(table))
	if column != "" {
		parts = append(parts, h.EnsureWrapped(column))
	}
	return strings.Join(parts, ".")
}

func (h *PostgreSqlHelper) SplitLine(line string) (string, string, bool) {
	return h.base.SplitLine(line, " as ")
}

func (h *PostgreSqlHelper) Placeholder(index int) string { return fmt.Sprintf("$%d", index) }

func (h *PostgreSqlHelper) ScalarFunctionName(fn ScalarFunction, expr string) (string, error) {
	switch fn {
	case Len:
		return fmt.Sprintf("LENGTH(%s)", expr), nil
	case GetDate:
		return "CURRENT_TIMESTAMP", nil
	case Abs:
		return fmt.Sprintf("ABS(%s)", expr), nil
	case MD5:
		return fmt.Sprintf("MD5(%s)", expr), nil
	default:
		return "", unsupportedFunction("PostgreSql", fn)
	}
}
