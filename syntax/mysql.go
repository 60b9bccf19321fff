package syntax

import (
	"fmt"
	"strings"
)

// MySqlHelper implements Helper for MySQL/MariaDB: backtick quoting. An
// internal backtick must be doubled when wrapped, which baseHelper.Wrap
// already handles for a quote character that doubles itself (openQuote
// == closeQuote).
type MySqlHelper struct {
	base baseHelper
}

func NewMySqlHelper() *MySqlHelper {
	return &MySqlHelper{base: baseHelper{openQuote: '`', closeQuote: '`'}}
}

func (h *MySqlHelper) Wrap(identifier string) string          { return h.base.Wrap(identifier) }
func (h *MySqlHelper) EnsureWrapped(identifier string) string { return h.base.EnsureWrapped(identifier) }
func (h *MySqlHelper) RuntimeName(s string) string            { return h.base.RuntimeName(s) }
func (h *MySqlHelper) ValidateName(name string) error         { return h.base.ValidateName(name) }

func (h *MySqlHelper) EnsureFullyQualified(db, schema, table, column string) string {
	parts := []string{}
	if db != "" {
		parts = append(parts, h.EnsureWrapped(db))
	}
	parts = append(parts, h.EnsureWrapped(table))
	if column != "" {
		parts = append(parts, h.EnsureWrapped(column))
	}
	return strings.Join(parts, ".")
}

func (h *MySqlHelper) SplitLine(line string) (string, string, bool) {
	return h.base.SplitLine(line, " as ")
}

func (h *MySqlHelper) Placeholder(index int) string { return "?" }

func (h *MySqlHelper) ScalarFunctionName(fn ScalarFunction, expr string) (string, error) {
	switch fn {
	case Len:
		return fmt.Sprintf("LENGTH(%s)", expr), nil
	case GetDate:
		return "NOW()", nil
	case Abs:
		return fmt.Sprintf("ABS(%s)", expr), nil
	case MD5:
		return fmt.Sprintf("MD5(%s)", expr), nil
	default:
		return "", unsupportedFunction("MySql", fn)
	}
}
