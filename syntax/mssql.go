package syntax

import (
	"fmt"
	"strings"
)

// MsSqlHelper implements Helper for SQL Server: square-bracket quoting,
// ` AS ` alias convention.
type MsSqlHelper struct {
	base baseHelper
}

func NewMsSqlHelper() *MsSqlHelper {
	return &MsSqlHelper{base: baseHelper{openQuote: '[', closeQuote: ']'}}
}

func (h *MsSqlHelper) Wrap(identifier string) string          { return h.base.Wrap(identifier) }
func (h *MsSqlHelper) EnsureWrapped(identifier string) string { return h.base.EnsureWrapped(identifier) }
func (h *MsSqlHelper) RuntimeName(s string) string            { return h.base.RuntimeName(s) }
func (h *MsSqlHelper) ValidateName(name string) error         { return h.base.ValidateName(name) }

func (h *MsSqlHelper) EnsureFullyQualified(db, schema, table, column string) string {
	parts := []string{}
	if db != "" {
		parts = append(parts, h.EnsureWrapped(db))
	}
	if schema != "" {
		parts = append(parts, h.EnsureWrapped(schema))
	}
	parts = append(parts, h.EnsureWrapped(table))
	if column != "" {
		parts = append(parts, h.EnsureWrapped(column))
	}
	return strings.Join(parts, ".")
}

func (h *MsSqlHelper) SplitLine(line string) (string, string, bool) {
	return h.base.SplitLine(line, " as ")
}

func (h *MsSqlHelper) Placeholder(index int) string { return "@p" + itoa(index) }

func (h *MsSqlHelper) ScalarFunctionName(fn ScalarFunction, expr string) (string, error) {
	switch fn {
	case Len:
		return fmt.Sprintf("LEN(%s)", expr), nil
	case GetDate:
		return "GETDATE()", nil
	case Abs:
		return fmt.Sprintf("ABS(%s)", expr), nil
	case MD5:
		return fmt.Sprintf("CONVERT(varchar(32), HASHBYTES('MD5', %s), 2)", expr), nil
	default:
		return "", unsupportedFunction("MsSql", fn)
	}
}
