package syntax

import (
	"fmt"
	"strings"
)

// OracleHelper implements Helper for Oracle: double-quote quoting, :N
// bind variables, uppercase unquoted identifiers. A database on Oracle
// corresponds to a user/schema, so db and schema collapse onto the same
// qualifier slot.
type OracleHelper struct {
	base baseHelper
}

func NewOracleHelper() *OracleHelper {
	return &OracleHelper{base: baseHelper{openQuote: '"', closeQuote: '"', uppercase: true}}
}

func (h *OracleHelper) Wrap(identifier string) string          { return h.base.Wrap(identifier) }
func (h *OracleHelper) EnsureWrapped(identifier string) string { return h.base.EnsureWrapped(identifier) }
func (h *OracleHelper) RuntimeName(s string) string            { return h.base.RuntimeName(s) }
func (h *OracleHelper) ValidateName(name string) error         { return h.base.ValidateName(name) }

func (h *OracleHelper) EnsureFullyQualified(db, schema, table, column string) string {
	parts := []string{}
	owner := schema
	if owner == "" {
		owner = db
	}
	if owner != "" {
		parts = append(parts, h.EnsureWrapped(owner))
	}
	parts = append(parts, h.EnsureWrapped(table))
	if column != "" {
		parts = append(parts, h.EnsureWrapped(column))
	}
	return strings.Join(parts, ".")
}

func (h *OracleHelper) SplitLine(line string) (string, string, bool) {
	return h.base.SplitLine(line, " as ")
}

func (h *OracleHelper) Placeholder(index int) string { return fmt.Sprintf(":%d", index) }

func (h *OracleHelper) ScalarFunctionName(fn ScalarFunction, expr string) (string, error) {
	switch fn {
	case Len:
		return fmt.Sprintf("LENGTH(%s)", expr), nil
	case GetDate:
		return "SYSDATE", nil
	case Abs:
		return fmt.Sprintf("ABS(%s)", expr), nil
	case MD5:
		return fmt.Sprintf("RAWTOHEX(DBMS_CRYPTO.HASH(%s, DBMS_CRYPTO.HASH_MD5))", expr), nil
	default:
		return "", unsupportedFunction("Oracle", fn)
	}
}
