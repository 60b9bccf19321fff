package aggregate

import (
	"fmt"

	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

var oracleIdentifierHelper = syntax.NewOracleHelper()

// OracleSynthesizer implements Synthesizer for Oracle. Oracle's AVG() can
// overflow precision on large datasets, so the dialect hook wraps it in
// ROUND(..., 10).
type OracleSynthesizer struct{}

func NewOracleSynthesizer() *OracleSynthesizer { return &OracleSynthesizer{} }

func (s *OracleSynthesizer) Engine() typesystem.Engine { return typesystem.Oracle }

func (s *OracleSynthesizer) Synthesize(c *LineCollection) (string, error) { return route(s, s, c) }

func (s *OracleSynthesizer) WrapAggregateFunction(fnCall string) string {
	if len(fnCall) >= 4 && (fnCall[:4] == "AVG(" || fnCall[:4] == "avg(") {
		return fmt.Sprintf("ROUND(%s, 10)", fnCall)
	}
	return fnCall
}

func (s *OracleSynthesizer) DatePart(inc Increment, col string) string {
	switch inc {
	case Day:
		return fmt.Sprintf("TRUNC(%s)", col)
	case Month:
		return fmt.Sprintf("to_char(%s,'YYYY-MM')", col)
	case Quarter:
		return fmt.Sprintf("to_char(%s,'YYYY\"Q\"Q')", col)
	case Year:
		return fmt.Sprintf("to_number(to_char(%s,'YYYY'))", col)
	default:
		return col
	}
}

func (s *OracleSynthesizer) pivotSupported() bool { return true }
func (s *OracleSynthesizer) nativePivot() bool     { return false }

// quoteIdentifier is unused on this path (Oracle pivots via the CASE
// form here), but implements dialectHooks the same way every other
// synthesizer does.
func (s *OracleSynthesizer) quoteIdentifier(v string) string { return oracleIdentifierHelper.Wrap(v) }

// calendarCTE uses CONNECT BY rownum <= N from DUAL, Oracle's idiom for
// generating a fixed-size row sequence without a source table: one row per
// day from start_date to end_date, which DatePart then buckets.
func (s *OracleSynthesizer) calendarCTE(axis QueryAxis) string {
	n := int(axis.EndDate.Sub(axis.StartDate).Hours()/24) + 1
	return fmt.Sprintf(`WITH calendar AS (
  SELECT DATE '%s' + (rownum - 1) AS bucket_date
  FROM dual
  CONNECT BY rownum <= %d
)`, axis.StartDate.Format("2006-01-02"), n)
}
