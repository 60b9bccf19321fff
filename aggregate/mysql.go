package aggregate

import (
	"fmt"

	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

var mysqlIdentifierHelper = syntax.NewMySqlHelper()

// MySqlSynthesizer implements Synthesizer for MySQL. MySQL has no native
// PIVOT, so pivot aggregates fall back to the CASE form.
type MySqlSynthesizer struct{}

func NewMySqlSynthesizer() *MySqlSynthesizer { return &MySqlSynthesizer{} }

func (s *MySqlSynthesizer) Engine() typesystem.Engine { return typesystem.MySql }

func (s *MySqlSynthesizer) Synthesize(c *LineCollection) (string, error) { return route(s, s, c) }

func (s *MySqlSynthesizer) WrapAggregateFunction(fnCall string) string { return fnCall }

func (s *MySqlSynthesizer) DatePart(inc Increment, col string) string {
	switch inc {
	case Day:
		return fmt.Sprintf("DATE(%s)", col)
	case Month:
		return fmt.Sprintf("DATE_FORMAT(%s,'%%Y-%%m')", col)
	case Quarter:
		return quarterBucketExpr(col, "YEAR(%s)", "QUARTER(%s)", concatWithFunction)
	case Year:
		return fmt.Sprintf("YEAR(%s)", col)
	default:
		return col
	}
}

func (s *MySqlSynthesizer) pivotSupported() bool { return true }
func (s *MySqlSynthesizer) nativePivot() bool     { return false }

// quoteIdentifier is unused on this path (MySQL has no native PIVOT), but
// implements dialectHooks the same way every other synthesizer does.
func (s *MySqlSynthesizer) quoteIdentifier(v string) string { return mysqlIdentifierHelper.Wrap(v) }

func (s *MySqlSynthesizer) calendarCTE(axis QueryAxis) string {
	return fmt.Sprintf(`WITH RECURSIVE calendar AS (
  SELECT CAST('%s' AS date) AS bucket_date
  UNION ALL
  SELECT bucket_date + INTERVAL 1 DAY
  FROM calendar
  WHERE bucket_date < '%s'
)`, axis.StartDate.Format("2006-01-02"), axis.EndDate.Format("2006-01-02"))
}
