package aggregate

import (
	"fmt"

	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

var sqliteIdentifierHelper = syntax.NewSqliteHelper()

// SqliteSynthesizer implements Synthesizer for SQLite. Like PostgreSQL,
// SQLite reports pivot as unsupported in this implementation.
type SqliteSynthesizer struct{}

func NewSqliteSynthesizer() *SqliteSynthesizer { return &SqliteSynthesizer{} }

func (s *SqliteSynthesizer) Engine() typesystem.Engine { return typesystem.Sqlite }

func (s *SqliteSynthesizer) Synthesize(c *LineCollection) (string, error) { return route(s, s, c) }

func (s *SqliteSynthesizer) WrapAggregateFunction(fnCall string) string { return fnCall }

func (s *SqliteSynthesizer) DatePart(inc Increment, col string) string {
	switch inc {
	case Day:
		return fmt.Sprintf("date(%s)", col)
	case Month:
		return fmt.Sprintf("strftime('%%Y-%%m', %s)", col)
	case Quarter:
		return quarterBucketExpr(col, "strftime('%%Y', %s)", "((CAST(strftime('%%m', %s) AS INTEGER)-1)/3+1)", concatWithOperator)
	case Year:
		return fmt.Sprintf("strftime('%%Y', %s)", col)
	default:
		return col
	}
}

func (s *SqliteSynthesizer) pivotSupported() bool { return false }
func (s *SqliteSynthesizer) nativePivot() bool     { return false }

// quoteIdentifier is unreachable (pivot is unsupported here), but
// implements dialectHooks the same way every other synthesizer does.
func (s *SqliteSynthesizer) quoteIdentifier(v string) string { return sqliteIdentifierHelper.Wrap(v) }

// calendarCTE uses a recursive CTE with the date() function, SQLite's
// idiom for generating a bounded date sequence.
func (s *SqliteSynthesizer) calendarCTE(axis QueryAxis) string {
	return fmt.Sprintf(`WITH RECURSIVE calendar AS (
  SELECT date('%s') AS bucket_date
  UNION ALL
  SELECT date(bucket_date, '+1 day')
  FROM calendar
  WHERE bucket_date < '%s'
)`, axis.StartDate.Format("2006-01-02"), axis.EndDate.Format("2006-01-02"))
}
