package aggregate

import (
	"fmt"

	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

var mssqlIdentifierHelper = syntax.NewMsSqlHelper()

// MsSqlSynthesizer implements Synthesizer for SQL Server. SQL Server has a
// native PIVOT operator, which this synthesizer uses directly.
type MsSqlSynthesizer struct{}

func NewMsSqlSynthesizer() *MsSqlSynthesizer { return &MsSqlSynthesizer{} }

func (s *MsSqlSynthesizer) Engine() typesystem.Engine { return typesystem.MsSql }

func (s *MsSqlSynthesizer) Synthesize(c *LineCollection) (string, error) { return route(s, s, c) }

func (s *MsSqlSynthesizer) WrapAggregateFunction(fnCall string) string { return fnCall }

func (s *MsSqlSynthesizer) DatePart(inc Increment, col string) string {
	switch inc {
	case Day:
		return fmt.Sprintf("CONVERT(date, %s)", col)
	case Month:
		return fmt.Sprintf("CONVERT(char(7), %s, 126)", col)
	case Quarter:
		return quarterBucketExpr(col, "DATEPART(year, %s)", "DATEPART(quarter, %s)", concatWithFunction)
	case Year:
		return fmt.Sprintf("YEAR(%s)", col)
	default:
		return col
	}
}

func (s *MsSqlSynthesizer) pivotSupported() bool { return true }
func (s *MsSqlSynthesizer) nativePivot() bool     { return true }

// quoteIdentifier brackets v the same way any other SQL Server identifier
// is quoted: a pivoted value becomes an output column name.
func (s *MsSqlSynthesizer) quoteIdentifier(v string) string { return mssqlIdentifierHelper.Wrap(v) }

// calendarCTE builds a recursive CTE counting from start_date to end_date,
// one row per day, which DatePart then buckets to the requested increment.
func (s *MsSqlSynthesizer) calendarCTE(axis QueryAxis) string {
	return fmt.Sprintf(`WITH calendar AS (
  SELECT CAST('%s' AS date) AS bucket_date
  UNION ALL
  SELECT DATEADD(day, 1, bucket_date)
  FROM calendar
  WHERE bucket_date < '%s'
)`, axis.StartDate.Format("2006-01-02"), axis.EndDate.Format("2006-01-02"))
}

// quarterBucketExpr builds the "yyyyQn" quarter-bucket string from
// dialect-specific year/quarter extraction format strings, concatenated
// with concatFn (e.g. CONCAT(...) or the || operator).
func quarterBucketExpr(col, yearFmt, quarterFmt string, concatFn func(...string) string) string {
	year := fmt.Sprintf(yearFmt, col)
	quarter := fmt.Sprintf(quarterFmt, col)
	return concatFn(year, "'Q'", quarter)
}

func concatWithFunction(parts ...string) string {
	return fmt.Sprintf("CONCAT(%s)", joinComma(parts))
}

func concatWithOperator(parts ...string) string {
	return joinOperator(parts, " || ")
}

func joinComma(parts []string) string {
	return joinOperator(parts, ", ")
}

func joinOperator(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
