package aggregate

import (
	"fmt"

	"github.com/jas88/fansigo/syntax"
	"github.com/jas88/fansigo/typesystem"
)

var postgresIdentifierHelper = syntax.NewPostgreSqlHelper()

// PostgreSqlSynthesizer implements Synthesizer for PostgreSQL. PostgreSQL
// reports pivot as unsupported in this implementation.
type PostgreSqlSynthesizer struct{}

func NewPostgreSqlSynthesizer() *PostgreSqlSynthesizer { return &PostgreSqlSynthesizer{} }

func (s *PostgreSqlSynthesizer) Engine() typesystem.Engine { return typesystem.PostgreSql }

func (s *PostgreSqlSynthesizer) Synthesize(c *LineCollection) (string, error) { return route(s, s, c) }

func (s *PostgreSqlSynthesizer) WrapAggregateFunction(fnCall string) string { return fnCall }

func (s *PostgreSqlSynthesizer) DatePart(inc Increment, col string) string {
	switch inc {
	case Day:
		return fmt.Sprintf("date_trunc('day', %s)", col)
	case Month:
		return fmt.Sprintf("to_char(%s,'YYYY-MM')", col)
	case Quarter:
		return fmt.Sprintf("to_char(%s,'YYYY\"Q\"Q')", col)
	case Year:
		return fmt.Sprintf("EXTRACT(YEAR FROM %s)", col)
	default:
		return col
	}
}

func (s *PostgreSqlSynthesizer) pivotSupported() bool { return false }
func (s *PostgreSqlSynthesizer) nativePivot() bool     { return false }

// quoteIdentifier is unreachable (pivot is unsupported here), but
// implements dialectHooks the same way every other synthesizer does.
func (s *PostgreSqlSynthesizer) quoteIdentifier(v string) string {
	return postgresIdentifierHelper.Wrap(v)
}

// calendarCTE uses generate_series, PostgreSQL's native date-range
// generator, rather than a recursive CTE.
func (s *PostgreSqlSynthesizer) calendarCTE(axis QueryAxis) string {
	return fmt.Sprintf(`WITH calendar AS (
  SELECT generate_series('%s'::date, '%s'::date, interval '1 day') AS bucket_date
)`, axis.StartDate.Format("2006-01-02"), axis.EndDate.Format("2006-01-02"))
}
