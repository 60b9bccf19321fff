package aggregate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/jas88/fansigo/fansierr"
)

// canonicalOrder is the order components are emitted in when assembling a
// basic (no axis, no pivot) aggregate query.
var canonicalOrder = []QueryComponent{Select, From, JoinInfoJoin, Where, GroupBy, Having, OrderBy, Postfix}

func basicAggregate(s Synthesizer, c *LineCollection) string {
	var sb strings.Builder
	for _, component := range canonicalOrder {
		for _, line := range c.linesFor(component) {
			sql := line.SQL
			if line.Role == CountFunction {
				sql = s.WrapAggregateFunction(sql)
			}
			writeLine(&sb, component, sql)
		}
	}
	return strings.TrimSpace(sb.String())
}

func writeLine(sb *strings.Builder, component QueryComponent, sql string) {
	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}
	sb.WriteString(keywordFor(component))
	sb.WriteString(sql)
}

func keywordFor(c QueryComponent) string {
	switch c {
	case Select:
		return "SELECT "
	case From:
		return "FROM "
	case Where:
		return "WHERE "
	case GroupBy:
		return "GROUP BY "
	case Having:
		return "HAVING "
	case OrderBy:
		return "ORDER BY "
	default:
		return ""
	}
}

// axisAggregate generates a synthetic calendar table via the dialect's CTE
// hook, then left-joins the caller's query as a subquery keyed on the
// axis's date-part.
func axisAggregate(s Synthesizer, d dialectHooks, c *LineCollection) (string, error) {
	axis := *c.Axis
	calendar := d.calendarCTE(axis)
	timeCol := firstLine(c, QueryTimeColumn)
	inner := basicAggregate(s, c)
	bucket := s.DatePart(axis.Increment, "cal.bucket_date")
	sourceBucket := s.DatePart(axis.Increment, timeCol)

	return fmt.Sprintf(`%s
SELECT cal.bucket_date, src.agg_count
FROM calendar cal
LEFT JOIN (
%s
) src ON %s = %s`, calendar, indent(inner), bucket, sourceBucket), nil
}

// pivotOnlyAggregate is the two-phase CASE/PIVOT synthesis: a discovery
// query (see PivotDiscoveryQuery) enumerates distinct pivot values ahead
// of time, and the caller attaches them via LineCollection.WithPivotValues
// before Synthesize is called. Without them, neither a native PIVOT's
// IN(...) list nor the CASE form's per-value columns can be built, so
// synthesis fails rather than emit a query with no enumerated columns.
func pivotOnlyAggregate(s Synthesizer, d dialectHooks, c *LineCollection) (string, error) {
	if !d.pivotSupported() {
		return "", fansierr.NotSupported(fmt.Sprintf("%s does not support pivot aggregates in this implementation", s.Engine()))
	}
	if len(c.PivotValues) == 0 {
		return "", fansierr.PivotValuesRequired(string(s.Engine()))
	}
	pivotCol := firstLine(c, Select)
	if len(c.linesWithRole(Pivot)) > 0 {
		pivotCol = c.linesWithRole(Pivot)[0].SQL
	}
	if d.nativePivot() {
		return nativePivotQuery(s, d, c, pivotCol, c.PivotValues), nil
	}
	return casePivotQuery(s, c, pivotCol, c.PivotValues), nil
}

func pivotAndAxisAggregate(s Synthesizer, d dialectHooks, c *LineCollection) (string, error) {
	if !d.pivotSupported() {
		return "", fansierr.NotSupported(fmt.Sprintf("%s does not support pivot aggregates in this implementation", s.Engine()))
	}
	axis := *c.Axis
	calendar := d.calendarCTE(axis)
	pivotCol := firstLine(c, Select)
	if len(c.linesWithRole(Pivot)) > 0 {
		pivotCol = c.linesWithRole(Pivot)[0].SQL
	}
	timeCol := firstLine(c, QueryTimeColumn)
	inner := basicAggregate(s, c)
	bucket := s.DatePart(axis.Increment, "cal.bucket_date")
	sourceBucket := s.DatePart(axis.Increment, timeCol)

	return fmt.Sprintf(`%s,
pivot_values AS (
SELECT DISTINCT %s AS pivot_value FROM (
%s
) p
)
SELECT cal.bucket_date, pv.pivot_value, src.agg_count
FROM calendar cal
CROSS JOIN pivot_values pv
LEFT JOIN (
%s
) src ON %s = %s AND src.pivot_value = pv.pivot_value`,
		calendar, pivotCol, indent(inner), indent(inner), bucket, sourceBucket), nil
}

// PivotDiscoveryQuery returns the SQL that enumerates the distinct values
// of c's pivot column. Run it against the target connection and attach
// the resulting values with c.WithPivotValues before calling a
// Synthesizer's Synthesize method.
func PivotDiscoveryQuery(c *LineCollection) (string, error) {
	if !c.hasPivot() {
		return "", fansierr.NotSupported("line collection has no pivot column set")
	}
	pivotCol := firstLine(c, Select)
	if len(c.linesWithRole(Pivot)) > 0 {
		pivotCol = c.linesWithRole(Pivot)[0].SQL
	}
	return pivotDiscoveryQuery(c, pivotCol), nil
}

func pivotDiscoveryQuery(c *LineCollection, pivotCol string) string {
	var sb strings.Builder
	sb.WriteString("SELECT DISTINCT ")
	sb.WriteString(pivotCol)
	for _, l := range c.linesFor(From) {
		sb.WriteString("\nFROM ")
		sb.WriteString(l.SQL)
	}
	for _, l := range c.linesFor(Having) {
		sb.WriteString("\nHAVING ")
		sb.WriteString(l.SQL)
	}
	for _, l := range c.linesWithRole(TopX) {
		sb.WriteString("\n")
		sb.WriteString(l.SQL)
	}
	return sb.String()
}

// nativePivotQuery builds the enumerated IN(...) list a native PIVOT
// operator requires, quoting each discovered value as an identifier since
// it becomes an output column name.
func nativePivotQuery(s Synthesizer, d dialectHooks, c *LineCollection, pivotCol string, values []string) string {
	inner := basicAggregate(s, c)
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = d.quoteIdentifier(v)
	}
	return fmt.Sprintf(`SELECT * FROM (
%s
) src
PIVOT (
  %s FOR %s IN (%s)
) pv`, indent(inner), aggregateExprFor(c), pivotCol, strings.Join(quoted, ","))
}

// casePivotQuery emits one CASE WHEN ... THEN ... ELSE NULL END column per
// discovered pivot value, aliased to a sanitized form of that value.
func casePivotQuery(s Synthesizer, c *LineCollection, pivotCol string, values []string) string {
	inner := basicAggregate(s, c)
	aggExpr := aggregateExprFor(c)
	var cols strings.Builder
	for _, v := range values {
		fmt.Fprintf(&cols, ",\n  CASE WHEN %s = '%s' THEN %s ELSE NULL END AS %s",
			pivotCol, escapeLiteral(v), aggExpr, pivotColumnAlias(v))
	}
	return fmt.Sprintf(`SELECT *%s
FROM (
%s
) src`, cols.String(), indent(inner))
}

// escapeLiteral doubles embedded single quotes, the ANSI SQL escape for a
// string literal shared by every dialect this package targets.
func escapeLiteral(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// pivotColumnAlias turns a discovered pivot value into a safe bare SQL
// identifier: non-alphanumeric runs collapse to a single underscore, and a
// leading digit (or an empty result) gets a "v_" prefix so the alias never
// looks like a number.
func pivotColumnAlias(v string) string {
	var sb strings.Builder
	lastWasUnderscore := false
	for _, r := range v {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			lastWasUnderscore = false
			continue
		}
		if !lastWasUnderscore {
			sb.WriteByte('_')
			lastWasUnderscore = true
		}
	}
	alias := strings.Trim(sb.String(), "_")
	if alias == "" {
		return "v_"
	}
	if unicode.IsDigit(rune(alias[0])) {
		alias = "v_" + alias
	}
	return alias
}

func aggregateExprFor(c *LineCollection) string {
	for _, l := range c.linesWithRole(CountFunction) {
		return l.SQL
	}
	return "COUNT(*)"
}

func firstLine(c *LineCollection, component QueryComponent) string {
	lines := c.linesFor(component)
	if len(lines) == 0 {
		return ""
	}
	return lines[0].SQL
}

func indent(sql string) string {
	lines := strings.Split(sql, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
