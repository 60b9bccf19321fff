// Package aggregate implements the per-dialect aggregate synthesizer:
// construction of GROUP BY queries optionally padded with a dense calendar
// axis and/or pivoted on a second column. Each dialect holds its own
// query fragments, assembled by a shared driver.
package aggregate

import (
	"time"

	"github.com/jas88/fansigo/typesystem"
)

// QueryComponent is the logical slot a Line occupies in the synthesized
// query.
type QueryComponent int

const (
	Select QueryComponent = iota
	QueryTimeColumn
	From
	Where
	GroupBy
	Having
	OrderBy
	JoinInfoJoin
	Postfix
)

// LineRole is the optional annotation a Line carries beyond its component.
type LineRole int

const (
	NoRole LineRole = iota
	CountFunction
	Axis
	Pivot
	TopX
)

// Line is one annotated SQL fragment in the input line collection.
type Line struct {
	Component QueryComponent
	Role      LineRole
	SQL       string
}

// Increment is the calendar granularity used to pad aggregate results.
type Increment int

const (
	Day Increment = iota
	Month
	Quarter
	Year
)

// QueryAxis describes the dense calendar range an axis aggregate pads its
// result set with.
type QueryAxis struct {
	StartDate time.Time
	EndDate   time.Time
	Increment Increment
}

// BucketCount returns the number of calendar buckets between StartDate and
// EndDate inclusive, the row count an axis aggregate's result set must
// equal regardless of how many source rows exist.
func (a QueryAxis) BucketCount() int {
	switch a.Increment {
	case Day:
		return int(a.EndDate.Sub(a.StartDate).Hours()/24) + 1
	case Month:
		return monthsBetween(a.StartDate, a.EndDate) + 1
	case Quarter:
		startQ := a.StartDate.Year()*4 + (int(a.StartDate.Month())-1)/3
		endQ := a.EndDate.Year()*4 + (int(a.EndDate.Month())-1)/3
		return endQ - startQ + 1
	case Year:
		return a.EndDate.Year() - a.StartDate.Year() + 1
	default:
		return 0
	}
}

func monthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

// LineCollection is the builder an application assembles programmatically
// to feed the synthesizer. Whatever higher-level query-expression layer an
// application uses to produce this collection lives outside this package.
type LineCollection struct {
	Lines []Line
	Axis  *QueryAxis

	// PivotValues are the distinct values of the pivot column, discovered
	// by running the query returned by PivotDiscoveryQuery and fed back
	// via WithPivotValues. Pivot-only synthesis of a collection carrying a
	// Pivot-role line but no PivotValues fails rather than emit a query
	// with no enumerated pivot columns; axis+pivot synthesis does not read
	// PivotValues and enumerates the values in SQL through a pivot_values
	// CTE instead.
	PivotValues []string
}

func NewLineCollection() *LineCollection {
	return &LineCollection{}
}

// WithPivotValues attaches the distinct pivot-column values discovered by
// running PivotDiscoveryQuery's output against the target connection.
func (c *LineCollection) WithPivotValues(values []string) *LineCollection {
	c.PivotValues = values
	return c
}

// Add appends a plain line with no role.
func (c *LineCollection) Add(component QueryComponent, sql string) *LineCollection {
	c.Lines = append(c.Lines, Line{Component: component, SQL: sql})
	return c
}

// AddRole appends a line annotated with a role.
func (c *LineCollection) AddRole(component QueryComponent, role LineRole, sql string) *LineCollection {
	c.Lines = append(c.Lines, Line{Component: component, Role: role, SQL: sql})
	return c
}

// WithAxis attaches a calendar axis to the collection.
func (c *LineCollection) WithAxis(axis QueryAxis) *LineCollection {
	c.Axis = &axis
	return c
}

func (c *LineCollection) linesFor(component QueryComponent) []Line {
	var out []Line
	for _, l := range c.Lines {
		if l.Component == component {
			out = append(out, l)
		}
	}
	return out
}

func (c *LineCollection) linesWithRole(role LineRole) []Line {
	var out []Line
	for _, l := range c.Lines {
		if l.Role == role {
			out = append(out, l)
		}
	}
	return out
}

func (c *LineCollection) hasPivot() bool {
	return len(c.linesWithRole(Pivot)) > 0
}

// Synthesizer is the per-dialect aggregate SQL synthesis contract.
type Synthesizer interface {
	Engine() typesystem.Engine

	// Synthesize routes to basic/axis/pivot/axis+pivot synthesis depending
	// on what the collection carries.
	Synthesize(c *LineCollection) (string, error)

	// DatePart spells the SQL expression that extracts increment from the
	// column expression col.
	DatePart(increment Increment, col string) string

	// WrapAggregateFunction applies a dialect hook around an aggregate
	// function call (Oracle wraps AVG(...) in ROUND(..., 10)).
	WrapAggregateFunction(fnCall string) string
}

// route implements the shared basic/axis/pivot/axis+pivot dispatch; each
// per-dialect synthesizer's Synthesize calls it, passing itself both as the
// Synthesizer (DatePart, WrapAggregateFunction) and as the dialectHooks
// (calendar-CTE generation and pivot support).
func route(s Synthesizer, d dialectHooks, c *LineCollection) (string, error) {
	hasAxis := c.Axis != nil
	hasPivot := c.hasPivot()

	switch {
	case !hasAxis && !hasPivot:
		return basicAggregate(s, c), nil
	case hasAxis && !hasPivot:
		return axisAggregate(s, d, c)
	case !hasAxis && hasPivot:
		return pivotOnlyAggregate(s, d, c)
	default:
		return pivotAndAxisAggregate(s, d, c)
	}
}

// dialectHooks are the handful of non-tabular per-dialect function pointers
// the routing table needs beyond the tabular DatePart/WrapAggregateFunction
// methods already on Synthesizer.
type dialectHooks interface {
	calendarCTE(axis QueryAxis) string
	pivotSupported() bool
	nativePivot() bool

	// quoteIdentifier quotes v the way this dialect quotes an identifier,
	// used to spell each pivot value as an output column name in a native
	// PIVOT's IN(...) list.
	quoteIdentifier(v string) string
}
