package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jas88/fansigo/typesystem"
)

// dateOrderingSample is how many leading non-null values DayMonthOrder
// inspects before committing to an ordering.
const dateOrderingSample = 500

// DayOrder is which of the ambiguous numeric positions in "dd/mm" vs
// "mm/dd" formatted dates is the day.
type DayOrder int

const (
	DayFirst DayOrder = iota
	MonthFirst
)

// SniffDayOrder inspects up to the first 500 non-null string values and
// decides whether the first numeric field of a slash- or dash-separated
// date is the day or the month: any value whose first field exceeds 12
// proves DayFirst; otherwise MonthFirst is assumed.
func SniffDayOrder(values []string) DayOrder {
	checked := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		checked++
		if checked > dateOrderingSample {
			break
		}
		parts := splitDateParts(v)
		if len(parts) < 2 {
			continue
		}
		first, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		if first > 12 {
			return DayFirst
		}
	}
	return MonthFirst
}

func splitDateParts(v string) []string {
	v = strings.SplitN(v, " ", 2)[0] // drop a time-of-day suffix
	for _, sep := range []string{"/", "-"} {
		if strings.Contains(v, sep) {
			return strings.Split(v, sep)
		}
	}
	return nil
}

// ParseDateTime parses s as a date/time value honoring order (day-first or
// month-first for the ambiguous numeric layout). Returns an error naming s
// when it cannot be parsed under either layout family.
func ParseDateTime(s string, order DayOrder) (time.Time, error) {
	s = strings.TrimSpace(s)
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	slashLayouts := []string{"01/02/2006 15:04:05", "01/02/2006"}
	if order == DayFirst {
		slashLayouts = []string{"02/01/2006 15:04:05", "02/01/2006"}
	}
	for _, layout := range slashLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("ingest: cannot parse %q as a date/time value", s)
}

// ConvertColumn is a string source column that the caller has determined
// needs string-to-hard-type conversion before validation: the
// "problematic" logical types DateTime/TimeSpan/Decimal whose source is
// string-typed.
type ConvertColumn struct {
	SourceOrdinal int
	LogicalType   typesystem.DataType
}

// ConvertProblematicColumns rewrites, in place, every value at each
// ConvertColumn's ordinal from its string spelling to the destination's
// hard type (time.Time for DateTime/DateOnly/TimeOnly, time.Duration for
// TimeSpan, decimal.Decimal for Decimal), preserving row order and the
// column's ordinal. An unparseable value aborts the whole load with a
// row-indexed error.
func ConvertProblematicColumns(rows []Row, columns []ConvertColumn) error {
	for _, col := range columns {
		var order DayOrder
		if col.LogicalType == typesystem.DateTime || col.LogicalType == typesystem.DateOnly {
			order = SniffDayOrder(collectColumn(rows, col.SourceOrdinal))
		}
		for i, row := range rows {
			if col.SourceOrdinal >= len(row) {
				continue
			}
			raw, ok := row[col.SourceOrdinal].(string)
			if !ok || raw == "" {
				continue
			}
			converted, err := convertOne(raw, col.LogicalType, order)
			if err != nil {
				return fmt.Errorf("ingest: row %d: %w", i+1, err)
			}
			row[col.SourceOrdinal] = converted
		}
	}
	return nil
}

func collectColumn(rows []Row, ordinal int) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if ordinal >= len(row) {
			continue
		}
		if s, ok := row[ordinal].(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func convertOne(raw string, logicalType typesystem.DataType, order DayOrder) (any, error) {
	switch logicalType {
	case typesystem.DateTime, typesystem.DateOnly:
		return ParseDateTime(raw, order)
	case typesystem.TimeOnly:
		if t, err := time.Parse("15:04:05", strings.TrimSpace(raw)); err == nil {
			return t, nil
		}
		return ParseDateTime(raw, order)
	case typesystem.TimeSpan:
		return time.ParseDuration(raw)
	case typesystem.Decimal:
		_, d, err := toDecimal(raw)
		return d, err
	default:
		return raw, nil
	}
}
