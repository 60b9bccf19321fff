// Package ingest implements the bulk-ingest validation pass and the
// per-engine native bulk load step: given a tabular source and a
// destination table, validate every row against every column's
// constraints in a single pass, then hand the validated batch to the
// engine's own bulk-load mechanism.
package ingest

import (
	"strings"

	"github.com/jas88/fansigo/fansierr"
	"github.com/jas88/fansigo/typesystem"
	"github.com/shopspring/decimal"
)

// ColumnRule is the precomputed validation rule for one source->destination
// column pair. Computed once per load, applied once per row.
type ColumnRule struct {
	SourceColumn  string
	SourceOrdinal int
	DestOrdinal   int
	LogicalType   typesystem.TypeRequest

	RejectNulls bool

	isString  bool
	maxLength int // 0 means unbounded

	isDecimal bool
	scale     int
	maxAbs    decimal.Decimal

	isInteger bool
	intMin    int64
	intMax    int64
}

// NewColumnRule precomputes the rule for one destination column.
func NewColumnRule(sourceColumn string, sourceOrdinal, destOrdinal int, logicalType typesystem.TypeRequest, nullable bool) ColumnRule {
	r := ColumnRule{
		SourceColumn:  sourceColumn,
		SourceOrdinal: sourceOrdinal,
		DestOrdinal:   destOrdinal,
		LogicalType:   logicalType,
		RejectNulls:   !nullable,
	}
	switch logicalType.DataType {
	case typesystem.String:
		r.isString = true
		if !logicalType.Unbounded && logicalType.Width != nil {
			r.maxLength = *logicalType.Width
		}
	case typesystem.Decimal:
		r.isDecimal = true
		if logicalType.Decimal != nil {
			r.scale = logicalType.Decimal.Scale()
			r.maxAbs = maxAbsForPrecision(logicalType.Decimal.Precision(), r.scale)
		}
	case typesystem.Byte:
		r.isInteger = true
		r.intMin, r.intMax = 0, 255
	case typesystem.Int16:
		r.isInteger = true
		r.intMin, r.intMax = -32768, 32767
	case typesystem.Int32:
		r.isInteger = true
		r.intMin, r.intMax = -2147483648, 2147483647
	case typesystem.Int64:
		r.isInteger = true
		r.intMin, r.intMax = minInt64, maxInt64
	}
	return r
}

const (
	minInt64 = -(1 << 63)
	maxInt64 = (1 << 63) - 1
)

// maxAbsForPrecision returns 10^(precision-scale), the smallest power of
// ten at or above the largest absolute magnitude a DECIMAL(precision,scale)
// column can hold (i.e. values must be strictly less than this bound).
func maxAbsForPrecision(precision, scale int) decimal.Decimal {
	beforePoint := precision - scale
	if beforePoint < 0 {
		beforePoint = 0
	}
	return decimal.New(1, int32(beforePoint))
}

// BuildRules precomputes one ColumnRule per destination column, matching
// source columns by name. A destination column with no matching source
// column is an error unless tolerateMissing is set, in which case it is
// skipped (bulk load will rely on the destination's own default/nullability).
func BuildRules(sourceColumns []string, destColumns []DestinationColumn, tolerateMissing bool) ([]ColumnRule, error) {
	sourceIndex := make(map[string]int, len(sourceColumns))
	for i, c := range sourceColumns {
		sourceIndex[strings.ToLower(c)] = i
	}

	var rules []ColumnRule
	for destOrdinal, dc := range destColumns {
		srcOrdinal, ok := sourceIndex[strings.ToLower(dc.Name)]
		if !ok {
			if tolerateMissing {
				continue
			}
			return nil, fansierr.ColumnMappingError(dc.Name)
		}
		rules = append(rules, NewColumnRule(dc.Name, srcOrdinal, destOrdinal, dc.LogicalType, dc.Nullable))
	}
	return rules, nil
}

// DestinationColumn is the subset of discovery.Column fields the
// validation pass needs, taken positionally rather than as a
// discovery.Column so rule-building has no dependency on how a column
// was discovered.
type DestinationColumn struct {
	Name        string
	LogicalType typesystem.TypeRequest
	Nullable    bool
}

// decimalPlaces counts significant digits after the decimal point in s,
// after trimming trailing zeros.
func decimalPlaces(s string) int {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	frac := strings.TrimRight(s[dot+1:], "0")
	return len(frac)
}
