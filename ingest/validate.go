package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jas88/fansigo/fansierr"
	"github.com/shopspring/decimal"
)

// Row is one source row, one value per source column, indexed by ordinal.
type Row []any

// ValidateBatch runs the row-validation pass over every row, applying
// every rule in order. The first failure aborts the whole batch: no
// partial insert occurs downstream.
func ValidateBatch(rows []Row, rules []ColumnRule) error {
	for i, row := range rows {
		if err := validateRow(i+1, row, rules); err != nil {
			return err
		}
	}
	return nil
}

func validateRow(rowIndex int, row Row, rules []ColumnRule) error {
	for _, rule := range rules {
		if rule.SourceOrdinal >= len(row) {
			continue
		}
		value := row[rule.SourceOrdinal]

		// Blank-string coercion to null happens before every other check.
		if s, ok := value.(string); ok && s == "" {
			value = nil
			row[rule.SourceOrdinal] = nil
		}

		if value == nil {
			if rule.RejectNulls {
				return fansierr.NewValidation(rule.SourceColumn, rowIndex, value, "column does not accept null")
			}
			continue
		}

		switch {
		case rule.isString:
			if err := validateString(rule, rowIndex, value); err != nil {
				return err
			}
		case rule.isDecimal:
			if err := validateDecimal(rule, rowIndex, value); err != nil {
				return err
			}
		case rule.isInteger:
			if err := validateInteger(rule, rowIndex, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateString(rule ColumnRule, rowIndex int, value any) error {
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprintf("%v", value)
	}
	if rule.maxLength > 0 && len(s) > rule.maxLength {
		return fansierr.NewValidation(rule.SourceColumn, rowIndex, value,
			fmt.Sprintf("length %d exceeds max length %d", len(s), rule.maxLength))
	}
	return nil
}

func validateDecimal(rule ColumnRule, rowIndex int, value any) error {
	s, d, err := toDecimal(value)
	if err != nil {
		return fansierr.NewValidation(rule.SourceColumn, rowIndex, value, "value is not a valid decimal")
	}
	if !rule.maxAbs.IsZero() && d.Abs().GreaterThanOrEqual(rule.maxAbs) {
		return fansierr.NewValidation(rule.SourceColumn, rowIndex, value,
			fmt.Sprintf("magnitude exceeds precision bound %s", rule.maxAbs.String()))
	}
	if places := decimalPlaces(s); places > rule.scale {
		return fansierr.NewValidation(rule.SourceColumn, rowIndex, value,
			fmt.Sprintf("%d decimal places exceeds scale %d", places, rule.scale))
	}
	return nil
}

func validateInteger(rule ColumnRule, rowIndex int, value any) error {
	n, err := toInt64(value)
	if err != nil {
		return fansierr.NewValidation(rule.SourceColumn, rowIndex, value, "value is not a valid integer")
	}
	if n < rule.intMin || n > rule.intMax {
		return fansierr.NewValidation(rule.SourceColumn, rowIndex, value,
			fmt.Sprintf("value %d outside range [%d,%d]", n, rule.intMin, rule.intMax))
	}
	return nil
}

func toDecimal(value any) (string, decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v.String(), v, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return v, d, err
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), decimal.NewFromFloat(v), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), decimal.NewFromFloat(float64(v)), nil
	case int64:
		return strconv.FormatInt(v, 10), decimal.NewFromInt(v), nil
	case int:
		return strconv.Itoa(v), decimal.NewFromInt(int64(v)), nil
	default:
		return "", decimal.Decimal{}, fmt.Errorf("ingest: unsupported decimal source type %T", value)
	}
}

func toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("ingest: unsupported integer source type %T", value)
	}
}
