package typesystem

import (
	"fmt"
	"strings"

	"github.com/jas88/fansigo/fansierr"
)

// OracleTranslator implements Translator for Oracle. Oracle has no native
// boolean or fixed-width integer types, so every integral DataType
// round-trips through NUMBER(p,0); a bare NUMBER with no declared precision
// is treated as NUMBER(38), the widest value Oracle can store without
// silently truncating an unknown-precision column.
type OracleTranslator struct {
	recognizers []recognizer
}

const (
	oracleMaxVarchar2Width = 4000
	oracleDefaultPrecision = 38
)

func NewOracleTranslator() *OracleTranslator {
	t := &OracleTranslator{}
	t.recognizers = []recognizer{
		{mustCompile(`^binary_float$`), func(m []string) TypeRequest { return TypeRequest{DataType: Float32} }},
		{mustCompile(`^binary_double$`), func(m []string) TypeRequest { return TypeRequest{DataType: Float64} }},
		{mustCompile(`^number$`), func(m []string) TypeRequest {
			return numberWidthType(oracleDefaultPrecision, 0)
		}},
		{mustCompile(`^number\((\d+)\)$`), func(m []string) TypeRequest {
			return numberWidthType(atoiOr(m[1], oracleDefaultPrecision), 0)
		}},
		{mustCompile(`^number\((\d+),(\d+)\)$`), func(m []string) TypeRequest {
			return numberWidthType(atoiOr(m[1], oracleDefaultPrecision), atoiOr(m[2], 0))
		}},
		{mustCompile(`^raw\(16\)$`), func(m []string) TypeRequest { return TypeRequest{DataType: Guid} }},
		{mustCompile(`^timestamp(\(\d+\))?$`), func(m []string) TypeRequest { return TypeRequest{DataType: DateTime} }},
		{mustCompile(`^date$`), func(m []string) TypeRequest { return TypeRequest{DataType: DateTime} }},
		{mustCompile(`^(blob|long raw|raw\(\d+\))$`), func(m []string) TypeRequest { return TypeRequest{DataType: ByteArray} }},
		{mustCompile(`^(clob|nclob)$`), func(m []string) TypeRequest {
			return TypeRequest{DataType: String, Unicode: strings.HasPrefix(strings.ToLower(m[0]), "n")}.WithUnbounded()
		}},
		{mustCompile(`^n?varchar2\((\d+)\)$`), func(m []string) TypeRequest {
			return TypeRequest{DataType: String, Unicode: strings.HasPrefix(strings.ToLower(m[0]), "n")}.WithWidth(atoiOr(m[1], 1))
		}},
	}
	return t
}

// numberWidthType maps a NUMBER(precision,scale) spelling back to a
// TypeRequest: the five canonical unscaled precisions (1, 3, 5, 10, 19)
// round-trip to Bool, Byte, Int16, Int32 and Int64 respectively; every other precision/scale
// pair, including the unconstrained NUMBER(38) ALL_TAB_COLUMNS reports for
// a null-scale column, is a Decimal.
func numberWidthType(precision, scale int) TypeRequest {
	if scale == 0 {
		switch precision {
		case 1:
			return TypeRequest{DataType: Bool}
		case 3:
			return TypeRequest{DataType: Byte}
		case 5:
			return TypeRequest{DataType: Int16}
		case 10:
			return TypeRequest{DataType: Int32}
		case 19:
			return TypeRequest{DataType: Int64}
		}
	}
	size := DecimalSizeFromPrecisionScale(precision, scale)
	return TypeRequest{DataType: Decimal, Decimal: &size}
}

func (t *OracleTranslator) Engine() Engine { return Oracle }

func (t *OracleTranslator) UnboundedThreshold(unicode bool) int { return oracleMaxVarchar2Width }

func (t *OracleTranslator) DefaultStringWidth() int { return 50 }

func (t *OracleTranslator) GuesserFor(current TypeRequest) *Guesser { return NewGuesser(t, current) }

func (t *OracleTranslator) SQLTypeFor(req TypeRequest) (string, error) {
	switch req.DataType {
	case Bool:
		return "number(1)", nil
	case Byte:
		return "number(3)", nil
	case Int16:
		return "number(5)", nil
	case Int32:
		return "number(10)", nil
	case Int64:
		return "number(19)", nil
	case Float32:
		return "binary_float", nil
	case Float64:
		return "binary_double", nil
	case Decimal:
		size := req.Decimal
		if size == nil {
			return fmt.Sprintf("number(%d,0)", oracleDefaultPrecision), nil
		}
		return fmt.Sprintf("number(%d,%d)", size.Precision(), size.Scale()), nil
	case Guid:
		return "raw(16)", nil
	case DateTime:
		return "timestamp", nil
	case DateOnly:
		return "date", nil
	case TimeOnly, TimeSpan:
		return "varchar2(16)", nil
	case ByteArray:
		return "blob", nil
	case String:
		return t.stringSpelling(req), nil
	default:
		return "", fansierr.TypeNotMapped(fmt.Sprintf("Oracle/%s", req.DataType))
	}
}

func (t *OracleTranslator) stringSpelling(req TypeRequest) string {
	prefix := ""
	if req.Unicode {
		prefix = "n"
	}
	if req.Unbounded || (req.Width != nil && *req.Width > oracleMaxVarchar2Width) {
		if prefix == "n" {
			return "nclob"
		}
		return "clob"
	}
	width := t.DefaultStringWidth()
	if req.Width != nil {
		width = *req.Width
	}
	return fmt.Sprintf("%svarchar2(%d)", prefix, width)
}

func (t *OracleTranslator) TypeRequestFor(sqlType string) (TypeRequest, bool) {
	s := strings.TrimSpace(sqlType)
	for _, r := range t.recognizers {
		if m := r.Pattern.FindStringSubmatch(s); m != nil {
			return r.Build(m), true
		}
	}
	return TypeRequest{}, false
}
