package typesystem

import (
	"fmt"
	"strings"

	"github.com/jas88/fansigo/fansierr"
)

// PostgreSqlTranslator implements Translator for PostgreSQL.
type PostgreSqlTranslator struct {
	recognizers []recognizer
}

// postgresMaxVarcharWidth is the width at which the translator prefers the
// unbounded "text" spelling over a sized "character varying(N)".
const postgresMaxVarcharWidth = 10485760

func NewPostgreSqlTranslator() *PostgreSqlTranslator {
	t := &PostgreSqlTranslator{}
	t.recognizers = []recognizer{
		{mustCompile(`^bool(ean)?$`), func(m []string) TypeRequest { return TypeRequest{DataType: Bool} }},
		{mustCompile(`^(smallint|int2)$`), func(m []string) TypeRequest { return TypeRequest{DataType: Int16} }},
		{mustCompile(`^(integer|int4|int)$`), func(m []string) TypeRequest { return TypeRequest{DataType: Int32} }},
		{mustCompile(`^(bigint|int8)$`), func(m []string) TypeRequest { return TypeRequest{DataType: Int64} }},
		{mustCompile(`^real|float4$`), func(m []string) TypeRequest { return TypeRequest{DataType: Float32} }},
		{mustCompile(`^(double precision|float8)$`), func(m []string) TypeRequest { return TypeRequest{DataType: Float64} }},
		{mustCompile(`^(numeric|decimal)\((\d+),(\d+)\)$`), func(m []string) TypeRequest {
			size := DecimalSizeFromPrecisionScale(atoiOr(m[2], 18), atoiOr(m[3], 0))
			return TypeRequest{DataType: Decimal, Decimal: &size}
		}},
		{mustCompile(`^uuid$`), func(m []string) TypeRequest { return TypeRequest{DataType: Guid} }},
		{mustCompile(`^timestamp( without time zone)?$`), func(m []string) TypeRequest { return TypeRequest{DataType: DateTime} }},
		{mustCompile(`^date$`), func(m []string) TypeRequest { return TypeRequest{DataType: DateOnly} }},
		{mustCompile(`^time( without time zone)?$`), func(m []string) TypeRequest { return TypeRequest{DataType: TimeOnly} }},
		{mustCompile(`^interval$`), func(m []string) TypeRequest { return TypeRequest{DataType: TimeSpan} }},
		{mustCompile(`^bytea$`), func(m []string) TypeRequest { return TypeRequest{DataType: ByteArray} }},
		{mustCompile(`^text$`), func(m []string) TypeRequest { return TypeRequest{DataType: String}.WithUnbounded() }},
		{mustCompile(`^character varying\((\d+)\)$`), func(m []string) TypeRequest {
			return TypeRequest{DataType: String}.WithWidth(atoiOr(m[1], 1))
		}},
		{mustCompile(`^character varying$`), func(m []string) TypeRequest { return TypeRequest{DataType: String}.WithUnbounded() }},
	}
	return t
}

func (t *PostgreSqlTranslator) Engine() Engine { return PostgreSql }

func (t *PostgreSqlTranslator) UnboundedThreshold(unicode bool) int { return postgresMaxVarcharWidth }

func (t *PostgreSqlTranslator) DefaultStringWidth() int { return 50 }

func (t *PostgreSqlTranslator) GuesserFor(current TypeRequest) *Guesser { return NewGuesser(t, current) }

func (t *PostgreSqlTranslator) SQLTypeFor(req TypeRequest) (string, error) {
	switch req.DataType {
	case Bool:
		return "boolean", nil
	case Byte:
		return "smallint", nil
	case Int16:
		return "smallint", nil
	case Int32:
		return "integer", nil
	case Int64:
		return "bigint", nil
	case Float32:
		return "real", nil
	case Float64:
		return "double precision", nil
	case Decimal:
		size := req.Decimal
		if size == nil {
			return "numeric(18,0)", nil
		}
		return fmt.Sprintf("numeric(%d,%d)", size.Precision(), size.Scale()), nil
	case Guid:
		return "uuid", nil
	case DateTime:
		return "timestamp", nil
	case DateOnly:
		return "date", nil
	case TimeOnly:
		return "time", nil
	case TimeSpan:
		return "interval", nil
	case ByteArray:
		return "bytea", nil
	case String:
		if req.Unbounded {
			return "text", nil
		}
		width := t.DefaultStringWidth()
		if req.Width != nil {
			width = *req.Width
		}
		if width > postgresMaxVarcharWidth {
			return "text", nil
		}
		return fmt.Sprintf("character varying(%d)", width), nil
	default:
		return "", fansierr.TypeNotMapped(fmt.Sprintf("PostgreSql/%s", req.DataType))
	}
}

func (t *PostgreSqlTranslator) TypeRequestFor(sqlType string) (TypeRequest, bool) {
	s := strings.TrimSpace(sqlType)
	for _, r := range t.recognizers {
		if m := r.Pattern.FindStringSubmatch(s); m != nil {
			return r.Build(m), true
		}
	}
	return TypeRequest{}, false
}
