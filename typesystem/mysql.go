package typesystem

import (
	"fmt"
	"strings"

	"github.com/jas88/fansigo/fansierr"
)

// MySqlTranslator implements Translator for MySQL/MariaDB.
type MySqlTranslator struct {
	recognizers []recognizer
}

// mysqlMaxVarcharWidth is MySQL's practical VARCHAR row-size ceiling before
// the translator prefers longtext (the real limit is row-length dependent;
// this is a dialect-defined constant rather than an engine hard limit).
const mysqlMaxVarcharWidth = 4000

func NewMySqlTranslator() *MySqlTranslator {
	t := &MySqlTranslator{}
	t.recognizers = []recognizer{
		{mustCompile(`^(bit|tinyint\(1\))$`), func(m []string) TypeRequest { return TypeRequest{DataType: Bool} }},
		{mustCompile(`^tinyint`), func(m []string) TypeRequest { return TypeRequest{DataType: Byte} }},
		{mustCompile(`^smallint`), func(m []string) TypeRequest { return TypeRequest{DataType: Int16} }},
		{mustCompile(`^(int|integer|mediumint)`), func(m []string) TypeRequest { return TypeRequest{DataType: Int32} }},
		{mustCompile(`^bigint`), func(m []string) TypeRequest { return TypeRequest{DataType: Int64} }},
		{mustCompile(`^float`), func(m []string) TypeRequest { return TypeRequest{DataType: Float32} }},
		{mustCompile(`^double`), func(m []string) TypeRequest { return TypeRequest{DataType: Float64} }},
		{mustCompile(`^decimal\((\d+),(\d+)\)$`), func(m []string) TypeRequest {
			size := DecimalSizeFromPrecisionScale(atoiOr(m[1], 10), atoiOr(m[2], 0))
			return TypeRequest{DataType: Decimal, Decimal: &size}
		}},
		{mustCompile(`^char\(36\)$`), func(m []string) TypeRequest { return TypeRequest{DataType: Guid} }},
		{mustCompile(`^datetime`), func(m []string) TypeRequest { return TypeRequest{DataType: DateTime} }},
		{mustCompile(`^timestamp`), func(m []string) TypeRequest { return TypeRequest{DataType: DateTime} }},
		{mustCompile(`^date$`), func(m []string) TypeRequest { return TypeRequest{DataType: DateOnly} }},
		{mustCompile(`^time$`), func(m []string) TypeRequest { return TypeRequest{DataType: TimeOnly} }},
		{mustCompile(`^(longblob|blob|mediumblob|tinyblob|binary|varbinary)`), func(m []string) TypeRequest { return TypeRequest{DataType: ByteArray} }},
		{mustCompile(`^longtext$`), func(m []string) TypeRequest { return TypeRequest{DataType: String}.WithUnbounded() }},
		{mustCompile(`^text$`), func(m []string) TypeRequest { return TypeRequest{DataType: String}.WithUnbounded() }},
		{mustCompile(`^varchar\((\d+)\)$`), func(m []string) TypeRequest {
			return TypeRequest{DataType: String}.WithWidth(atoiOr(m[1], 1))
		}},
	}
	return t
}

func (t *MySqlTranslator) Engine() Engine { return MySql }

func (t *MySqlTranslator) UnboundedThreshold(unicode bool) int { return mysqlMaxVarcharWidth }

func (t *MySqlTranslator) DefaultStringWidth() int { return 50 }

func (t *MySqlTranslator) GuesserFor(current TypeRequest) *Guesser { return NewGuesser(t, current) }

// SQLTypeFor implements Translator. MySQL spells Unicode via its column
// charset rather than a distinct type name, so the Unicode flag does not
// change the spelling here; it is carried through so
// round-tripping still reports unicode=true where the caller asked for it
// (TypeRequestFor always returns Unicode=false for MySQL strings since the
// information is not recoverable from the type name alone).
func (t *MySqlTranslator) SQLTypeFor(req TypeRequest) (string, error) {
	switch req.DataType {
	case Bool:
		return "bit", nil
	case Byte:
		return "tinyint", nil
	case Int16:
		return "smallint", nil
	case Int32:
		return "int", nil
	case Int64:
		return "bigint", nil
	case Float32:
		return "float", nil
	case Float64:
		return "double", nil
	case Decimal:
		size := req.Decimal
		if size == nil {
			return "decimal(10,0)", nil
		}
		return fmt.Sprintf("decimal(%d,%d)", size.Precision(), size.Scale()), nil
	case Guid:
		return "char(36)", nil
	case DateTime:
		return "datetime", nil
	case DateOnly:
		return "date", nil
	case TimeOnly, TimeSpan:
		return "time", nil
	case ByteArray:
		return "longblob", nil
	case String:
		if req.Unbounded || (req.Width != nil && *req.Width > mysqlMaxVarcharWidth) {
			return "longtext", nil
		}
		width := t.DefaultStringWidth()
		if req.Width != nil {
			width = *req.Width
		}
		return fmt.Sprintf("varchar(%d)", width), nil
	default:
		return "", fansierr.TypeNotMapped(fmt.Sprintf("MySql/%s", req.DataType))
	}
}

func (t *MySqlTranslator) TypeRequestFor(sqlType string) (TypeRequest, bool) {
	s := strings.TrimSpace(sqlType)
	for _, r := range t.recognizers {
		if m := r.Pattern.FindStringSubmatch(s); m != nil {
			return r.Build(m), true
		}
	}
	return TypeRequest{}, false
}
