package typesystem

import (
	"fmt"
	"strings"

	"github.com/jas88/fansigo/fansierr"
)

// MsSqlTranslator implements Translator for Microsoft SQL Server.
type MsSqlTranslator struct {
	recognizers []recognizer
}

const (
	mssqlMaxAsciiWidth   = 8000
	mssqlMaxUnicodeWidth = 4000
)

// NewMsSqlTranslator builds the SQL Server type translator.
func NewMsSqlTranslator() *MsSqlTranslator {
	t := &MsSqlTranslator{}
	t.recognizers = []recognizer{
		{mustCompile(`^bit$`), func(m []string) TypeRequest { return TypeRequest{DataType: Bool} }},
		{mustCompile(`^tinyint$`), func(m []string) TypeRequest { return TypeRequest{DataType: Byte} }},
		{mustCompile(`^smallint$`), func(m []string) TypeRequest { return TypeRequest{DataType: Int16} }},
		{mustCompile(`^int$`), func(m []string) TypeRequest { return TypeRequest{DataType: Int32} }},
		{mustCompile(`^bigint$`), func(m []string) TypeRequest { return TypeRequest{DataType: Int64} }},
		{mustCompile(`^real$`), func(m []string) TypeRequest { return TypeRequest{DataType: Float32} }},
		{mustCompile(`^float`), func(m []string) TypeRequest { return TypeRequest{DataType: Float64} }},
		{mustCompile(`^(decimal|numeric)\((\d+),(\d+)\)$`), func(m []string) TypeRequest {
			p, s := atoiOr(m[2], 18), atoiOr(m[3], 0)
			size := DecimalSizeFromPrecisionScale(p, s)
			return TypeRequest{DataType: Decimal, Decimal: &size}
		}},
		{mustCompile(`^uniqueidentifier$`), func(m []string) TypeRequest { return TypeRequest{DataType: Guid} }},
		{mustCompile(`^(datetime2|datetime|smalldatetime)$`), func(m []string) TypeRequest { return TypeRequest{DataType: DateTime} }},
		{mustCompile(`^date$`), func(m []string) TypeRequest { return TypeRequest{DataType: DateOnly} }},
		{mustCompile(`^time$`), func(m []string) TypeRequest { return TypeRequest{DataType: TimeOnly} }},
		{mustCompile(`^(varbinary|binary|image)\((max|\d+)\)?$`), func(m []string) TypeRequest { return TypeRequest{DataType: ByteArray} }},
		{mustCompile(`^n?varchar\(max\)$`), func(m []string) TypeRequest {
			return TypeRequest{DataType: String, Unicode: strings.HasPrefix(strings.ToLower(m[0]), "n")}.WithUnbounded()
		}},
		{mustCompile(`^n?(var)?char\((\d+)\)$`), func(m []string) TypeRequest {
			w := atoiOr(m[2], 1)
			return TypeRequest{DataType: String, Unicode: strings.HasPrefix(strings.ToLower(m[0]), "n")}.WithWidth(w)
		}},
		{mustCompile(`^n?text$`), func(m []string) TypeRequest {
			return TypeRequest{DataType: String, Unicode: strings.HasPrefix(strings.ToLower(m[0]), "n")}.WithUnbounded()
		}},
	}
	return t
}

func (t *MsSqlTranslator) Engine() Engine { return MsSql }

func (t *MsSqlTranslator) UnboundedThreshold(unicode bool) int {
	if unicode {
		return mssqlMaxUnicodeWidth
	}
	return mssqlMaxAsciiWidth
}

func (t *MsSqlTranslator) DefaultStringWidth() int { return 50 }

func (t *MsSqlTranslator) GuesserFor(current TypeRequest) *Guesser { return NewGuesser(t, current) }

func (t *MsSqlTranslator) SQLTypeFor(req TypeRequest) (string, error) {
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
		return "real", nil
	case Float64:
		return "float", nil
	case Decimal:
		size := req.Decimal
		if size == nil {
			return "decimal(18,0)", nil
		}
		return fmt.Sprintf("decimal(%d,%d)", size.Precision(), size.Scale()), nil
	case Guid:
		return "uniqueidentifier", nil
	case DateTime:
		return "datetime2", nil
	case DateOnly:
		return "date", nil
	case TimeOnly:
		return "time", nil
	case TimeSpan:
		return "time", nil
	case ByteArray:
		return "varbinary(max)", nil
	case String:
		return t.stringSpelling(req), nil
	default:
		return "", fansierr.TypeNotMapped(fmt.Sprintf("MsSql/%s", req.DataType))
	}
}

func (t *MsSqlTranslator) stringSpelling(req TypeRequest) string {
	prefix := ""
	threshold := mssqlMaxAsciiWidth
	if req.Unicode {
		prefix = "n"
		threshold = mssqlMaxUnicodeWidth
	}
	if req.Unbounded || (req.Width != nil && *req.Width > threshold) {
		return fmt.Sprintf("%svarchar(max)", prefix)
	}
	width := t.DefaultStringWidth()
	if req.Width != nil {
		width = *req.Width
	}
	return fmt.Sprintf("%svarchar(%d)", prefix, width)
}

func (t *MsSqlTranslator) TypeRequestFor(sqlType string) (TypeRequest, bool) {
	s := strings.TrimSpace(sqlType)
	for _, r := range t.recognizers {
		if m := r.Pattern.FindStringSubmatch(s); m != nil {
			return r.Build(m), true
		}
	}
	return TypeRequest{}, false
}
