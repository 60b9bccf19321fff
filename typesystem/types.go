// Package typesystem implements the bidirectional mapping between a
// DBMS-independent type request and each engine's concrete SQL type
// spelling. It handles width/precision parsing, round-trip fidelity under
// engine-imposed coercion, and the progressive-widening type guesser used
// while streaming unknown data.
package typesystem

import "fmt"

// Engine is the closed enumeration of supported database engines.
type Engine string

const (
	MsSql      Engine = "MsSql"
	MySql      Engine = "MySql"
	PostgreSql Engine = "PostgreSql"
	Oracle     Engine = "Oracle"
	Sqlite     Engine = "Sqlite"
)

// MarshalText implements encoding.TextMarshaler so Engine round-trips
// through TOML configuration files and JSON diagnostics.
func (e Engine) MarshalText() ([]byte, error) { return []byte(e), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Engine) UnmarshalText(text []byte) error {
	*e = Engine(text)
	return nil
}

// DataType is the closed set of abstract logical types a caller may
// request, independent of any particular host language.
type DataType string

const (
	Bool      DataType = "bool"
	Byte      DataType = "byte"
	Int16     DataType = "i16"
	Int32     DataType = "i32"
	Int64     DataType = "i64"
	Float32   DataType = "f32"
	Float64   DataType = "f64"
	Decimal   DataType = "decimal"
	String    DataType = "string"
	DateTime  DataType = "date_time"
	DateOnly  DataType = "date_only"
	TimeOnly  DataType = "time_only"
	TimeSpan  DataType = "time_span"
	ByteArray DataType = "byte_array"
	Guid      DataType = "guid"
)

// DecimalSize is (digits_before_point, digits_after_point): both
// non-negative, their sum is the SQL "precision", digits_after_point is
// the SQL "scale".
type DecimalSize struct {
	DigitsBeforePoint int
	DigitsAfterPoint  int
}

// Precision is DigitsBeforePoint + DigitsAfterPoint.
func (d DecimalSize) Precision() int { return d.DigitsBeforePoint + d.DigitsAfterPoint }

// Scale is DigitsAfterPoint.
func (d DecimalSize) Scale() int { return d.DigitsAfterPoint }

// DecimalSizeFromPrecisionScale builds a DecimalSize from SQL precision and
// scale: digits_before_point = precision - scale.
func DecimalSizeFromPrecisionScale(precision, scale int) DecimalSize {
	return DecimalSize{DigitsBeforePoint: precision - scale, DigitsAfterPoint: scale}
}

func (d DecimalSize) String() string {
	return fmt.Sprintf("(%d,%d)", d.Precision(), d.Scale())
}

// TypeRequest is the DBMS-independent description of a column type a
// caller wants. Width is a pointer so "unspecified" (use the dialect's
// default string width) is distinguishable from "explicitly requested
// unbounded" (Unbounded == true, Width == nil).
type TypeRequest struct {
	DataType    DataType
	Width       *int // only meaningful for String
	Decimal     *DecimalSize // only meaningful for Decimal
	Unicode     bool         // only meaningful for String
	Unbounded   bool         // caller explicitly wants the unbounded spelling
}

// WithWidth returns a copy of the request with Width set.
func (r TypeRequest) WithWidth(w int) TypeRequest {
	r.Width = &w
	r.Unbounded = false
	return r
}

// WithUnbounded returns a copy of the request marked unbounded.
func (r TypeRequest) WithUnbounded() TypeRequest {
	r.Width = nil
	r.Unbounded = true
	return r
}

// WithDecimal returns a copy of the request with the given decimal size.
func (r TypeRequest) WithDecimal(size DecimalSize) TypeRequest {
	r.Decimal = &size
	return r
}

// Equal reports whether two requests describe the same logical type,
// ignoring fields that are irrelevant for the DataType in play (width for
// non-string types, precision/scale for non-decimal types).
func (r TypeRequest) Equal(o TypeRequest) bool {
	if r.DataType != o.DataType {
		return false
	}
	switch r.DataType {
	case String:
		if r.Unicode != o.Unicode {
			return false
		}
		if r.Unbounded != o.Unbounded {
			return false
		}
		if !r.Unbounded {
			return widthEqual(r.Width, o.Width)
		}
		return true
	case Decimal:
		return decimalEqual(r.Decimal, o.Decimal)
	default:
		return true
	}
}

func widthEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func decimalEqual(a, b *DecimalSize) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
