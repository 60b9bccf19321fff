package typesystem

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinLengthForDateRepresentation is the width of
// "yyyy-MM-dd HH:mm:ss.fffffff": the minimum string-coercion width for a
// DateTime column so that widening it to string at streaming time cannot
// truncate.
const MinLengthForDateRepresentation = 27

// MinLengthForTimeSpanRepresentation is the width of "HH:MM:SS.fffffff".
const MinLengthForTimeSpanRepresentation = 16

// Guesser computes, incrementally, the narrowest TypeRequest that still
// losslessly holds every string value fed to it so far. It is seeded from
// a column's current type and only ever widens.
type Guesser struct {
	translator Translator
	current    TypeRequest
	seenAny    bool
}

// NewGuesser constructs a Guesser seeded with current, using translator's
// UnboundedThreshold to decide when a fallback to String becomes unbounded.
// The minimum string-coercion widths for temporal columns are the constants
// above, not taken from translator.
func NewGuesser(translator Translator, current TypeRequest) *Guesser {
	return &Guesser{translator: translator, current: current}
}

// Current returns the narrowest type seen so far.
func (g *Guesser) Current() TypeRequest { return g.current }

// Feed widens g's current type, if necessary, to accommodate value.
func (g *Guesser) Feed(value string) {
	g.seenAny = true
	if value == "" {
		// Blanks never force widening by themselves; they are handled as
		// nulls downstream.
		return
	}

	switch g.current.DataType {
	case Bool:
		if !isBool(value) {
			g.current = g.widenFromBool(value)
		}
	case Byte, Int16, Int32, Int64:
		g.current = g.widenInteger(value)
	case Float32, Float64:
		g.current = g.widenFloat(value)
	case Decimal:
		g.current = g.widenDecimal(value)
	case DateTime, DateOnly, TimeOnly, TimeSpan:
		g.current = g.widenTemporal(value)
	case Guid:
		if !isGuid(value) {
			g.current = g.fallbackToString(value)
		}
	case String:
		g.current = g.widenStringWidth(value)
	default:
		g.current = g.fallbackToString(value)
	}
}

func isBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false", "0", "1":
		return true
	}
	return false
}

func isGuid(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

func (g *Guesser) widenFromBool(value string) TypeRequest {
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return g.widenInteger(value)
	}
	return g.fallbackToString(value)
}

func (g *Guesser) widenInteger(value string) TypeRequest {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		if _, ferr := strconv.ParseFloat(value, 64); ferr == nil {
			return g.widenFloat(value)
		}
		return g.fallbackToString(value)
	}

	widen := func(dt DataType) TypeRequest {
		if rank(dt) > rank(g.current.DataType) {
			return TypeRequest{DataType: dt}
		}
		return g.current
	}

	switch {
	case n >= -128 && n <= 127 && g.current.DataType == Byte:
		return g.current
	case n >= -32768 && n <= 32767:
		return widen(Int16)
	case n >= -2147483648 && n <= 2147483647:
		return widen(Int32)
	default:
		return widen(Int64)
	}
}

func (g *Guesser) widenFloat(value string) TypeRequest {
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return g.fallbackToString(value)
	}
	if rank(Float64) > rank(g.current.DataType) {
		return TypeRequest{DataType: Float64}
	}
	return g.current
}

func (g *Guesser) widenDecimal(value string) TypeRequest {
	before, after, ok := decimalDigits(value)
	if !ok {
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			return g.fallbackToString(value)
		}
		return g.fallbackToString(value)
	}
	size := DecimalSize{DigitsBeforePoint: before, DigitsAfterPoint: after}
	if g.current.Decimal == nil {
		return TypeRequest{DataType: Decimal, Decimal: &size}
	}
	merged := DecimalSize{
		DigitsBeforePoint: maxInt(g.current.Decimal.DigitsBeforePoint, before),
		DigitsAfterPoint:  maxInt(g.current.Decimal.DigitsAfterPoint, after),
	}
	return TypeRequest{DataType: Decimal, Decimal: &merged}
}

// decimalDigits splits "123.4500" into (3, 2) after trimming trailing
// zeros from the fractional part.
func decimalDigits(value string) (before, after int, ok bool) {
	neg := strings.HasPrefix(value, "-")
	v := strings.TrimPrefix(value, "-")
	v = strings.TrimPrefix(v, "+")
	parts := strings.SplitN(v, ".", 2)
	for _, c := range v {
		if c != '.' && (c < '0' || c > '9') {
			return 0, 0, false
		}
	}
	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	before = len(strings.TrimLeft(intPart, "0"))
	if before == 0 && intPart != "0" {
		before = 1
	}
	if intPart == "0" {
		before = 1
	}
	if len(parts) == 2 {
		frac := strings.TrimRight(parts[1], "0")
		after = len(frac)
	}
	_ = neg
	return before, after, true
}

func (g *Guesser) widenTemporal(value string) TypeRequest {
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05", "2006-01-02", "15:04:05"}
	for _, layout := range layouts {
		if _, err := time.Parse(layout, value); err == nil {
			return g.current
		}
	}
	return g.fallbackToString(value)
}

// widenStringWidth grows Width to fit value (a no-op once Unbounded).
func (g *Guesser) widenStringWidth(value string) TypeRequest {
	if g.current.Unbounded {
		return g.current
	}
	n := len([]rune(value))
	if g.current.Width == nil || n > *g.current.Width {
		return g.current.WithWidth(n)
	}
	return g.current
}

// fallbackToString widens to a string type wide enough to hold value,
// applying the minimum date/timespan coercion widths when the type being
// abandoned was temporal.
func (g *Guesser) fallbackToString(value string) TypeRequest {
	minWidth := len([]rune(value))
	switch g.current.DataType {
	case DateTime, DateOnly:
		if minWidth < MinLengthForDateRepresentation {
			minWidth = MinLengthForDateRepresentation
		}
	case TimeSpan, TimeOnly:
		if minWidth < MinLengthForTimeSpanRepresentation {
			minWidth = MinLengthForTimeSpanRepresentation
		}
	}
	next := TypeRequest{DataType: String, Unicode: g.current.Unicode}
	if g.translator != nil && minWidth > g.translator.UnboundedThreshold(next.Unicode) {
		return next.WithUnbounded()
	}
	return next.WithWidth(minWidth)
}

// rank orders numeric types from narrowest to widest so widening never
// goes backwards.
func rank(dt DataType) int {
	switch dt {
	case Byte:
		return 1
	case Int16:
		return 2
	case Int32:
		return 3
	case Int64:
		return 4
	case Float32:
		return 5
	case Float64:
		return 6
	default:
		return 0
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
