package timeunits

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ticksPerSecond is the resolution of a TimePoint: 0.1 ms.
const ticksPerSecond = 10000

// DefaultPrecision is the number of decimal digits used by Milliseconds and Seconds
const DefaultPrecision = 3

// ErrInvalidTimeValue is returned when a TimePoint is built from something that is
// neither a floating point number nor a numeric string.
var ErrInvalidTimeValue = errors.New("invalid time value")

// TimePoint is a moment in time truncated to 0.1 ms.
type TimePoint struct {
	ticks int64
}

// NewTimePoint builds a TimePoint from a float or a numeric string.
// Integers are rejected on purpose so that callers never mix seconds and ticks.
func NewTimePoint(value any) (TimePoint, error) {
	switch v := value.(type) {
	case float64:
		return TimePointFromSeconds(v), nil
	case float32:
		return TimePointFromSeconds(float64(v)), nil
	case string:
		return ParseTimePoint(v)
	default:
		return TimePoint{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidTimeValue, value)
	}
}

// ParseTimePoint parses a decimal number of seconds such as "1586869012.1606".
// Digits past the fourth decimal are dropped without going through a float, so a
// string already at 0.1 ms precision is kept exactly.
func ParseTimePoint(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	if ticks, ok := parseDecimalTicks(s); ok {
		return TimePoint{ticks: ticks}, nil
	}

	// exponent forms such as "1.5e3"
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(seconds) || math.Abs(seconds) >= math.MaxInt64/ticksPerSecond {
		return TimePoint{}, fmt.Errorf("%w: %q", ErrInvalidTimeValue, s)
	}
	return TimePointFromSeconds(seconds), nil
}

// TimePointFromSeconds truncates toward zero to 4 decimal digits of the shortest
// decimal form of seconds.
func TimePointFromSeconds(seconds float64) TimePoint {
	if ticks, ok := parseDecimalTicks(strconv.FormatFloat(seconds, 'f', -1, 64)); ok {
		return TimePoint{ticks: ticks}
	}
	return TimePoint{ticks: int64(math.Trunc(seconds * ticksPerSecond))}
}

// parseDecimalTicks accepts [sign]digits[.digits] and truncates the fraction to
// 4 digits. It fails on anything else, including int64 overflow.
func parseDecimalTicks(s string) (int64, bool) {
	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, false
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, false
	}

	var sec int64
	if whole != "" {
		v, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || v > math.MaxInt64/ticksPerSecond-1 {
			return 0, false
		}
		sec = v
	}

	if len(frac) > 4 {
		frac = frac[:4]
	}
	frac += strings.Repeat("0", 4-len(frac))
	sub, _ := strconv.ParseInt(frac, 10, 64)

	ticks := sec*ticksPerSecond + sub
	if negative {
		ticks = -ticks
	}
	return ticks, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// TimePointFromTime converts a wall clock reading.
func TimePointFromTime(t time.Time) TimePoint {
	return TimePoint{ticks: t.UnixNano() / int64(time.Second/ticksPerSecond)}
}

// Seconds returns the moment as seconds since the epoch (or device uptime)
func (tp TimePoint) Seconds() float64 {
	return float64(tp.ticks) / ticksPerSecond
}

// Sub returns tp - other.
func (tp TimePoint) Sub(other TimePoint) TimeSpan {
	return TimeSpan{ticks: tp.ticks - other.ticks}
}

// String prints the exact decimal seconds, without trailing zeros.
func (tp TimePoint) String() string {
	return formatTicks(tp.ticks)
}

// TimeSpan is the difference between two TimePoints.
// The zero value is a zero-length span.
type TimeSpan struct {
	ticks int64
}

// Milliseconds rounds to DefaultPrecision digits.
func (ts TimeSpan) Milliseconds() float64 {
	return ts.RoundedMilliseconds(DefaultPrecision)
}

// Seconds rounds to DefaultPrecision digits.
func (ts TimeSpan) Seconds() float64 {
	return ts.RoundedSeconds(DefaultPrecision)
}

func (ts TimeSpan) RoundedMilliseconds(precision int) float64 {
	return round(float64(ts.ticks)/(ticksPerSecond/1000), precision)
}

func (ts TimeSpan) RoundedSeconds(precision int) float64 {
	return round(float64(ts.ticks)/ticksPerSecond, precision)
}

// Duration converts the span to a time.Duration.
func (ts TimeSpan) Duration() time.Duration {
	return time.Duration(ts.ticks) * (time.Second / ticksPerSecond)
}

func (ts TimeSpan) String() string {
	return formatTicks(ts.ticks)
}

func formatTicks(ticks int64) string {
	sign := ""
	abs := uint64(ticks)
	if ticks < 0 {
		sign = "-"
		abs = uint64(-ticks)
	}

	whole := strconv.FormatUint(abs/ticksPerSecond, 10)
	frac := abs % ticksPerSecond
	if frac == 0 {
		return sign + whole
	}
	return sign + whole + "." + strings.TrimRight(fmt.Sprintf("%04d", frac), "0")
}

func round(v float64, precision int) float64 {
	scale := math.Pow10(precision)
	return math.Round(v*scale) / scale
}
