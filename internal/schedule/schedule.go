package schedule

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Working day boundaries in decimal hours. Slots run every half hour from
// DayStart to DayEnd inclusive.
const (
	DayStart = 7.5
	DayEnd   = 19.5
	SlotStep = 0.5
)

// TimeToDecimal converts a "HH:mm" clock string to decimal hours
// (e.g. "09:30" -> 9.5). Malformed input yields NaN; range is not
// validated here.
func TimeToDecimal(clock string) float64 {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return math.NaN()
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return math.NaN()
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return math.NaN()
	}
	return float64(hours) + float64(minutes)/60
}

// DecimalToTime is the inverse of TimeToDecimal: 9.5 -> "09:30".
func DecimalToTime(value float64) string {
	hours := int(math.Floor(value))
	minutes := int(math.Round((value - float64(hours)) * 60))
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}

// GenerateTimeSlots returns every bookable slot of the working day in
// order, from DayStart to DayEnd inclusive.
func GenerateTimeSlots() []string {
	slots := make([]string, 0, int((DayEnd-DayStart)/SlotStep)+1)
	for cursor := DayStart; cursor <= DayEnd; cursor += SlotStep {
		slots = append(slots, DecimalToTime(cursor))
	}
	return slots
}

// Span is an appointment's position on the day: start time as a clock
// string and duration in decimal hours.
type Span struct {
	Time     string
	Duration float64
}

func (s Span) start() float64 { return TimeToDecimal(s.Time) }
func (s Span) end() float64   { return TimeToDecimal(s.Time) + s.Duration }

// Overlaps reports whether two spans intersect under half-open interval
// semantics: a span ending exactly when another starts does not overlap it.
func Overlaps(a, b Span) bool {
	return a.start() < b.end() && b.start() < a.end()
}

// IsSlotOccupied reports whether the given slot falls inside the span's
// [start, end) interval. This paints the grid; conflict detection between
// two bookings goes through Overlaps.
func IsSlotOccupied(slot string, s Span) bool {
	at := TimeToDecimal(slot)
	return at >= s.start() && at < s.end()
}

// SpanRows is the number of half-hour grid rows a duration covers,
// rounded up.
func SpanRows(duration float64) int {
	return int(math.Ceil(duration / SlotStep))
}
