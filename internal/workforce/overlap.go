package workforce

import (
	"math"
	"time"
)

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Shifts touching at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// EffectiveHours is the worked span minus the unpaid break, floored at zero.
func EffectiveHours(start, end time.Time, breakMinutes int) float64 {
	hours := end.Sub(start).Hours() - float64(breakMinutes)/60
	if hours < 0 {
		return 0
	}
	return hours
}

// PayMinor rounds hours x hourly wage to the nearest minor unit. A nil wage
// yields nil: the shift is recorded but not priced.
func PayMinor(hours float64, hourlyWageMinor *int64) *int64 {
	if hourlyWageMinor == nil {
		return nil
	}
	pay := int64(math.Round(hours * float64(*hourlyWageMinor)))
	return &pay
}
