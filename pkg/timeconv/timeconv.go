// Package timeconv converts between the millisecond durations stored on
// recipes and the human-readable forms shown in notifications, plus the
// authoritative Celsius/Fahrenheit conversion for display paths.
package timeconv

import "fmt"

// Unit is a coarse duration unit used by recipe editors.
type Unit string

const (
	UnitSec  Unit = "Sec"
	UnitMin  Unit = "Min"
	UnitHour Unit = "Hour"
	UnitDay  Unit = "Day"
	UnitWeek Unit = "Week"
)

var unitMillis = map[Unit]int64{
	UnitSec:  1000,
	UnitMin:  60_000,
	UnitHour: 3_600_000,
	UnitDay:  86_400_000,
	UnitWeek: 604_800_000,
}

// largest-first, for MsToUnits
var unitOrder = []Unit{UnitWeek, UnitDay, UnitHour, UnitMin, UnitSec}

// UnitsToMs converts a value in the given unit to milliseconds.
func UnitsToMs(val int64, unit Unit) int64 {
	return val * unitMillis[unit]
}

// MsToUnits picks the largest unit that divides ms evenly and returns the
// value in that unit. Falls back to seconds.
func MsToUnits(ms int64) (int64, Unit) {
	for _, u := range unitOrder {
		if ms != 0 && ms%unitMillis[u] == 0 {
			return ms / unitMillis[u], u
		}
	}
	return ms, UnitSec
}

// MsToHMS formats a millisecond duration as zero-padded HH:MM:SS.
// Sub-second remainders round to the nearest second.
func MsToHMS(ms int64) string {
	secs := (ms + 500) / 1000
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// CToF converts Celsius to Fahrenheit.
func CToF(c float64) float64 {
	return c*9/5 + 32
}

// FToC converts Fahrenheit to Celsius.
func FToC(f float64) float64 {
	return (f - 32) * 5 / 9
}
