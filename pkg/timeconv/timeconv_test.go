package timeconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMsToHMS(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00"},
		{1000, "00:00:01"},
		{600000, "00:10:00"},     // 10 minute cook
		{3600000, "01:00:00"},
		{3661000, "01:01:01"},
		{86399000, "23:59:59"},
		{1499, "00:00:01"},       // rounds to nearest second
		{499, "00:00:00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, MsToHMS(tc.ms), "ms=%d", tc.ms)
	}
}

func TestUnitsToMs(t *testing.T) {
	assert.Equal(t, int64(1000), UnitsToMs(1, UnitSec))
	assert.Equal(t, int64(600000), UnitsToMs(10, UnitMin))
	assert.Equal(t, int64(7200000), UnitsToMs(2, UnitHour))
	assert.Equal(t, int64(259200000), UnitsToMs(3, UnitDay))
	assert.Equal(t, int64(604800000), UnitsToMs(1, UnitWeek))
}

func TestMsToUnits(t *testing.T) {
	val, unit := MsToUnits(604800000)
	assert.Equal(t, int64(1), val)
	assert.Equal(t, UnitWeek, unit)

	val, unit = MsToUnits(600000)
	assert.Equal(t, int64(10), val)
	assert.Equal(t, UnitMin, unit)

	val, unit = MsToUnits(1500)
	assert.Equal(t, int64(1500), val)
	assert.Equal(t, UnitSec, unit)
}

func TestTemperatureConversion(t *testing.T) {
	assert.InDelta(t, 212.0, CToF(100), 1e-9)
	assert.InDelta(t, 32.0, CToF(0), 1e-9)
	assert.InDelta(t, 100.0, FToC(212), 1e-9)
	assert.InDelta(t, -40.0, FToC(-40), 1e-9)
	assert.InDelta(t, 180.0, FToC(CToF(180)), 1e-9)
}
