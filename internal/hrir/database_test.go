package hrir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSigned180(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"positive_boundary", 180, 180},
		{"negative_boundary_wraps_up", -180, 180},
		{"just_over", 190, -170},
		{"just_under", -190, 170},
		{"full_turn", 360, 0},
		{"turn_and_a_half", 540, 180},
		{"negative_turn_and_a_half", -540, 180},
		{"small_negative", -10, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, NormalizeSigned180(tt.in), 1e-9)
		})
	}
}

func TestNearest(t *testing.T) {
	db := &Database{
		SampleRateHz: 24000,
		TapCount:     1,
		Entries: []Entry{
			{AzimuthDeg: 0, ElevationDeg: 0, Left: []float64{1}, Right: []float64{1}},
			{AzimuthDeg: 90, ElevationDeg: 0, Left: []float64{1}, Right: []float64{1}},
			{AzimuthDeg: 180, ElevationDeg: 0, Left: []float64{1}, Right: []float64{1}},
			{AzimuthDeg: 0, ElevationDeg: 45, Left: []float64{1}, Right: []float64{1}},
		},
	}

	tests := []struct {
		name      string
		azimuth   float64
		elevation float64
		wantAz    float64
		wantEl    float64
	}{
		{"near_front", 10, 0, 0, 0},
		{"near_back", 170, 0, 180, 0},
		{"wraps_across_seam", -170, 0, 180, 0},
		{"prefers_elevated_entry", 5, 40, 0, 45},
		{"exact_match", 90, 0, 90, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := db.Nearest(tt.azimuth, tt.elevation)
			require.NotNil(t, e)
			assert.Equal(t, tt.wantAz, e.AzimuthDeg)
			assert.Equal(t, tt.wantEl, e.ElevationDeg)
		})
	}

	t.Run("tie_resolves_to_first_entry", func(t *testing.T) {
		// 45 degrees sits exactly between the 0 and 90 entries.
		e := db.Nearest(45, 0)
		require.NotNil(t, e)
		assert.Equal(t, 0.0, e.AzimuthDeg)
	})

	t.Run("nil_database", func(t *testing.T) {
		var empty *Database
		assert.Nil(t, empty.Nearest(0, 0))
		assert.Nil(t, (&Database{}).Nearest(0, 0))
	})
}
