package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceAndBearing(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		wantDistM  float64
		distTolM   float64
		wantDeg    float64
		degTol     float64
	}{
		{
			name: "same_point",
			lat1: 52.0, lon1: 13.0, lat2: 52.0, lon2: 13.0,
			wantDistM: 0, distTolM: 0.001, wantDeg: 0, degTol: 0.001,
		},
		{
			name: "due_north_one_degree",
			lat1: 0, lon1: 0, lat2: 1, lon2: 0,
			wantDistM: 111195, distTolM: 10, wantDeg: 0, degTol: 0.01,
		},
		{
			name: "due_east_on_equator",
			lat1: 0, lon1: 0, lat2: 0, lon2: 1,
			wantDistM: 111195, distTolM: 10, wantDeg: 90, degTol: 0.01,
		},
		{
			name: "due_south",
			lat1: 10, lon1: 20, lat2: 9, lon2: 20,
			wantDistM: 111195, distTolM: 10, wantDeg: 180, degTol: 0.01,
		},
		{
			name: "due_west_on_equator",
			lat1: 0, lon1: 1, lat2: 0, lon2: 0,
			wantDistM: 111195, distTolM: 10, wantDeg: 270, degTol: 0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, bearing := DistanceAndBearing(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.wantDistM, dist, tt.distTolM)
			assert.InDelta(t, tt.wantDeg, bearing, tt.degTol)
		})
	}
}

func TestBearingRange(t *testing.T) {
	// Northwest-ish heading stays in [0,360) rather than going negative.
	_, bearing := DistanceAndBearing(0, 0, 1, -1)
	assert.Greater(t, bearing, 270.0)
	assert.Less(t, bearing, 360.0)
}
