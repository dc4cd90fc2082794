// Package hrir loads head-related impulse response databases from the
// compact binary format or from SOFA acoustic-measurement files, and
// provides nearest-neighbor lookup by azimuth and elevation.
package hrir

import "math"

// Entry holds one measured direction: equal-length left/right impulse
// responses with their source azimuth and elevation in degrees.
type Entry struct {
	AzimuthDeg   float64
	ElevationDeg float64
	Left         []float64
	Right        []float64
}

// Database is an immutable set of HRIR entries sharing one sample rate and
// tap count. Shared read-only by the audio engine after load.
type Database struct {
	SampleRateHz int
	TapCount     int
	Entries      []Entry
}

// Nearest returns the entry minimizing wrap180(dAz)^2 + dEl^2 for the query
// direction. Ties resolve to the lowest entry index, which is the file order
// of the originating loader. Returns nil when the database is empty.
func (db *Database) Nearest(azimuthDeg, elevationDeg float64) *Entry {
	if db == nil || len(db.Entries) == 0 {
		return nil
	}

	best := 0
	bestScore := math.Inf(1)
	for i := range db.Entries {
		dAz := NormalizeSigned180(db.Entries[i].AzimuthDeg - azimuthDeg)
		dEl := db.Entries[i].ElevationDeg - elevationDeg
		score := dAz*dAz + dEl*dEl
		if score < bestScore {
			bestScore = score
			best = i
		}
	}
	return &db.Entries[best]
}

// NormalizeSigned180 wraps an angle in degrees into the signed circular
// range (-180, 180].
func NormalizeSigned180(deg float64) float64 {
	m := math.Mod(deg, 360)
	if m <= -180 {
		m += 360
	} else if m > 180 {
		m -= 360
	}
	return m
}
