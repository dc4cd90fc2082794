// Package geo provides the geodesic math for landmark cues.
package geo

import "math"

// EarthRadiusMeters is the mean earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// DistanceAndBearing returns the great-circle distance in meters and the
// initial bearing in degrees [0,360) from point 1 to point 2.
func DistanceAndBearing(lat1, lon1, lat2, lon2 float64) (distanceM, bearingDeg float64) {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	distanceM = EarthRadiusMeters * c

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	bearingDeg = math.Mod(degrees(math.Atan2(y, x))+360, 360)

	return distanceM, bearingDeg
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
