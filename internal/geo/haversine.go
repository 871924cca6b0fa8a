// Package geo provides great-circle distance on WGS84 coordinates.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for haversine distance.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Unknown is the distance assigned when either end could not be located.
var Unknown = math.Inf(1)

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Distance is Haversine over optional points; nil on either side yields Unknown.
func Distance(a, b *Point) float64 {
	if a == nil || b == nil {
		return Unknown
	}
	return Haversine(*a, *b)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
