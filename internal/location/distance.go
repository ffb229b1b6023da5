// Package location provides great-circle distance and unit helpers
package location

import (
	"math"

	"github.com/umnpray/umnpray/internal/models"
)

const (
	earthRadiusMiles = 3959
	metersPerMile    = 1609.34
)

// Distance returns the haversine distance in miles between two points,
// rounded to 2 decimal places
func Distance(a, b models.Coordinates) float64 {
	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return Round2(earthRadiusMiles * c)
}

// MetersToMiles converts meters to miles, rounded to 2 decimal places
func MetersToMiles(meters float64) float64 {
	return Round2(meters / metersPerMile)
}

// SecondsToMinutes converts seconds to whole minutes, rounding to nearest
func SecondsToMinutes(seconds float64) int {
	return int(math.Round(seconds / 60))
}

// Round2 rounds to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
