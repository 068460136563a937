// Package geo computes distances between geocoded points.
package geo

import (
	"math"

	"github.com/golang/geo/s2"

	"star-burger/internal/model"
)

// EarthRadiusKm is the radius of the sphere with the same mean radius as the
// WGS-84 ellipsoid, (2a+b)/3.
const EarthRadiusKm = 6371.0087714

// DistanceKm returns the great-circle distance between a and b in kilometres.
func DistanceKm(a, b model.Coordinates) float64 {
	pa := s2.LatLngFromDegrees(a.Lat, a.Lon)
	pb := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return pa.Distance(pb).Radians() * EarthRadiusKm
}

// RoundKm rounds a distance to two decimal places.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
