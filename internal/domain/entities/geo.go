package entities

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the sphere radius used for every distance computation.
const EarthRadiusKm = 6371.0

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p GeoPoint) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Latitude)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Longitude)
	}
	return nil
}

// DistanceKm is the haversine distance between two points.
func (p GeoPoint) DistanceKm(o GeoPoint) float64 {
	lat1 := toRadians(p.Latitude)
	lat2 := toRadians(o.Latitude)
	dLat := lat2 - lat1
	dLng := toRadians(o.Longitude - p.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push a past 1 for antipodal points
	a = math.Min(math.Max(a, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// BoundingBox returns the lat/lng box that contains every point within
// radiusKm. wraps is true when the box crosses a pole or the antimeridian,
// in which case the longitude bounds must not be used.
func (p GeoPoint) BoundingBox(radiusKm float64) (minLat, maxLat, minLng, maxLng float64, wraps bool) {
	dLat := radiusKm / EarthRadiusKm * 180 / math.Pi
	minLat = p.Latitude - dLat
	maxLat = p.Latitude + dLat
	if minLat < -90 || maxLat > 90 {
		return math.Max(minLat, -90), math.Min(maxLat, 90), -180, 180, true
	}

	dLng := dLat / math.Cos(toRadians(p.Latitude))
	minLng = p.Longitude - dLng
	maxLng = p.Longitude + dLng
	if minLng < -180 || maxLng > 180 {
		return minLat, maxLat, -180, 180, true
	}
	return minLat, maxLat, minLng, maxLng, false
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
