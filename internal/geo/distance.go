package geo

import "math"

const (
	earthRadiusKm = 6371.0
	cruiseSpeedKm = 900.0
)

// Distance returns the great-circle distance between two points in km.
func Distance(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// FlightDurationMinutes estimates flight time for a distance assuming a
// 900 km/h cruise speed.
func FlightDurationMinutes(distanceKm float64) int {
	return int(math.Round(distanceKm / cruiseSpeedKm * 60))
}
