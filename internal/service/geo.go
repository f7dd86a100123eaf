package service

import (
	"fmt"
	"math"

	"github.com/forgo/rally/internal/model"
)

// EarthRadiusKm is the Earth's radius in kilometers
const EarthRadiusKm = 6371.0

// DistanceMeters calculates the great-circle distance between two points in
// meters using the Haversine formula on a spherical Earth. Non-finite input
// yields NaN; callers validate coordinates.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * 1000 * c
}

// FormatDistance renders meters for display: "950m" below one kilometer,
// "1.5km" from one kilometer up. Non-finite input renders as "".
func FormatDistance(meters float64) string {
	if math.IsNaN(meters) || math.IsInf(meters, 0) {
		return ""
	}
	if meters < 1000 {
		return fmt.Sprintf("%dm", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}

// EnrichWithDistance annotates each event with its distance from the origin.
// The input slice and events are not modified.
func EnrichWithDistance(events []*model.Event, originLat, originLng float64) []*model.EventWithDistance {
	out := make([]*model.EventWithDistance, 0, len(events))
	for _, e := range events {
		if e == nil {
			continue
		}
		meters := DistanceMeters(originLat, originLng, e.Location.Lat, e.Location.Lng)
		out = append(out, &model.EventWithDistance{
			Event:          *e,
			DistanceMeters: meters,
			Distance:       FormatDistance(meters),
		})
	}
	return out
}

// WithinRadius keeps the enriched events no further than maxMeters away
func WithinRadius(events []*model.EventWithDistance, maxMeters float64) []*model.EventWithDistance {
	out := make([]*model.EventWithDistance, 0, len(events))
	for _, e := range events {
		if e.DistanceMeters <= maxMeters {
			out = append(out, e)
		}
	}
	return out
}
