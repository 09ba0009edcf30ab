package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder places named regions on a map.
type Geocoder interface {
	// ForwardGeocode converts a region name within a country to coordinates.
	ForwardGeocode(ctx context.Context, region, country string) (GeocodingResult, error)
}
