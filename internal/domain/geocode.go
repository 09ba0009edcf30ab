package domain

import (
	"context"
	"log/slog"
)

// LocateRegions geocodes each distinct region name within country.
// Regions the geocoder cannot place are left out; a nil geocoder yields nil
// (graceful degradation).
func LocateRegions(ctx context.Context, country string, regions []string, geocoder Geocoder, logger *slog.Logger) []RegionLocation {
	if geocoder == nil {
		return nil
	}

	var out []RegionLocation
	seen := make(map[string]struct{}, len(regions))
	for _, region := range regions {
		if _, ok := seen[region]; ok {
			continue
		}
		seen[region] = struct{}{}

		result, err := geocoder.ForwardGeocode(ctx, region, country)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"region", region,
				"country", country,
				"error", err,
			)
			continue
		}
		if result.Lat == 0 && result.Lon == 0 {
			continue
		}
		out = append(out, RegionLocation{
			Region:  region,
			Lat:     result.Lat,
			Lon:     result.Lon,
			Address: result.FormattedAddress,
		})
	}
	return out
}
