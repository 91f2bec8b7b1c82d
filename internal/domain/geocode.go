package domain

import (
	"context"
	"log/slog"
)

// DescribeLocation returns a human-readable place for the coordinates, or ""
// when geocoder is nil, the lookup fails, or nothing was found. Failures are
// logged and never propagated: the alert goes out without a place line.
func DescribeLocation(ctx context.Context, lat, lon float64, geocoder Geocoder, logger *slog.Logger) string {
	if geocoder == nil {
		return ""
	}
	if lat == 0 && lon == 0 {
		return ""
	}

	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		return ""
	}
	if result.FormattedAddress != "" {
		return result.FormattedAddress
	}
	return result.PlaceName
}
