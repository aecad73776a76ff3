package services

import (
	"context"
	"log/slog"

	"eventrsvp/internal/domain"
)

// localityTypes lists the address component types accepted as a place name. The first
// component of the top result carrying any of them wins; the provider's component order
// decides, not the order of this list.
var localityTypes = []string{
	"locality",
	"sublocality",
	"administrative_area_level_2",
	"administrative_area_level_1",
}

type locationResolver struct {
	geocoder domain.ReverseGeocoder
	logger   *slog.Logger
}

// NewLocationResolver returns a LocationResolver over geocoder. A nil geocoder disables lookups.
func NewLocationResolver(geocoder domain.ReverseGeocoder, logger *slog.Logger) domain.LocationResolver {
	return &locationResolver{geocoder: geocoder, logger: logger}
}

// Resolve never fails; any lookup problem is logged and reported as ok=false.
func (r *locationResolver) Resolve(ctx context.Context, lat, lon float64) (string, bool) {
	if r.geocoder == nil {
		return "", false
	}
	result, err := r.geocoder.ReverseLocality(ctx, lat, lon)
	if err != nil {
		r.logger.ErrorContext(ctx, "reverse geocoding failed", "lat", lat, "lon", lon, "err", err)
		return "", false
	}
	if result.Status != "OK" || len(result.Results) == 0 {
		r.logger.WarnContext(ctx, "no location found for coordinates", "lat", lat, "lon", lon, "status", result.Status)
		return "", false
	}
	for _, component := range result.Results[0].AddressComponents {
		if hasAnyType(component.Types, localityTypes) {
			return component.LongName, true
		}
	}
	r.logger.WarnContext(ctx, "no locality component for coordinates", "lat", lat, "lon", lon)
	return "", false
}

func hasAnyType(types, wanted []string) bool {
	for _, t := range types {
		for _, w := range wanted {
			if t == w {
				return true
			}
		}
	}
	return false
}
