package domain

import "context"

// ReverseGeocoder looks up address components for a coordinate pair.
type ReverseGeocoder interface {
	ReverseLocality(ctx context.Context, lat, lon float64) (*GeocodeResult, error)
}

// GeocodeResult is the provider-neutral part of a reverse geocoding answer.
type GeocodeResult struct {
	Status  string
	Results []GeocodePlace
}

// GeocodePlace is one candidate place.
type GeocodePlace struct {
	FormattedAddress  string
	AddressComponents []AddressComponent
}

// AddressComponent is one named part of an address, e.g. a city.
type AddressComponent struct {
	LongName  string
	ShortName string
	Types     []string
}

// LocationResolver maps coordinates to a human-readable place name.
// ok is false when nothing usable was found; provider failures are not surfaced.
type LocationResolver interface {
	Resolve(ctx context.Context, lat, lon float64) (name string, ok bool)
}
