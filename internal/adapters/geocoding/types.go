package geocoding

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type result struct {
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []addressComponent `json:"address_components"`
	PlaceID           string             `json:"place_id"`
	Types             []string           `json:"types"`
}

// response is the Geocoding API JSON envelope.
type response struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Results      []result `json:"results"`
}

// Status values that carry no usable answer but are not failures.
const (
	StatusOK          = "OK"
	StatusZeroResults = "ZERO_RESULTS"
)
