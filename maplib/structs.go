package maplib

import "encoding/json"

// FailureReason tells why there is no location for a key. FailureNone
// means that outcome is successful.
type FailureReason uint8

const (
	FailureNone FailureReason = iota
	FailureNotFound
	FailureLookupError
)

// String returns a human readable message which is sent to clients.
func (f FailureReason) String() string {
	switch f {
	case FailureNotFound:
		return "Location not found"
	case FailureLookupError:
		return "Lookup failed"
	}

	return ""
}

// Location is a geolocation of some IP address which can be put on a
// map.
type Location struct {
	City      string
	Country   string
	Region    string
	Latitude  float64
	Longitude float64
	Timezone  string
}

// Outcome is a result of a lookup of a single key. It is either
// successful and has a location or failed with some reason.
//
// Err is an error returned by provider if reason is
// FailureLookupError. It is never exposed to clients.
type Outcome struct {
	Key      string
	Location Location
	Failure  FailureReason
	Err      error
}

// OK checks if outcome carries a location.
func (o Outcome) OK() bool {
	return o.Failure == FailureNone
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	if !o.OK() {
		return json.Marshal(struct {
			IP    string `json:"ip"`
			Error string `json:"error"`
		}{
			IP:    o.Key,
			Error: o.Failure.String(),
		})
	}

	return json.Marshal(struct {
		IP       string     `json:"ip"`
		City     string     `json:"city"`
		Country  string     `json:"country"`
		Region   string     `json:"region"`
		LL       [2]float64 `json:"ll"`
		Timezone string     `json:"timezone"`
	}{
		IP:       o.Key,
		City:     o.Location.City,
		Country:  o.Location.Country,
		Region:   o.Location.Region,
		LL:       [2]float64{o.Location.Latitude, o.Location.Longitude},
		Timezone: o.Location.Timezone,
	})
}

// ProviderLookupResult is what provider has found for a key. Absent
// coordinates are nil.
type ProviderLookupResult struct {
	Latitude    *float64
	Longitude   *float64
	City        string
	Country     string
	Subdivision string
	TimeZone    string
}

// HasCoordinates checks if both coordinates are present.
func (p ProviderLookupResult) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}
