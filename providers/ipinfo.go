package providers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/9seconds/ipmap/maplib"
)

const ipInfoBaseURL = "https://ipinfo.io/"

type ipinfoResponse struct {
	City     string `json:"city"`
	Region   string `json:"region"`
	Country  string `json:"country"`
	Loc      string `json:"loc"`
	Timezone string `json:"timezone"`
	Bogon    bool   `json:"bogon"`
}

type ipinfoProvider struct {
	authToken string
	client    maplib.HTTPClient
}

func (i ipinfoProvider) Name() string {
	return NameIPInfo
}

func (i ipinfoProvider) Lookup(ctx context.Context, key string) (maplib.ProviderLookupResult, error) {
	result := maplib.ProviderLookupResult{}

	ip, err := parseIP(key)
	if err != nil {
		return result, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ipInfoBaseURL+ip.String(), nil)
	if err != nil {
		return result, fmt.Errorf("cannot build a request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if i.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+i.authToken)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("cannot send a request: %w", err)
	}

	defer flushResponse(resp.Body)

	jsonResponse := ipinfoResponse{}

	if err := decodeJSONResponse(resp, &jsonResponse); err != nil {
		return result, err
	}

	// private and reserved ranges
	if jsonResponse.Bogon {
		return result, nil
	}

	if jsonResponse.Loc != "" {
		lat, lon, err := i.parseLoc(jsonResponse.Loc)
		if err != nil {
			return result, fmt.Errorf("cannot parse a location %q: %w", jsonResponse.Loc, err)
		}

		result.Latitude = &lat
		result.Longitude = &lon
	}

	result.City = jsonResponse.City
	result.Country = maplib.CountryName(jsonResponse.Country)
	result.Subdivision = jsonResponse.Region
	result.TimeZone = jsonResponse.Timezone

	return result, nil
}

func (i ipinfoProvider) parseLoc(loc string) (float64, float64, error) {
	chunks := strings.SplitN(loc, ",", 2)
	if len(chunks) != 2 {
		return 0, 0, fmt.Errorf("unexpected format")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(chunks[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("incorrect latitude: %w", err)
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(chunks[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("incorrect longitude: %w", err)
	}

	return lat, lon, nil
}

// NewIPInfo returns a provider for ipinfo.io. auth_token parameter
// is optional.
func NewIPInfo(client maplib.HTTPClient, parameters map[string]string) maplib.Provider {
	return ipinfoProvider{
		authToken: parameters["auth_token"],
		client:    client,
	}
}
