package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/9seconds/ipmap/maplib"
)

const ipLocateBaseURL = "https://iplocate.io/api/lookup/"

type ipLocateResponse struct {
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Subdivision string   `json:"subdivision"`
	TimeZone    string   `json:"time_zone"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type ipLocateProvider struct {
	apiKey string
	client maplib.HTTPClient
}

func (i ipLocateProvider) Name() string {
	return NameIPLocate
}

func (i ipLocateProvider) Lookup(ctx context.Context, key string) (maplib.ProviderLookupResult, error) {
	result := maplib.ProviderLookupResult{}

	ip, err := parseIP(key)
	if err != nil {
		return result, err
	}

	endpoint := ipLocateBaseURL + url.PathEscape(ip.String())

	if i.apiKey != "" {
		endpoint += "?" + url.Values{"apikey": []string{i.apiKey}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return result, fmt.Errorf("cannot build a request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("cannot send a request: %w", err)
	}

	defer flushResponse(resp.Body)

	jsonResponse := ipLocateResponse{}

	if err := decodeJSONResponse(resp, &jsonResponse); err != nil {
		return result, err
	}

	result.City = jsonResponse.City
	result.Country = jsonResponse.Country
	result.Subdivision = jsonResponse.Subdivision
	result.TimeZone = jsonResponse.TimeZone
	result.Latitude = jsonResponse.Latitude
	result.Longitude = jsonResponse.Longitude

	return result, nil
}

// NewIPLocate returns a provider for iplocate.io. It accepts optional
// api_key parameter, anonymous access is rate limited by the service.
func NewIPLocate(client maplib.HTTPClient, parameters map[string]string) maplib.Provider {
	return ipLocateProvider{
		apiKey: parameters["api_key"],
		client: client,
	}
}
