package maplib

import (
	"strings"

	"github.com/pariz/gountries"
)

var countryQuery = gountries.New()

// CountryName returns a common name of the country by its ISO3166
// alpha-2 or alpha-3 code. If code is unknown, it is returned as is.
//
// Some databases use ZZ or XX as unknown country, empty string is
// returned for them.
func CountryName(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))

	switch code {
	case "", "ZZ", "XX":
		return ""
	}

	country, err := countryQuery.FindCountryByAlpha(code)
	if err != nil {
		return code
	}

	return country.Name.Common
}
