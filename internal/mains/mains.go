// Package mains detects the local electrical mains frequency from the system
// timezone, and flags binaural carriers that sit on one of its harmonics.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// DefaultFrequency is used whenever detection fails; it is the more common
// standard globally.
const DefaultFrequency = 50

// Detection is the outcome of mains frequency detection.
type Detection struct {
	Timezone  string // IANA name, empty if unknown
	Country   string // empty if the timezone has no country
	Frequency int    // 50 or 60
}

// Detect reads the runtime timezone and maps it to a mains frequency.
func Detect() Detection {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Detection{Frequency: DefaultFrequency}
	}
	return detectTimezone(timezone)
}

// Frequency returns the local mains frequency in Hz (50 or 60).
func Frequency() int {
	return Detect().Frequency
}

// FrequencyForTimezone returns the mains frequency for an IANA timezone.
func FrequencyForTimezone(timezone string) int {
	return detectTimezone(timezone).Frequency
}

func detectTimezone(timezone string) Detection {
	d := Detection{Timezone: timezone, Frequency: DefaultFrequency}

	// UTC and friends have no country
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return d
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return d
	}
	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return d
	}

	d.Country = country
	d.Frequency = frequencyForCountry(country)
	return d
}

// frequencyForCountry maps a country name to its mains frequency. Japan is
// split by region; the Tokyo side runs at 50 Hz.
func frequencyForCountry(country string) int {
	if hz60Countries[country] {
		return 60
	}
	return DefaultFrequency
}

// hz60Countries lists countries using 60Hz mains power.
// All other countries use 50Hz.
// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var hz60Countries = map[string]bool{
	// North America
	"United States": true,
	"Canada":        true,
	"Mexico":        true,

	// Central America
	"Belize":      true,
	"Costa Rica":  true,
	"El Salvador": true,
	"Guatemala":   true,
	"Honduras":    true,
	"Nicaragua":   true,
	"Panama":      true,

	// Caribbean
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,

	// South America (partial, most use 50Hz)
	"Brazil":    true, // Note: Brazil has both 50Hz and 60Hz regions; 60Hz predominant
	"Colombia":  true,
	"Ecuador":   true,
	"Guyana":    true,
	"Peru":      true,
	"Suriname":  true,
	"Venezuela": true,

	// Asia (partial)
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
