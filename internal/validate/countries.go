package validate

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Countries offered by the registration form.
var Countries = []string{
	"Bénin",
	"Burkina Faso",
	"Côte d'Ivoire",
	"Ghana",
	"Mali",
	"Niger",
	"Nigeria",
	"Sénégal",
	"Togo",
	"France",
	"Allemagne",
	"Canada",
	"États-Unis",
}

// CanonicalCountry returns the list entry matching name, comparing in NFC
// so decomposed accents ("Bénin") still match. Apostrophe variants
// and surrounding spaces are tolerated.
func CanonicalCountry(name string) (string, bool) {
	key := countryKey(name)
	if key == "" {
		return "", false
	}
	for _, c := range Countries {
		if countryKey(c) == key {
			return c, true
		}
	}
	return "", false
}

func countryKey(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "’", "'")
	return strings.ToLower(s)
}
