package geo

import "strings"

// countryAliases maps the country spellings seen in vendor profiles and
// checkout address snapshots to ISO-2 codes.
var countryAliases = map[string]string{
	"UNITED ARAB EMIRATES":     "AE",
	"UAE":                      "AE",
	"EMIRATES":                 "AE",
	"UNITED STATES":            "US",
	"UNITED STATES OF AMERICA": "US",
	"USA":                      "US",
	"AMERICA":                  "US",
	"UNITED KINGDOM":           "GB",
	"GREAT BRITAIN":            "GB",
	"UK":                       "GB",
	"ENGLAND":                  "GB",
	"SAUDI ARABIA":             "SA",
	"KINGDOM OF SAUDI ARABIA":  "SA",
	"KSA":                      "SA",
	"INDIA":                    "IN",
	"PAKISTAN":                 "PK",
	"EGYPT":                    "EG",
	"QATAR":                    "QA",
	"KUWAIT":                   "KW",
	"BAHRAIN":                  "BH",
	"OMAN":                     "OM",
	"JORDAN":                   "JO",
	"LEBANON":                  "LB",
	"TURKEY":                   "TR",
	"CHINA":                    "CN",
	"PHILIPPINES":              "PH",
	"BANGLADESH":               "BD",
	"SRI LANKA":                "LK",
	"NIGERIA":                  "NG",
	"SOUTH AFRICA":             "ZA",
	"GERMANY":                  "DE",
	"FRANCE":                   "FR",
	"ITALY":                    "IT",
	"SPAIN":                    "ES",
	"CANADA":                   "CA",
	"AUSTRALIA":                "AU",
	"RUSSIA":                   "RU",
	"JAPAN":                    "JP",
	"SOUTH KOREA":              "KR",
	"BRAZIL":                   "BR",
	"MEXICO":                   "MX",
	"INDONESIA":                "ID",
	"MALAYSIA":                 "MY",
	"SINGAPORE":                "SG",
	"THAILAND":                 "TH",
	"VIETNAM":                  "VN",
	"NETHERLANDS":              "NL",
	"HOLLAND":                  "NL",
	"SWITZERLAND":              "CH",
	"IRAQ":                     "IQ",
	"IRAN":                     "IR",
	"YEMEN":                    "YE",
	"SYRIA":                    "SY",
	"MOROCCO":                  "MA",
	"TUNISIA":                  "TN",
	"ALGERIA":                  "DZ",
	"SUDAN":                    "SD",
	"KENYA":                    "KE",
	"ETHIOPIA":                 "ET",
}

// Normalize maps a free-text country value to an ISO-2 code. Two-letter input
// is taken as already normalized. Unknown input comes back uppercased rather
// than failing: geography classification degrades, it never blocks an order.
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if len(s) == 2 {
		return s
	}
	if code, ok := countryAliases[s]; ok {
		return code
	}
	return s
}
