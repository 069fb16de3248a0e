package config

// CountryCodes maps chart country names, as typed in the inputs file after
// title-casing, to ISO 3166 alpha-2 codes.
var CountryCodes = map[string]string{
	"Algeria":                  "DZ",
	"Angola":                   "AO",
	"Anguilla":                 "AI",
	"Antigua & Barbuda":        "AG",
	"Argentina":                "AR",
	"Armenia":                  "AM",
	"Australia":                "AU",
	"Austria":                  "AT",
	"Azerbaijan":               "AZ",
	"Bahamas":                  "BS",
	"Bahrain":                  "BH",
	"Barbados":                 "BB",
	"Belarus":                  "BY",
	"Belgium":                  "BE",
	"Belize":                   "BZ",
	"Benin":                    "BJ",
	"Bermuda":                  "BM",
	"Bhutan":                   "BT",
	"Bolivia":                  "BO",
	"Botswana":                 "BW",
	"Brazil":                   "BR",
	"British Virgin Islands":   "VG",
	"Bulgaria":                 "BG",
	"Cambodia":                 "KH",
	"Cameroon":                 "CM",
	"Canada":                   "CA",
	"Cape Verde":               "CV",
	"Cayman Islands":           "KY",
	"Chad":                     "TD",
	"Chile":                    "CL",
	"China":                    "CN",
	"Colombia":                 "CO",
	"Congo - Brazzaville":      "CG",
	"Congo - Kinshasa":         "CD",
	"Costa Rica":               "CR",
	"Croatia":                  "HR",
	"Cyprus":                   "CY",
	"Czech Republic":           "CZ",
	"Czechia":                  "CZ",
	"Côte d’Ivoire":            "CI",
	"Denmark":                  "DK",
	"Dominica":                 "DM",
	"Dominican Republic":       "DO",
	"Ecuador":                  "EC",
	"Egypt":                    "EG",
	"El Salvador":              "SV",
	"Estonia":                  "EE",
	"Eswatini":                 "SZ",
	"Fiji":                     "FJ",
	"Finland":                  "FI",
	"France":                   "FR",
	"Gambia":                   "GM",
	"Germany":                  "DE",
	"Ghana":                    "GH",
	"Greece":                   "GR",
	"Grenada":                  "GD",
	"Guatemala":                "GT",
	"Guinea-Bissau":            "GW",
	"Guyana":                   "GY",
	"Honduras":                 "HN",
	"Hong Kong SAR China":      "HK",
	"Hungary":                  "HU",
	"Iceland":                  "IS",
	"India":                    "IN",
	"Indonesia":                "ID",
	"Ireland":                  "IE",
	"Israel":                   "IL",
	"Italy":                    "IT",
	"Jamaica":                  "JM",
	"Japan":                    "JP",
	"Jordan":                   "JO",
	"Kazakhstan":               "KZ",
	"Kenya":                    "KE",
	"Kuwait":                   "KW",
	"Kyrgyzstan":               "KG",
	"Laos":                     "LA",
	"Latvia":                   "LV",
	"Lebanon":                  "LB",
	"Liberia":                  "LR",
	"Libya":                    "LY",
	"Lithuania":                "LT",
	"Luxembourg":               "LU",
	"Macao SAR China":          "MO",
	"Madagascar":               "MG",
	"Malawi":                   "MW",
	"Malaysia":                 "MY",
	"Maldives":                 "MV",
	"Mali":                     "ML",
	"Malta":                    "MT",
	"Mauritius":                "MU",
	"Mexico":                   "MX",
	"Micronesia":               "FM",
	"Moldova":                  "MD",
	"Mongolia":                 "MN",
	"Montserrat":               "MS",
	"Morocco":                  "MA",
	"Mozambique":               "MZ",
	"Myanmar (Burma)":          "MM",
	"Namibia":                  "NA",
	"Nepal":                    "NP",
	"Netherlands":              "NL",
	"New Zealand":              "NZ",
	"Nicaragua":                "NI",
	"Niger":                    "NE",
	"Nigeria":                  "NG",
	"North Macedonia":          "MK",
	"Norway":                   "NO",
	"Oman":                     "OM",
	"Pakistan":                 "PK",
	"Panama":                   "PA",
	"Papua New Guinea":         "PG",
	"Paraguay":                 "PY",
	"Peru":                     "PE",
	"Philippines":              "PH",
	"Poland":                   "PL",
	"Portugal":                 "PT",
	"Puerto Rico":              "PR",
	"Qatar":                    "QA",
	"Romania":                  "RO",
	"Russia":                   "RU",
	"Saudi Arabia":             "SA",
	"Senegal":                  "SN",
	"Serbia":                   "RS",
	"Seychelles":               "SC",
	"Sierra Leone":             "SL",
	"Singapore":                "SG",
	"Slovakia":                 "SK",
	"Slovenia":                 "SI",
	"Solomon Islands":          "SB",
	"South Africa":             "ZA",
	"South Korea":              "KR",
	"Spain":                    "ES",
	"Sri Lanka":                "LK",
	"St. Kitts & Nevis":        "KN",
	"St. Lucia":                "LC",
	"St. Vincent & Grenadines": "VC",
	"Suriname":                 "SR",
	"Sweden":                   "SE",
	"Switzerland":              "CH",
	"Taiwan":                   "TW",
	"Tajikistan":               "TJ",
	"Tanzania":                 "TZ",
	"Thailand":                 "TH",
	"Trinidad & Tobago":        "TT",
	"Tunisia":                  "TN",
	"Turkey":                   "TR",
	"Turkmenistan":             "TM",
	"Turks & Caicos Islands":   "TC",
	"Uganda":                   "UG",
	"Ukraine":                  "UA",
	"United Arab Emirates":     "AE",
	"United Kingdom":           "GB",
	"United States":            "US",
	"Uruguay":                  "UY",
	"Uzbekistan":               "UZ",
	"Venezuela":                "VE",
	"Vietnam":                  "VN",
	"Yemen":                    "YE",
	"Zimbabwe":                 "ZW",
}

var countryNames = func() map[string]string {
	m := make(map[string]string, len(CountryCodes))
	for name, code := range CountryCodes {
		if prev, ok := m[code]; !ok || name < prev {
			m[code] = name
		}
	}
	return m
}()

// CountryName returns the display name for a country code, or the code itself
// when it is unknown.
func CountryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	return code
}
