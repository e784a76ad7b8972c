package report

// Territory names as they appear in the reference sheet, mapped to country
// codes and a sales region. Prompts and slide placeholders use these; an
// unknown territory degrades to no codes and the "Other" region rather than
// failing a report.

var countryCodes = map[string][]string{
	"Japan":          {"JP"},
	"United States":  {"US"},
	"Canada":         {"CA"},
	"United Kingdom": {"GB"},
	"Ireland":        {"IE"},
	"France":         {"FR"},
	"Germany":        {"DE"},
	"Italy":          {"IT"},
	"Spain":          {"ES"},
	"Portugal":       {"PT"},
	"Netherlands":    {"NL"},
	"Belgium":        {"BE"},
	"Switzerland":    {"CH"},
	"Austria":        {"AT"},
	"Nordics":        {"SE", "NO", "DK", "FI"},
	"Australia":      {"AU"},
	"New Zealand":    {"NZ"},
	"Singapore":      {"SG"},
	"South Korea":    {"KR"},
	"Taiwan":         {"TW"},
	"Hong Kong":      {"HK"},
	"Thailand":       {"TH"},
	"Indonesia":      {"ID"},
	"Vietnam":        {"VN"},
	"Philippines":    {"PH"},
	"Malaysia":       {"MY"},
	"India":          {"IN"},
	"Brazil":         {"BR"},
	"Mexico":         {"MX"},
	"UAE":            {"AE"},
	"Saudi Arabia":   {"SA"},
}

var countryRegions = map[string]string{
	"Japan":          "Japan",
	"United States":  "North America",
	"Canada":         "North America",
	"Mexico":         "LATAM",
	"Brazil":         "LATAM",
	"United Kingdom": "EMEA",
	"Ireland":        "EMEA",
	"France":         "EMEA",
	"Germany":        "EMEA",
	"Italy":          "EMEA",
	"Spain":          "EMEA",
	"Portugal":       "EMEA",
	"Netherlands":    "EMEA",
	"Belgium":        "EMEA",
	"Switzerland":    "EMEA",
	"Austria":        "EMEA",
	"Nordics":        "EMEA",
	"UAE":            "EMEA",
	"Saudi Arabia":   "EMEA",
	"Australia":      "APAC",
	"New Zealand":    "APAC",
	"Singapore":      "APAC",
	"South Korea":    "APAC",
	"Taiwan":         "APAC",
	"Hong Kong":      "APAC",
	"Thailand":       "APAC",
	"Indonesia":      "APAC",
	"Vietnam":        "APAC",
	"Philippines":    "APAC",
	"Malaysia":       "APAC",
	"India":          "APAC",
}

// CountryCodes maps a territory name to its country code list. Unknown
// names return nil.
func CountryCodes(territory string) []string {
	return countryCodes[territory]
}

// Region maps a territory name to its sales region, "Other" when unknown.
func Region(territory string) string {
	if r, ok := countryRegions[territory]; ok {
		return r
	}
	return "Other"
}
