package country

import "strings"

// FallbackCode is returned when a country name cannot be resolved. The news
// provider requires some valid code, so an unresolved name degrades to this
// rather than failing the fetch.
const FallbackCode = "us"

// nameToCode maps lowercased country names to ISO 3166-1 alpha-2 codes.
// Covers the countries the news provider's top-headlines endpoint supports.
var nameToCode = map[string]string{
	"united states":        "us",
	"canada":               "ca",
	"united kingdom":       "gb",
	"australia":            "au",
	"germany":              "de",
	"france":               "fr",
	"south africa":         "za",
	"india":                "in",
	"brazil":               "br",
	"china":                "cn",
	"japan":                "jp",
	"mexico":               "mx",
	"nigeria":              "ng",
	"egypt":                "eg",
	"ireland":              "ie",
	"italy":                "it",
	"netherlands":          "nl",
	"new zealand":          "nz",
	"norway":               "no",
	"philippines":          "ph",
	"poland":               "pl",
	"portugal":             "pt",
	"romania":              "ro",
	"russia":               "ru",
	"saudi arabia":         "sa",
	"serbia":               "rs",
	"singapore":            "sg",
	"slovakia":             "sk",
	"slovenia":             "si",
	"south korea":          "kr",
	"sweden":               "se",
	"switzerland":          "ch",
	"taiwan":               "tw",
	"thailand":             "th",
	"turkey":               "tr",
	"ukraine":              "ua",
	"united arab emirates": "ae",
	"venezuela":            "ve",
}

// codeToName is the derived inverse of nameToCode, used only for display.
var codeToName = func() map[string]string {
	m := make(map[string]string, len(nameToCode))
	for name, code := range nameToCode {
		m[code] = title(name)
	}
	return m
}()

// Resolve maps a free-text country name to an ISO 3166-1 alpha-2 code.
// A 2-letter alphabetic token is treated as already resolved and returned
// lowercased without a table lookup. Unknown names return FallbackCode with
// resolved=false so the caller can surface the degraded condition.
func Resolve(name string) (code string, resolved bool) {
	s := strings.TrimSpace(name)
	if isTwoLetterToken(s) {
		return strings.ToLower(s), true
	}
	if code, ok := nameToCode[strings.ToLower(s)]; ok {
		return code, true
	}
	return FallbackCode, false
}

// Name returns the display name for an alpha-2 code, or the empty string if
// the code is not in the table.
func Name(code string) string {
	return codeToName[strings.ToLower(strings.TrimSpace(code))]
}

func isTwoLetterToken(s string) bool {
	r := []rune(s)
	if len(r) != 2 {
		return false
	}
	for _, c := range r {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

// title upper-cases the first letter of each space-separated word.
func title(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
