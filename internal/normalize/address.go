package normalize

import (
	"regexp"
	"strings"
)

// Address is an address-shaped value split into its parts. Fields that
// could not be found are empty.
type Address struct {
	Line    string `json:"line"`
	ZipCode string `json:"zip_code,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
}

var (
	streetKeywordRe = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(rua|avenida|av\.?|travessa|tv\.|alameda|rodovia|rod\.|estrada|pra[çc]a|largo|quadra|setor)(?:[^\p{L}]|$)`)
	cepRe           = regexp.MustCompile(`(?:^|\D)(\d{5})-?(\d{3})(?:\D|$)`)
	countryRe       = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(brasil|brazil)(?:[^\p{L}]|$)`)
	cityStateRe     = regexp.MustCompile(`(\p{L}[\p{L} ]*?)\s*[-/,]\s*(` + strings.Join(stateCodes, "|") + `)(?:[^\p{L}]|$)`)
)

// stateCodes are the 27 federative unit abbreviations.
var stateCodes = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO", "MA", "MT", "MS", "MG", "PA",
	"PB", "PR", "PE", "PI", "RJ", "RN", "RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

// LooksLikeAddress reports whether text contains a street-type keyword, a
// postal-code-shaped digit run, or a country name.
func LooksLikeAddress(text string) bool {
	return streetKeywordRe.MatchString(text) || cepRe.MatchString(text) || countryRe.MatchString(text)
}

// ParseAddress splits an address-shaped string into postal code, city and
// state. It returns false when text is not address-shaped.
func ParseAddress(text string) (Address, bool) {
	text = strings.TrimSpace(text)
	if !LooksLikeAddress(text) {
		return Address{}, false
	}
	a := Address{Line: text}
	if m := cepRe.FindStringSubmatch(text); m != nil {
		a.ZipCode = m[1] + "-" + m[2]
	}
	if ms := cityStateRe.FindAllStringSubmatch(text, -1); len(ms) > 0 {
		last := ms[len(ms)-1]
		a.City = strings.TrimSpace(last[1])
		a.State = last[2]
	}
	return a, true
}
