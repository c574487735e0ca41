// Package rules holds the lookup tables that drive contact normalization
// and validation. Tables are plain data so they can be updated from a YAML
// file without touching extraction logic.
package rules

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Place is a gazetteer entry. Neighborhood is empty for city entries.
type Place struct {
	Neighborhood string   `yaml:"neighborhood,omitempty" json:"neighborhood,omitempty"`
	City         string   `yaml:"city" json:"city"`
	State        string   `yaml:"state" json:"state"`
	Aliases      []string `yaml:"aliases,omitempty" json:"-"`
}

// ConsentRule tags free text that matches any of its patterns.
type ConsentRule struct {
	Tag      string   `yaml:"tag"`
	Patterns []string `yaml:"patterns"`

	compiled []*regexp.Regexp
}

// Match reports whether any pattern matches text.
func (c ConsentRule) Match(text string) bool {
	for _, re := range c.compiled {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Rules is the full set of tables. Call Compile after mutating any list.
type Rules struct {
	DomesticCountryCode string   `yaml:"domestic_country_code"`
	ElevenDigitForeign  string   `yaml:"eleven_digit_foreign_code"`
	AreaCodes           []string `yaml:"area_codes"`
	CountryCodes        []string `yaml:"country_codes"`
	FakePhonePrefixes   []string `yaml:"fake_phone_prefixes"`
	FakePhoneIDs        []string `yaml:"fake_phone_ids"`

	EmailTLDs      []string `yaml:"email_tlds"`
	FileExtensions []string `yaml:"file_extensions"`
	GenericSenders []string `yaml:"generic_senders"`

	Titles     []string `yaml:"titles"`
	FirstNames []string `yaml:"first_names"`

	WebsiteDenylist []string `yaml:"website_denylist"`

	Neighborhoods []Place `yaml:"neighborhoods"`
	Cities        []Place `yaml:"cities"`

	Consent []ConsentRule `yaml:"consent"`

	areaCodes     map[string]bool
	countryCodes  map[string]bool
	fakeIDs       map[string]bool
	tlds          map[string]bool
	fileExts      map[string]bool
	titles        []string
	firstNames    []string
	neighborhoods map[string]Place
	cities        map[string]Place
}

// Compile builds the lookup indexes and compiles consent patterns.
func (r *Rules) Compile() error {
	r.areaCodes = toSet(r.AreaCodes)
	r.countryCodes = toSet(r.CountryCodes)
	r.fakeIDs = toSet(r.FakePhoneIDs)
	r.tlds = toSet(r.EmailTLDs)
	r.fileExts = toSet(r.FileExtensions)
	r.titles = longestFirst(r.Titles)
	r.firstNames = longestFirst(r.FirstNames)

	r.neighborhoods = make(map[string]Place, len(r.Neighborhoods))
	for _, p := range r.Neighborhoods {
		if p.Neighborhood == "" {
			return eris.Errorf("rules: neighborhood entry for city %q has no name", p.City)
		}
		indexPlace(r.neighborhoods, p, p.Neighborhood)
	}
	r.cities = make(map[string]Place, len(r.Cities))
	for _, p := range r.Cities {
		if p.City == "" {
			return eris.New("rules: city entry has no name")
		}
		indexPlace(r.cities, p, p.City)
	}

	for i := range r.Consent {
		c := &r.Consent[i]
		c.compiled = c.compiled[:0]
		for _, pat := range c.Patterns {
			re, err := regexp.Compile(pat)
			if err != nil {
				return eris.Wrapf(err, "rules: compile consent pattern for %s", c.Tag)
			}
			c.compiled = append(c.compiled, re)
		}
	}
	return nil
}

func indexPlace(idx map[string]Place, p Place, name string) {
	for _, alias := range append([]string{name}, p.Aliases...) {
		if key := FoldKey(alias); key != "" {
			idx[key] = p
		}
	}
}

func toSet(list []string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, v := range list {
		m[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return m
}

func longestFirst(list []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	slices.SortStableFunc(out, func(a, b string) int { return len(b) - len(a) })
	return out
}

// IsAreaCode reports whether code is a known domestic area code.
func (r *Rules) IsAreaCode(code string) bool { return r.areaCodes[code] }

// IsCountryCode reports whether code is an allow-listed foreign country code.
func (r *Rules) IsCountryCode(code string) bool { return r.countryCodes[code] }

// IsFakePhone reports whether a digits-only value is a platform-injected ID.
func (r *Rules) IsFakePhone(digits string) bool {
	if r.fakeIDs[digits] {
		return true
	}
	for _, p := range r.FakePhonePrefixes {
		if p != "" && strings.HasPrefix(digits, p) {
			return true
		}
	}
	return false
}

// IsTLD reports whether tld is on the email allow-list.
func (r *Rules) IsTLD(tld string) bool { return r.tlds[tld] }

// IsFileExtension reports whether ext (without the dot) is an asset extension.
func (r *Rules) IsFileExtension(ext string) bool { return r.fileExts[ext] }

// GenericSender returns the generic-sender marker found in local, if any.
func (r *Rules) GenericSender(local string) (string, bool) {
	for _, m := range r.GenericSenders {
		if m != "" && strings.Contains(local, m) {
			return m, true
		}
	}
	return "", false
}

// TitlesLongestFirst returns professional titles, longest first.
func (r *Rules) TitlesLongestFirst() []string { return r.titles }

// FirstNamesLongestFirst returns known first names, longest first.
func (r *Rules) FirstNamesLongestFirst() []string { return r.firstNames }

// DeniedHost reports whether host belongs to a denylisted platform domain.
func (r *Rules) DeniedHost(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, d := range r.WebsiteDenylist {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Neighborhood looks up a folded key in the neighborhood gazetteer.
func (r *Rules) Neighborhood(key string) (Place, bool) {
	p, ok := r.neighborhoods[key]
	return p, ok
}

// City looks up a folded key in the city gazetteer.
func (r *Rules) City(key string) (Place, bool) {
	p, ok := r.cities[key]
	return p, ok
}

// foldChain is built per call; transformers carry state and are not safe
// for concurrent use.
func foldChain() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// FoldKey lowercases s, strips diacritics and drops every non-letter, so
// "#BarraDaTijuca", "barra da tijuca" and "Barra-da-Tijuca" share a key.
func FoldKey(s string) string {
	folded, _, err := transform.String(foldChain(), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FoldAccents strips diacritics while keeping case and punctuation.
func FoldAccents(s string) string {
	folded, _, err := transform.String(foldChain(), s)
	if err != nil {
		return s
	}
	return folded
}
