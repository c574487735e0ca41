package rules

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Load reads a rules YAML file and merges it over the built-in defaults.
// A list present in the file replaces the default list of the same name;
// lists absent from the file keep their defaults. An empty path returns
// the defaults.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rules: read %s", path)
	}
	return Parse(data)
}

// Parse merges YAML-encoded tables over the defaults and compiles them.
func Parse(data []byte) (*Rules, error) {
	// The YAML has a top-level "rules" key.
	var wrapper struct {
		Rules Rules `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "rules: parse")
	}

	r := defaultTables()
	r.merge(&wrapper.Rules)
	if err := r.Compile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rules) merge(o *Rules) {
	if o.DomesticCountryCode != "" {
		r.DomesticCountryCode = o.DomesticCountryCode
	}
	if o.ElevenDigitForeign != "" {
		r.ElevenDigitForeign = o.ElevenDigitForeign
	}
	replace(&r.AreaCodes, o.AreaCodes)
	replace(&r.CountryCodes, o.CountryCodes)
	replace(&r.FakePhonePrefixes, o.FakePhonePrefixes)
	replace(&r.FakePhoneIDs, o.FakePhoneIDs)
	replace(&r.EmailTLDs, o.EmailTLDs)
	replace(&r.FileExtensions, o.FileExtensions)
	replace(&r.GenericSenders, o.GenericSenders)
	replace(&r.Titles, o.Titles)
	replace(&r.FirstNames, o.FirstNames)
	replace(&r.WebsiteDenylist, o.WebsiteDenylist)
	replace(&r.Neighborhoods, o.Neighborhoods)
	replace(&r.Cities, o.Cities)
	replace(&r.Consent, o.Consent)
}

func replace[T any](dst *[]T, src []T) {
	if len(src) > 0 {
		*dst = src
	}
}
