// Package validate decides whether candidate contact values are plausibly
// real. Validators are whitelist-by-construction: anything that does not
// match a recognised shape is rejected.
package validate

import (
	"regexp"
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/normalize"
	"github.com/sells-group/lead-cli/internal/rules"
)

// Validator checks candidates against a rules table. It is safe for
// concurrent use.
type Validator struct {
	rules *rules.Rules
}

// New returns a Validator backed by r.
func New(r *rules.Rules) *Validator {
	return &Validator{rules: r}
}

// Accept dispatches on the candidate kind. Kinds without a validator are
// accepted when non-empty.
func (v *Validator) Accept(c model.Candidate) bool {
	switch c.Kind {
	case model.KindEmail:
		return v.Email(c.Value)
	case model.KindPhone:
		return v.Phone(c.Value)
	default:
		return strings.TrimSpace(c.Value) != ""
	}
}

var (
	emailShapeRe    = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)
	semverRe        = regexp.MustCompile(`\d+\.\d+\.\d+`)
	densitySuffixRe = regexp.MustCompile(`@\d+x\.(?:png|jpe?g|webp|gif|svg|avif)$`)
)

// Email reports whether value looks like a real, reachable address.
func (v *Validator) Email(value string) bool {
	e := strings.ToLower(strings.TrimSpace(value))
	if e == "" {
		return false
	}
	if semverRe.MatchString(e) || densitySuffixRe.MatchString(e) {
		return false
	}
	if !emailShapeRe.MatchString(e) {
		return false
	}

	local, domain, _ := strings.Cut(e, "@")
	if v.hasFileExtension(local) || v.hasFileExtension(domain) {
		return false
	}
	tld := domain[strings.LastIndexByte(domain, '.')+1:]
	if !v.rules.IsTLD(tld) {
		return false
	}
	if _, generic := v.rules.GenericSender(local); generic {
		return false
	}
	return true
}

func (v *Validator) hasFileExtension(part string) bool {
	i := strings.LastIndexByte(part, '.')
	if i < 0 {
		return false
	}
	return v.rules.IsFileExtension(part[i+1:])
}

// Phone reports whether a digits-only value has a recognised phone shape.
// Non-digit characters are stripped first, so the result is unchanged by
// re-normalising an already clean value.
func (v *Validator) Phone(value string) bool {
	d := normalize.Digits(value)
	n := len(d)

	if n < 8 || n > 15 {
		return false
	}
	if v.rules.IsFakePhone(d) {
		return false
	}

	switch {
	case n <= 9:
		return true
	case n <= 11:
		if v.rules.IsAreaCode(d[:2]) {
			return true
		}
		cc := v.rules.ElevenDigitForeign
		return n == 11 && cc != "" && strings.HasPrefix(d, cc)
	default:
		dom := v.rules.DomesticCountryCode
		if dom != "" && strings.HasPrefix(d, dom) {
			rest := d[len(dom):]
			return len(rest) == 11 && v.rules.IsAreaCode(rest[:2])
		}
		return v.rules.IsCountryCode(d[:3]) || v.rules.IsCountryCode(d[:2])
	}
}
