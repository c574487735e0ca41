package normalize

import (
	"iter"
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
)

const (
	domesticBody = `\(?\d{2}\)?[\s.-]?9?\d{4}[\s.-]?\d{4}`
	bareLocal    = `9?\d{4}[\s.-]?\d{4}`
)

var (
	labeledPhoneRe = regexp.MustCompile(`(?i)(?:whats(?:app)?|wpp|zap|tel(?:efone)?|fone|cel(?:ular)?|contato|📱|📞|☎️?)\s*[:\-]?\s*` +
		`((?:\+?55[\s.-]?)?` + domesticBody + `|` + bareLocal + `)`)
	countryPhoneRe = regexp.MustCompile(`\+?55[\s.-]?` + domesticBody)
	areaPhoneRe    = regexp.MustCompile(domesticBody)
	intlPhoneRe    = regexp.MustCompile(`\+\d{1,3}[\s.-]?\(?\d{1,4}\)?(?:[\s.-]?\d{2,5}){2,4}`)
	bareLocalRe    = regexp.MustCompile(bareLocal)
)

// phoneTable is tried in order: labeled and emoji-prefixed forms first,
// then country-code, international, area-code, and bare local shapes.
// International runs ahead of area-code so the national part of a
// +<cc> number is not claimed on its own.
var phoneTable = []pattern{
	{re: labeledPhoneRe, group: 1, value: Digits, bounded: true},
	{re: countryPhoneRe, value: Digits, bounded: true},
	{re: intlPhoneRe, value: Digits, bounded: true},
	{re: areaPhoneRe, value: Digits, bounded: true},
	{re: bareLocalRe, value: Digits, bounded: true},
}

// Phones scans text for phone numbers. Each match is reduced to digits;
// validation is left to the caller. Text without digits yields nothing.
func Phones(text string, src model.Source) iter.Seq[model.Candidate] {
	if !strings.ContainsAny(text, "0123456789") {
		return func(func(model.Candidate) bool) {}
	}
	return scan(text, phoneTable, model.KindPhone, src)
}

// PhoneFromMessagingLink pulls the phone number embedded in a messaging
// deep link: wa.me/<digits>, .../send?phone=<digits> or t.me/+<digits>.
func PhoneFromMessagingLink(raw string) (model.Candidate, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Candidate{}, false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return model.Candidate{}, false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	var digits string
	switch {
	case host == "wa.me":
		digits = Digits(firstSegment(u.Path))
	case host == "t.me":
		if seg := firstSegment(u.Path); strings.HasPrefix(seg, "+") {
			digits = Digits(seg)
		}
	case host == "whatsapp.com" || strings.HasSuffix(host, ".whatsapp.com"):
		digits = Digits(u.Query().Get("phone"))
	}
	if digits == "" {
		return model.Candidate{}, false
	}
	return model.Candidate{Kind: model.KindPhone, Value: digits, Source: model.SourceMessagingDeepLink}, true
}

func firstSegment(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
