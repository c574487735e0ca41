package normalize

import (
	"iter"
	"regexp"
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
)

var (
	obfuscatedAtRe  = `\s*(?:\[\s*(?:at|arroba)\s*\]|\(\s*(?:at|arroba)\s*\)|\s(?:at|arroba)\s)\s*`
	obfuscatedDotRe = `(?:\[\s*(?:dot|ponto)\s*\]|\(\s*(?:dot|ponto)\s*\)|\s(?:dot|ponto)\s|\.)`

	obfuscatedEmailRe = regexp.MustCompile(`(?i)[a-z0-9._%+-]+` + obfuscatedAtRe +
		`[a-z0-9-]+(?:\s*` + obfuscatedDotRe + `\s*[a-z0-9-]+)+`)
	obfuscatedAtPart  = regexp.MustCompile(`(?i)` + obfuscatedAtRe)
	obfuscatedDotPart = regexp.MustCompile(`(?i)\s*` + obfuscatedDotRe + `\s*`)

	plainEmailRe = regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
)

// emailTable is tried in order. The plain form also covers labeled
// ("email: x@y.com") and emoji-prefixed addresses since only the address
// itself is matched.
var emailTable = []pattern{
	{re: obfuscatedEmailRe, value: deobfuscateEmail},
	{re: plainEmailRe, value: strings.ToLower},
}

func deobfuscateEmail(m string) string {
	parts := obfuscatedAtPart.Split(m, 2)
	if len(parts) != 2 {
		return ""
	}
	domain := obfuscatedDotPart.ReplaceAllString(parts[1], ".")
	return strings.ToLower(strings.TrimSpace(parts[0]) + "@" + strings.TrimSpace(domain))
}

// Emails scans text for email addresses, including obfuscated forms such
// as "nome [at] dominio [dot] com" and "nome arroba dominio ponto com".
// Values are lowercased and not yet validated.
func Emails(text string, src model.Source) iter.Seq[model.Candidate] {
	return scan(text, emailTable, model.KindEmail, src)
}
