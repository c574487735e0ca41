package normalize

import (
	"regexp"
	"strings"

	"github.com/sells-group/lead-cli/internal/rules"
)

// CityStateFromTags looks tags up in the gazetteer. Neighborhoods are
// checked across every tag before any city, so a neighborhood hit carries
// its own city and state even when another tag names a different city.
func CityStateFromTags(tags []string, r *rules.Rules) (rules.Place, bool) {
	keys := make([]string, 0, len(tags))
	for _, t := range tags {
		if k := rules.FoldKey(t); k != "" {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		if p, ok := r.Neighborhood(k); ok {
			return p, true
		}
	}
	for _, k := range keys {
		if p, ok := r.City(k); ok {
			return p, true
		}
	}
	return rules.Place{}, false
}

var hashtagRe = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// Hashtags returns the distinct hashtag words in text, without the '#',
// in order of first appearance.
func Hashtags(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		key := strings.ToLower(m[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m[1])
	}
	return out
}
