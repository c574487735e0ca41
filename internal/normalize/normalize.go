// Package normalize turns free text (biographies, scraped pages, handles,
// hashtags) into candidate contact and identity values. Every function is
// pure; empty input yields no candidates, never an error.
package normalize

import (
	"iter"
	"regexp"
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
)

// Digits strips every non-digit character from s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// pattern is one row of an ordered extraction table. When group is
// non-zero the submatch span is used instead of the whole match.
type pattern struct {
	re    *regexp.Regexp
	group int
	// value converts the matched text into a candidate value; empty
	// results are dropped.
	value func(match string) string
	// bounded rejects matches glued to a neighbouring digit.
	bounded bool
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

// scan runs an ordered pattern table over text. A match whose span overlaps
// an earlier yielded match is skipped, as is a repeated value. The returned
// sequence does no work until ranged over and can be ranged over again.
func scan(text string, table []pattern, kind model.Kind, src model.Source) iter.Seq[model.Candidate] {
	return func(yield func(model.Candidate) bool) {
		if strings.TrimSpace(text) == "" {
			return
		}
		var taken []span
		seen := make(map[string]bool)
		for _, p := range table {
			for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
				s := span{loc[0], loc[1]}
				if p.group > 0 {
					if loc[2*p.group] < 0 {
						continue
					}
					s = span{loc[2*p.group], loc[2*p.group+1]}
				}
				if p.bounded && !digitBounded(text, s) {
					continue
				}
				if overlapsAny(taken, s) {
					continue
				}
				v := p.value(text[s.start:s.end])
				if v == "" {
					continue
				}
				taken = append(taken, s)
				if seen[v] {
					continue
				}
				seen[v] = true
				if !yield(model.Candidate{Kind: kind, Value: v, Source: src}) {
					return
				}
			}
		}
	}
}

func overlapsAny(taken []span, s span) bool {
	for _, t := range taken {
		if t.overlaps(s) {
			return true
		}
	}
	return false
}

func digitBounded(text string, s span) bool {
	if s.start > 0 && isDigit(text[s.start-1]) {
		return false
	}
	if s.end < len(text) && isDigit(text[s.end]) {
		return false
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Collect drains a candidate sequence into a slice of values.
func Collect(seq iter.Seq[model.Candidate]) []string {
	var out []string
	for c := range seq {
		out = append(out, c.Value)
	}
	return out
}
