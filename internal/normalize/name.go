package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/rules"
)

// minNameLen is the shortest derived name kept; shorter results fall back
// to the raw handle.
const minNameLen = 3

var handleDelimRe = regexp.MustCompile(`[^\p{L}]+`)

// NameFromHandle derives a display name from a username: professional
// titles are stripped (longest match first), camelCase and delimiter
// separated segments become words, glued first names are split off, and
// each word is title-cased with tokens of two letters or fewer uppercased.
// The handle is returned unchanged when the result is too short.
func NameFromHandle(handle string, r *rules.Rules) model.Candidate {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	out := model.Candidate{Kind: model.KindFullName, Value: handle, Source: model.SourceHandle}
	if handle == "" {
		return out
	}

	var words []string
	for _, seg := range handleDelimRe.Split(splitCamel(handle), -1) {
		seg = strings.ToLower(rules.FoldAccents(seg))
		if seg == "" {
			continue
		}
		seg = stripTitles(seg, r)
		if seg == "" {
			continue
		}
		words = append(words, splitGlued(seg, r.FirstNamesLongestFirst(), 0)...)
	}

	for i, w := range words {
		words[i] = titleWord(w)
	}
	name := strings.Join(words, " ")
	if utf8.RuneCountInString(name) < minNameLen {
		return out
	}
	out.Value = name
	return out
}

// splitCamel inserts a space at every lower-to-upper case boundary.
func splitCamel(s string) string {
	var b strings.Builder
	var prev rune
	for i, c := range s {
		if i > 0 && unicode.IsUpper(c) && unicode.IsLower(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(c)
		prev = c
	}
	return b.String()
}

// stripTitles removes a professional title that is the whole segment or is
// glued to its start or end. Short glued titles ("dr", "psi") are only
// removed when what remains starts with a known first name, so surnames
// such as "medeiros" survive.
func stripTitles(seg string, r *rules.Rules) string {
	titles := r.TitlesLongestFirst()
	for _, t := range titles {
		if seg == t {
			return ""
		}
	}
	for _, t := range titles {
		if rest, ok := strings.CutPrefix(seg, t); ok && gluedTitleOK(t, rest, r) {
			seg = rest
			break
		}
	}
	for _, t := range titles {
		if rest, ok := strings.CutSuffix(seg, t); ok && gluedTitleOK(t, rest, r) {
			seg = rest
			break
		}
	}
	return seg
}

func gluedTitleOK(title, rest string, r *rules.Rules) bool {
	if len(rest) < minNameLen {
		return false
	}
	if len(title) >= 4 {
		return true
	}
	_, ok := firstNamePrefix(rest, r.FirstNamesLongestFirst())
	return ok
}

func firstNamePrefix(seg string, names []string) (string, bool) {
	for _, n := range names {
		if strings.HasPrefix(seg, n) {
			return n, true
		}
	}
	return "", false
}

// splitGlued breaks "julianacorrea" into "juliana", "correa" using the
// first-name table. A split is only taken when the remainder is a
// plausible word of its own.
func splitGlued(seg string, names []string, depth int) []string {
	if depth > 3 {
		return []string{seg}
	}
	for _, n := range names {
		rest, ok := strings.CutPrefix(seg, n)
		if !ok || len(rest) < minNameLen {
			continue
		}
		return append([]string{n}, splitGlued(rest, names, depth+1)...)
	}
	return []string{seg}
}

func titleWord(w string) string {
	if utf8.RuneCountInString(w) <= 2 {
		return strings.ToUpper(w)
	}
	first, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(first)) + strings.ToLower(w[size:])
}

var (
	bioLineSplitRe = regexp.MustCompile(`[\n|•·]+`)
	nameWordRe     = regexp.MustCompile(`^\p{L}[\p{L}'’-]*$`)
	nameParticles  = map[string]bool{"da": true, "de": true, "do": true, "das": true, "dos": true, "e": true}
)

// maxBioNameLines bounds how far into a biography a name is looked for.
const maxBioNameLines = 3

// NameFromBio finds a display name written at the top of a biography, as
// in "Dra. Maria Silva". Emojis and professional titles are dropped; the
// line must then be two to five capitalised words with no digits, handles
// or links.
func NameFromBio(bio string, r *rules.Rules) (model.Candidate, bool) {
	lines := 0
	for _, line := range bioLineSplitRe.Split(bio, -1) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines++
		if lines > maxBioNameLines {
			break
		}
		if name, ok := nameFromLine(line, r); ok {
			return model.Candidate{Kind: model.KindFullName, Value: name, Source: model.SourceBioRegex}, true
		}
	}
	return model.Candidate{}, false
}

func nameFromLine(line string, r *rules.Rules) (string, bool) {
	if strings.ContainsAny(line, "0123456789@") || strings.Contains(strings.ToLower(line), "http") ||
		strings.Contains(strings.ToLower(line), "www.") {
		return "", false
	}

	var words []string
	for _, f := range strings.Fields(stripSymbols(line)) {
		w := strings.Trim(f, ".,;:!?")
		if w == "" {
			continue
		}
		if isTitle(w, r) {
			continue
		}
		words = append(words, w)
	}
	if len(words) < 2 || len(words) > 5 {
		return "", false
	}
	for _, w := range words {
		if !nameWordRe.MatchString(w) {
			return "", false
		}
		if nameParticles[strings.ToLower(w)] {
			continue
		}
		first, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(first) {
			return "", false
		}
	}
	return strings.Join(words, " "), true
}

func isTitle(w string, r *rules.Rules) bool {
	key := strings.ToLower(rules.FoldAccents(w))
	for _, t := range r.TitlesLongestFirst() {
		if key == t {
			return true
		}
	}
	return false
}

// stripSymbols replaces emoji and other symbol runes with spaces.
func stripSymbols(s string) string {
	return strings.Map(func(c rune) rune {
		if unicode.IsLetter(c) || unicode.IsSpace(c) || unicode.IsPunct(c) || unicode.IsDigit(c) {
			return c
		}
		return ' '
	}, s)
}

// SplitFullName splits a full name into first name and the rest. Both are
// empty for blank or single-character input.
func SplitFullName(full string) (first, last string) {
	fields := strings.Fields(full)
	if len(fields) == 0 || utf8.RuneCountInString(strings.Join(fields, " ")) < 2 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
