// Package aiextract asks a language model for the contact details a
// biography mentions. Answers are best effort: every field may be empty
// and callers still validate what comes back.
package aiextract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/cost"
)

// Extractor extracts contact details from biography text.
type Extractor interface {
	Extract(ctx context.Context, bio string) (*Result, error)
	Name() string
}

// Result is one extraction answer plus what it cost.
type Result struct {
	FullName string     `json:"full_name"`
	Email    string     `json:"email"`
	Phone    string     `json:"phone"`
	Model    string     `json:"model"`
	Usage    cost.Usage `json:"usage"`
	CostUSD  float64    `json:"cost_usd"`
}

// Empty reports whether the answer carries no field at all.
func (r *Result) Empty() bool {
	return r == nil || (r.FullName == "" && r.Email == "" && r.Phone == "")
}

type answer struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// parseAnswer decodes a model reply into a Result. Code fences and
// surrounding prose are tolerated; JSON nulls become empty strings.
func parseAnswer(text string) (*Result, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, eris.New("aiextract: empty answer")
	}
	var a answer
	if err := json.Unmarshal([]byte(cleaned), &a); err != nil {
		return nil, eris.Wrap(err, "aiextract: parse answer")
	}
	return &Result{
		FullName: deref(a.FullName),
		Email:    deref(a.Email),
		Phone:    deref(a.Phone),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	switch strings.ToLower(v) {
	case "null", "none", "n/a":
		return ""
	}
	return v
}

// cleanJSON strips markdown fences and anything outside the outermost
// braces.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
