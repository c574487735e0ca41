package aiextract

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/cost"
	"github.com/sells-group/lead-cli/pkg/anthropic"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-haiku-4-5-20251001"

const anthropicMaxTokens = 256

// Anthropic extracts contacts with a Claude model.
type Anthropic struct {
	client anthropic.Client
	model  string
	calc   *cost.Calculator
}

// NewAnthropic creates an Anthropic extractor. calc may be nil, in which
// case results carry no cost.
func NewAnthropic(client anthropic.Client, model string, calc *cost.Calculator) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &Anthropic{client: client, model: model, calc: calc}
}

func (a *Anthropic) Name() string { return "anthropic" }

// Extract sends the biography with a cached system prompt.
func (a *Anthropic) Extract(ctx context.Context, bio string) (*Result, error) {
	temp := 0.0
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: anthropicMaxTokens,
		System: []anthropic.SystemBlock{
			{Text: systemPrompt, Cached: true},
		},
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(bio)},
		},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "aiextract: anthropic call")
	}

	usage := cost.Usage{
		InputTokens:      int(resp.Usage.InputTokens),
		OutputTokens:     int(resp.Usage.OutputTokens),
		CacheWriteTokens: int(resp.Usage.CacheCreationInputTokens),
		CacheReadTokens:  int(resp.Usage.CacheReadInputTokens),
	}
	var usd float64
	if a.calc != nil {
		usd = a.calc.Claude(a.model, usage)
	}

	res, err := parseAnswer(resp.Text())
	if err != nil {
		// Usage is reported even when the reply is unusable.
		return &Result{Model: a.model, Usage: usage, CostUSD: usd}, err
	}
	res.Model = a.model
	res.Usage = usage
	res.CostUSD = usd
	return res, nil
}
