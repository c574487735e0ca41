package aiextract

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/lead-cli/internal/cost"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash-lite"

// Generator is the slice of the genai Models service used here.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var answerSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"full_name": {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"email":     {Type: genai.TypeString, Nullable: genai.Ptr(true)},
		"phone":     {Type: genai.TypeString, Nullable: genai.Ptr(true)},
	},
	Required: []string{"full_name", "email", "phone"},
}

// Gemini extracts contacts with a Gemini model.
type Gemini struct {
	gen   Generator
	model string
	calc  *cost.Calculator
}

// NewGemini connects to the Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, calc *cost.Calculator) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, eris.New("aiextract: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "aiextract: gemini client")
	}
	return NewGeminiWithGenerator(client.Models, model, calc), nil
}

// NewGeminiWithGenerator builds a Gemini extractor over any Generator.
func NewGeminiWithGenerator(gen Generator, model string, calc *cost.Calculator) *Gemini {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{gen: gen, model: model, calc: calc}
}

func (g *Gemini) Name() string { return "gemini" }

// Extract requests a JSON answer constrained to the contact schema.
func (g *Gemini) Extract(ctx context.Context, bio string) (*Result, error) {
	resp, err := g.gen.GenerateContent(ctx, g.model,
		genai.Text(buildPrompt(bio)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
			CandidateCount:    1,
			ResponseMIMEType:  "application/json",
			ResponseSchema:    answerSchema,
		},
	)
	if err != nil {
		return nil, eris.Wrap(err, "aiextract: gemini call")
	}

	var usage cost.Usage
	if resp.UsageMetadata != nil {
		// Prompt tokens include the cached ones.
		md := resp.UsageMetadata
		usage.InputTokens = int(md.PromptTokenCount - md.CachedContentTokenCount)
		usage.OutputTokens = int(md.CandidatesTokenCount)
		usage.CacheReadTokens = int(md.CachedContentTokenCount)
	}
	var usd float64
	if g.calc != nil {
		usd = g.calc.Gemini(g.model, usage)
	}

	res, err := parseAnswer(resp.Text())
	if err != nil {
		return &Result{Model: g.model, Usage: usage, CostUSD: usd}, err
	}
	res.Model = g.model
	res.Usage = usage
	res.CostUSD = usd
	return res, nil
}
