package aiextract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/sells-group/lead-cli/internal/cost"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	args := m.Called(ctx, model, contents, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*genai.GenerateContentResponse), args.Error(1)
}

func geminiResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: text}},
			},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     1000,
			CandidatesTokenCount: 100,
		},
	}
}

func TestGemini_Extract(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{}
	gen.On("GenerateContent", mock.Anything, DefaultGeminiModel, mock.Anything,
		mock.MatchedBy(func(cfg *genai.GenerateContentConfig) bool {
			return cfg.ResponseMIMEType == "application/json" && cfg.ResponseSchema != nil && cfg.SystemInstruction != nil
		}),
	).Return(geminiResponse(`{"full_name":"Juliana Correa","email":"ju@clinica.com.br","phone":null}`), nil)

	g := NewGeminiWithGenerator(gen, "", cost.NewCalculator(cost.DefaultRates()))
	assert.Equal(t, "gemini", g.Name())

	res, err := g.Extract(context.Background(), "Nutri Juliana Correa ju@clinica.com.br")
	require.NoError(t, err)
	assert.Equal(t, "Juliana Correa", res.FullName)
	assert.Equal(t, "ju@clinica.com.br", res.Email)
	assert.Empty(t, res.Phone)
	// 1000 in * $0.10 + 100 out * $0.40, per million.
	assert.InDelta(t, 0.00014, res.CostUSD, 1e-9)
	gen.AssertExpectations(t)
}

func TestGemini_CallError(t *testing.T) {
	t.Parallel()

	gen := &mockGenerator{}
	gen.On("GenerateContent", mock.Anything, "gemini-2.5-flash", mock.Anything, mock.Anything).
		Return(nil, errors.New("quota"))

	_, err := NewGeminiWithGenerator(gen, "gemini-2.5-flash", nil).Extract(context.Background(), "bio")
	assert.Error(t, err)
}

func TestNewGemini_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewGemini(context.Background(), " ", "", nil)
	assert.Error(t, err)
}
