package aiextract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/cost"
	"github.com/sells-group/lead-cli/pkg/anthropic"
)

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage: anthropic.TokenUsage{
			InputTokens:          1000,
			OutputTokens:         100,
			CacheReadInputTokens: 2000,
		},
	}
}

func TestAnthropic_Extract(t *testing.T) {
	t.Parallel()

	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == DefaultAnthropicModel &&
			len(req.System) == 1 && req.System[0].Cached &&
			len(req.Messages) == 1 && req.Messages[0].Role == "user" &&
			req.Messages[0].Content == "Biography:\nDra. Maria Silva | 📱 11 99999-9999"
	})).Return(textResponse(`{"full_name":"Maria Silva","email":null,"phone":"11999999999"}`), nil)

	a := NewAnthropic(client, "", cost.NewCalculator(cost.DefaultRates()))
	assert.Equal(t, "anthropic", a.Name())

	res, err := a.Extract(context.Background(), "  Dra. Maria Silva | 📱 11 99999-9999 ")
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", res.FullName)
	assert.Empty(t, res.Email)
	assert.Equal(t, "11999999999", res.Phone)
	assert.Equal(t, DefaultAnthropicModel, res.Model)
	assert.Equal(t, 1000, res.Usage.InputTokens)
	// 1000 in * $1 + 100 out * $5 + 2000 cached * $1 * 0.1, per million.
	assert.InDelta(t, 0.0017, res.CostUSD, 1e-9)
	client.AssertExpectations(t)
}

func TestAnthropic_CallError(t *testing.T) {
	t.Parallel()

	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	res, err := NewAnthropic(client, "claude-sonnet-4-5-20250929", nil).Extract(context.Background(), "bio")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestAnthropic_UnparseableReplyKeepsUsage(t *testing.T) {
	t.Parallel()

	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("I cannot help"), nil)

	res, err := NewAnthropic(client, "", cost.NewCalculator(cost.DefaultRates())).Extract(context.Background(), "bio")
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Empty())
	assert.Greater(t, res.CostUSD, 0.0)
}
