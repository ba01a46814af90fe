package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/docrag/internal/domain"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	api := new(MockChatAPI)
	gen := NewGeneratorWithAPI(api, "", 0)

	api.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == DefaultModel &&
			len(req.Messages) == 1 &&
			req.Messages[0].Role == openai.ChatMessageRoleUser &&
			req.Messages[0].Content == "hello"
	})).Return(reply("  hi there \n"), nil)

	text, err := gen.Generate(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "hi there", text)
	api.AssertExpectations(t)
}

func TestGenerator_EmptyReply(t *testing.T) {
	api := new(MockChatAPI)
	gen := NewGeneratorWithAPI(api, "gpt-test", 0)

	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(reply("   "), nil)

	_, err := gen.Generate(context.Background(), "hello")

	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestGenerator_NoChoices(t *testing.T) {
	api := new(MockChatAPI)
	gen := NewGeneratorWithAPI(api, "gpt-test", 0)

	api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(openai.ChatCompletionResponse{}, nil)

	_, err := gen.Generate(context.Background(), "hello")

	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestGenerator_APIError(t *testing.T) {
	api := new(MockChatAPI)
	gen := NewGeneratorWithAPI(api, "gpt-test", 0)

	api.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("503 service unavailable"))

	_, err := gen.Generate(context.Background(), "hello")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.Contains(t, err.Error(), "503")
}

func TestGenerator_CancelledContext(t *testing.T) {
	api := new(MockChatAPI)
	gen := NewGeneratorWithAPI(api, "gpt-test", 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, context.Canceled)

	_, err := gen.Generate(ctx, "hello")

	assert.ErrorIs(t, err, context.Canceled)
}
