package openai

import (
	"context"
	"errors"
	"strings"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/petal-labs/ira/internal/domain"
)

// MockChatAPI is a mock for the chat completion API
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, request goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(goopenai.ChatCompletionResponse), args.Error(1)
}

func chatResponse(content string) goopenai.ChatCompletionResponse {
	return goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{
			{Message: goopenai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestChatClient_AnswerFromDocument(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: DefaultChatModel}

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req goopenai.ChatCompletionRequest) bool {
		return len(req.Messages) == 2 &&
			req.Messages[0].Role == goopenai.ChatMessageRoleSystem &&
			req.Messages[1].Role == goopenai.ChatMessageRoleUser
	})).Return(chatResponse("Cats eat fish."), nil)

	answer, err := client.AnswerFromDocument(context.Background(), "What do cats eat?", []string{"Cats eat fish and meat."})

	assert.NoError(t, err)
	assert.Equal(t, "Cats eat fish.", answer)
	mockAPI.AssertExpectations(t)
}

func TestChatClient_AnswerFromDocument_IncludesContexts(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: DefaultChatModel}

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req goopenai.ChatCompletionRequest) bool {
		return len(req.Messages) == 2 &&
			containsAll(req.Messages[1].Content, "first excerpt", "second excerpt", "What do cats eat?")
	})).Return(chatResponse("answer"), nil)

	_, err := client.AnswerFromDocument(context.Background(), "What do cats eat?", []string{"first excerpt", "second excerpt"})

	assert.NoError(t, err)
	mockAPI.AssertExpectations(t)
}

func TestChatClient_AnswerFromDocument_EmptyQuestion(t *testing.T) {
	client := NewChatClient("test-api-key", "")

	_, err := client.AnswerFromDocument(context.Background(), "  ", nil)

	assert.Equal(t, ErrEmptyQuestion, err)
}

func TestChatClient_AnswerFromDocument_APIError(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: DefaultChatModel}

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(goopenai.ChatCompletionResponse{}, errors.New("rate limited"))

	_, err := client.AnswerFromDocument(context.Background(), "question", nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create chat completion")
}

func TestChatClient_AnswerFromDocument_NoChoices(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: DefaultChatModel}

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(goopenai.ChatCompletionResponse{}, nil)

	_, err := client.AnswerFromDocument(context.Background(), "question", nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no completion choices")
}

func TestChatClient_AnswerFromWeb_WithResults(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: DefaultChatModel}

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req goopenai.ChatCompletionRequest) bool {
		return containsAll(req.Messages[1].Content, "Result Title", "result snippet", "https://example.com")
	})).Return(chatResponse("web answer"), nil)

	answer, err := client.AnswerFromWeb(context.Background(), "question", []domain.WebResult{
		{Title: "Result Title", Snippet: "result snippet", Link: "https://example.com"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "web answer", answer)
	mockAPI.AssertExpectations(t)
}

func TestChatClient_AnswerFromWeb_NoResults(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := &ChatClient{api: mockAPI, model: DefaultChatModel}

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req goopenai.ChatCompletionRequest) bool {
		return req.Messages[1].Content == "question"
	})).Return(chatResponse("general answer"), nil)

	answer, err := client.AnswerFromWeb(context.Background(), "question", nil)

	assert.NoError(t, err)
	assert.Equal(t, "general answer", answer)
	mockAPI.AssertExpectations(t)
}

func TestNewChatClient_DefaultModel(t *testing.T) {
	client := NewChatClient("test-api-key", "")

	assert.Equal(t, DefaultChatModel, client.model)
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
