package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/petal-labs/ira/internal/domain"
)

// DefaultChatModel is the OpenAI model used for answer generation
const DefaultChatModel = openai.GPT3Dot5Turbo

// ErrEmptyQuestion is returned when the question is empty
var ErrEmptyQuestion = errors.New("question cannot be empty")

// ChatAPI defines the interface for chat completion
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatClient generates answers with the chat completion API
type ChatClient struct {
	api   ChatAPI
	model string
}

func NewChatClient(apiKey, model string) *ChatClient {
	if model == "" {
		model = DefaultChatModel
	}
	return &ChatClient{
		api:   openai.NewClient(apiKey),
		model: model,
	}
}

// AnswerFromDocument answers a question grounded in document excerpts
func (c *ChatClient) AnswerFromDocument(ctx context.Context, question string, contexts []string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	var b strings.Builder
	b.WriteString("Document excerpts:\n\n")
	for _, excerpt := range contexts {
		b.WriteString(excerpt)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)

	return c.complete(ctx,
		"Answer the question using only the provided document excerpts. "+
			"If the excerpts do not contain the answer, say so.",
		b.String())
}

// AnswerFromWeb answers a question from web search results, or from
// general knowledge when no results are available
func (c *ChatClient) AnswerFromWeb(ctx context.Context, question string, results []domain.WebResult) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	if len(results) == 0 {
		return c.complete(ctx,
			"Answer the question concisely. If you are not confident in the answer, say so.",
			question)
	}

	var b strings.Builder
	b.WriteString("Web search results:\n\n")
	for _, r := range results {
		fmt.Fprintf(&b, "%s\n%s\n%s\n\n", r.Title, r.Snippet, r.Link)
	}
	b.WriteString("Question: ")
	b.WriteString(question)

	return c.complete(ctx,
		"Answer the question using the web search results. Cite the result you relied on.",
		b.String())
}

func (c *ChatClient) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
