package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAIModel summarizes with a chat completion model. Output length bounds
// are given to the model as a word budget and enforced with MaxTokens.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(apiKey, baseURL, model string) *OpenAIModel {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIModel{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (m *OpenAIModel) Summarize(ctx context.Context, text string, p GenerationParams) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(p),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		MaxTokens:   outputTokenLimit(p),
		Temperature: 0.2,
	})
	if err != nil {
		return "", errors.Wrap(err, "openai chat completion failed")
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New("openai returned an empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (m *OpenAIModel) Name() string {
	return m.model
}

func (m *OpenAIModel) Close() error {
	return nil
}

// systemPrompt converts token bounds into the approximate word budget used by
// instruction-following models.
func systemPrompt(p GenerationParams) string {
	return fmt.Sprintf(
		"You summarize video transcripts. Write one fluent paragraph of roughly %d to %d words "+
			"that covers the main points. Use only information from the text and do not repeat phrases.",
		p.MinLength*3/4, p.MaxLength*3/4,
	)
}

func outputTokenLimit(p GenerationParams) int {
	return p.MaxLength + p.MaxLength/4
}
