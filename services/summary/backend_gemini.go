package summary

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

type GeminiModel struct {
	models *genai.Models
	model  string
}

// NewGeminiModel creates a client for the Gemini API. baseURL is only set to
// reach a non-default endpoint.
func NewGeminiModel(ctx context.Context, apiKey, model, baseURL string) (*GeminiModel, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}

	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiModel{models: client.Models, model: model}, nil
}

func (m *GeminiModel) Summarize(ctx context.Context, text string, p GenerationParams) (string, error) {
	resp, err := m.models.GenerateContent(ctx, m.model, genai.Text(text), &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt(p)}}},
		Temperature:       genai.Ptr[float32](0.2),
		MaxOutputTokens:   int32(outputTokenLimit(p)),
	})
	if err != nil {
		return "", errors.Wrap(err, "gemini generate content failed")
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
		break
	}

	summary := strings.TrimSpace(sb.String())
	if summary == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return summary, nil
}

func (m *GeminiModel) Name() string {
	return m.model
}

func (m *GeminiModel) Close() error {
	return nil
}
