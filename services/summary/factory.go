package summary

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summarize/config"
)

// NewModel builds the backend selected by cfg.Backend.
func NewModel(ctx context.Context, cfg config.SummaryConfig, logger *logrus.Logger) (Model, error) {
	switch cfg.Backend {
	case config.BackendWorker:
		return NewWorkerModel(cfg, logger)
	case config.BackendHuggingFace:
		return NewHuggingFaceModel(
			cfg.HuggingFaceURL,
			cfg.HuggingFaceToken,
			cfg.Model,
			&http.Client{Timeout: cfg.RequestTimeout},
		), nil
	case config.BackendOpenAI:
		return NewOpenAIModel(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, remoteModel(cfg.Model)), nil
	case config.BackendGemini:
		return NewGeminiModel(ctx, cfg.GeminiAPIKey, remoteModel(cfg.Model), "")
	default:
		return nil, fmt.Errorf("unknown summary backend %q", cfg.Backend)
	}
}

// remoteModel drops the local default model name, which chat APIs do not
// serve, so the backend falls back to its own default.
func remoteModel(name string) string {
	if name == config.DefaultModel {
		return ""
	}
	return name
}
