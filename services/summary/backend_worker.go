package summary

import (
	"context"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summarize/config"
	"github.com/nijaru/yt-summarize/scripts"
)

const workerScript = "summarize.py"

// WorkerModel runs the pretrained model in long-lived Python processes, so
// the weights are loaded once per process instead of once per request.
type WorkerModel struct {
	pool *scripts.WorkerPool
	name string
}

// NewWorkerModel starts cfg.Workers processes and blocks until each has
// loaded the model.
func NewWorkerModel(cfg config.SummaryConfig, logger *logrus.Logger) (*WorkerModel, error) {
	pool, err := scripts.NewWorkerPool(scripts.WorkerConfig{
		PythonPath:     cfg.PythonPath,
		Script:         filepath.Join(cfg.ScriptsPath, workerScript),
		Model:          cfg.Model,
		Size:           cfg.Workers,
		Environment:    cfg.Environment,
		StartupTimeout: 10 * time.Minute,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &WorkerModel{pool: pool, name: cfg.Model}, nil
}

func (m *WorkerModel) Summarize(ctx context.Context, text string, p GenerationParams) (string, error) {
	res, err := m.pool.Summarize(ctx, scripts.SummarizeRequest{
		Text:              text,
		MinLength:         p.MinLength,
		MaxLength:         p.MaxLength,
		NumBeams:          p.NumBeams,
		LengthPenalty:     p.LengthPenalty,
		NoRepeatNgramSize: p.NoRepeatNgramSize,
		MaxInputTokens:    p.MaxInputTokens,
	})
	if err != nil {
		return "", err
	}
	return res.Summary, nil
}

func (m *WorkerModel) Name() string {
	return m.name
}

func (m *WorkerModel) Close() error {
	return m.pool.Close()
}
