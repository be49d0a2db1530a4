package summary

import (
	"context"

	"github.com/nijaru/yt-summarize/config"
	"github.com/nijaru/yt-summarize/models"
)

// Service runs the whole pipeline for one video: extract the ID, fetch the
// captions, summarize every chunk, then summarize the chunk summaries.
type Service interface {
	Summarize(ctx context.Context, rawVideoID string) (*models.Summary, error)
}

// Model turns text into an abstractive summary. Implementations must be safe
// for concurrent use.
type Model interface {
	Summarize(ctx context.Context, text string, params GenerationParams) (string, error)
	Name() string
	Close() error
}

// GenerationParams bounds one generation call. Lengths are in model tokens.
type GenerationParams struct {
	MinLength         int
	MaxLength         int
	NumBeams          int
	LengthPenalty     float64
	NoRepeatNgramSize int
	MaxInputTokens    int
}

const (
	DefaultNumBeams          = 4
	DefaultLengthPenalty     = 2.0
	DefaultNoRepeatNgramSize = 3
	DefaultMaxInputTokens    = 1024
)

// NewGenerationParams returns beam search settings for the given output
// length bounds.
func NewGenerationParams(minLength, maxLength int) GenerationParams {
	return GenerationParams{
		MinLength:         minLength,
		MaxLength:         maxLength,
		NumBeams:          DefaultNumBeams,
		LengthPenalty:     DefaultLengthPenalty,
		NoRepeatNgramSize: DefaultNoRepeatNgramSize,
		MaxInputTokens:    DefaultMaxInputTokens,
	}
}

var (
	ChunkProfile = NewGenerationParams(50, 200)
	FinalProfile = NewGenerationParams(100, 300)
)

type Config struct {
	ChunkMaxTokens int
	ChunkProfile   GenerationParams
	FinalProfile   GenerationParams
}

// NewConfig derives the pipeline settings from the application config. The
// model input window stays at DefaultMaxInputTokens whatever the chunk size.
func NewConfig(cfg config.SummaryConfig) Config {
	chunk := NewGenerationParams(cfg.ChunkMinLength, cfg.ChunkMaxLength)
	final := NewGenerationParams(cfg.FinalMinLength, cfg.FinalMaxLength)

	return Config{
		ChunkMaxTokens: cfg.ChunkMaxTokens,
		ChunkProfile:   chunk,
		FinalProfile:   final,
	}
}
