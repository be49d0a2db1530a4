package scripts

import (
	"time"
)

// WorkerConfig holds the configuration for a pool of summarizer processes.
type WorkerConfig struct {
	PythonPath     string        // Path to Python executable
	Script         string        // Path to the summarizer worker script
	Model          string        // Pretrained model name passed to the worker
	Size           int           // Number of worker processes
	Environment    []string      // Additional environment variables
	StartupTimeout time.Duration // Time allowed for a worker to load its model
}

// SummarizeRequest is one JSON line written to a worker's stdin.
type SummarizeRequest struct {
	ID                int64   `json:"id"`
	Text              string  `json:"text"`
	MinLength         int     `json:"min_length"`
	MaxLength         int     `json:"max_length"`
	NumBeams          int     `json:"num_beams"`
	LengthPenalty     float64 `json:"length_penalty"`
	NoRepeatNgramSize int     `json:"no_repeat_ngram_size"`
	MaxInputTokens    int     `json:"max_input_tokens"`
}

// SummaryResult is one JSON line read from a worker's stdout.
type SummaryResult struct {
	ID      int64  `json:"id"`
	Summary string `json:"summary"`
	Error   string `json:"error,omitempty"`
}

// readyMessage is the first line a worker prints once its model is loaded.
type readyMessage struct {
	Ready     bool   `json:"ready"`
	ModelName string `json:"model_name"`
	Device    string `json:"device"`
	Error     string `json:"error,omitempty"`
}
