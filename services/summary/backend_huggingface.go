package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// HuggingFaceModel calls a hosted inference endpoint serving a
// summarization pipeline.
type HuggingFaceModel struct {
	url    string
	token  string
	name   string
	client *http.Client
}

func NewHuggingFaceModel(url, token, name string, client *http.Client) *HuggingFaceModel {
	if client == nil {
		client = http.DefaultClient
	}
	return &HuggingFaceModel{
		url:    url,
		token:  token,
		name:   name,
		client: client,
	}
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MinLength         int     `json:"min_length"`
	MaxLength         int     `json:"max_length"`
	NumBeams          int     `json:"num_beams"`
	LengthPenalty     float64 `json:"length_penalty"`
	NoRepeatNgramSize int     `json:"no_repeat_ngram_size"`
	Truncation        string  `json:"truncation"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfSummary struct {
	SummaryText string `json:"summary_text"`
}

type hfError struct {
	Error string `json:"error"`
}

func (m *HuggingFaceModel) Summarize(ctx context.Context, text string, p GenerationParams) (string, error) {
	payload, err := json.Marshal(hfRequest{
		Inputs: text,
		Parameters: hfParameters{
			MinLength:         p.MinLength,
			MaxLength:         p.MaxLength,
			NumBeams:          p.NumBeams,
			LengthPenalty:     p.LengthPenalty,
			NoRepeatNgramSize: p.NoRepeatNgramSize,
			Truncation:        "only_first",
		},
		Options: hfOptions{WaitForModel: true},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding inference request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "creating inference request")
	}
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "inference request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return "", errors.Wrap(err, "reading inference response")
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return "", fmt.Errorf("inference endpoint returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("inference endpoint returned %d", resp.StatusCode)
	}

	var out []hfSummary
	if err := json.Unmarshal(body, &out); err != nil {
		return "", errors.Wrap(err, "decoding inference response")
	}
	if len(out) == 0 {
		return "", errors.New("inference endpoint returned no summary")
	}
	return strings.TrimSpace(out[0].SummaryText), nil
}

func (m *HuggingFaceModel) Name() string {
	return m.name
}

func (m *HuggingFaceModel) Close() error {
	return nil
}
