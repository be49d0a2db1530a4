package models

import "strings"

// CaptionSegment is one timed caption line of a video.
type CaptionSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Transcript is the ordered list of caption segments of a video.
type Transcript []CaptionSegment

// Text joins all segment texts with a single space.
func (t Transcript) Text() string {
	parts := make([]string, len(t))
	for i, seg := range t {
		parts[i] = seg.Text
	}
	return strings.Join(parts, " ")
}

// IsBlank reports whether the joined transcript has no visible text.
func (t Transcript) IsBlank() bool {
	return strings.TrimSpace(t.Text()) == ""
}

// Summary is the outcome of summarizing one video.
type Summary struct {
	VideoID string
	Summary string
	Chunks  []string
	Model   string
}
