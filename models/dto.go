package models

// SummarizeRequest is the body of POST /summarize. VideoID holds either a
// bare video ID or a video URL.
type SummarizeRequest struct {
	VideoID *string `json:"video_id"`
}

// SummarizeResponse is returned on success.
type SummarizeResponse struct {
	Summary string   `json:"summary"`
	Chunks  []string `json:"chunks,omitempty"`
}

// ErrorResponse is returned for every failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewSummarizeResponse creates a response from a summary, dropping the chunk
// summaries unless includeChunks is set.
func NewSummarizeResponse(s *Summary, includeChunks bool) *SummarizeResponse {
	resp := &SummarizeResponse{Summary: s.Summary}
	if includeChunks {
		resp.Chunks = s.Chunks
	}
	return resp
}
