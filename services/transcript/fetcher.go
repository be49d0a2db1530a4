package transcript

import (
	"context"
	"fmt"

	"github.com/nijaru/yt-summarize/models"
)

// Fetcher retrieves the ordered caption segments of a video. A single attempt
// is made per call; every failure is returned as a *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (models.Transcript, error)
}

// Reason classifies why captions could not be fetched.
type Reason string

const (
	ReasonVideoUnavailable    Reason = "video_unavailable"
	ReasonTranscriptsDisabled Reason = "transcripts_disabled"
	ReasonNoTranscriptFound   Reason = "no_transcript_found"
	ReasonTooManyRequests     Reason = "too_many_requests"
	ReasonRequestFailed       Reason = "request_failed"
	ReasonParseFailed         Reason = "parse_failed"
)

var reasonText = map[Reason]string{
	ReasonVideoUnavailable:    "the video is no longer available",
	ReasonTranscriptsDisabled: "subtitles are disabled for this video",
	ReasonNoTranscriptFound:   "no transcripts were found for the requested languages",
	ReasonTooManyRequests:     "YouTube is receiving too many requests from this IP",
	ReasonRequestFailed:       "the request to YouTube failed",
	ReasonParseFailed:         "the captions could not be parsed",
}

type FetchError struct {
	VideoID string
	Reason  Reason
	Err     error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("Could not retrieve a transcript for the video %s: %s", e.VideoID, reasonText[e.Reason])
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", msg, e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newFetchError(videoID string, reason Reason, err error) *FetchError {
	return &FetchError{
		VideoID: videoID,
		Reason:  reason,
		Err:     err,
	}
}
