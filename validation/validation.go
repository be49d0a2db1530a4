package validation

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/nijaru/yt-summarize/errors"
)

// VideoIDLength is the length of every YouTube video identifier.
const VideoIDLength = 11

// videoIDPattern accepts a bare ID or any of the watch, v, embed, shorts and
// youtu.be URL shapes, with or without scheme and www. The ID must not be
// followed by another ID character.
var videoIDPattern = regexp.MustCompile(
	`^(?:https?://)?(?:www\.)?(?:youtube\.com/(?:v/|watch\?v=|embed/|shorts/)|youtu\.be/)?([\w-]{11})(?:[^\w-]|$)`,
)

// ExtractVideoID returns the 11-character video ID contained in raw.
func ExtractVideoID(raw string) (string, error) {
	const op = "validation.ExtractVideoID"

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.InvalidInput(op, nil, "Video ID or URL is missing")
	}

	matches := videoIDPattern.FindStringSubmatch(raw)
	if len(matches) < 2 {
		return "", errors.InvalidInput(op, nil, "Invalid YouTube URL or Video ID")
	}

	return matches[1], nil
}

// RequestValidationOpts holds options for request validation
type RequestValidationOpts struct {
	MaxContentLength int64
	AllowedMethods   []string
	RequireJSON      bool
}

// ValidateRequest validates HTTP requests
func ValidateRequest(r *http.Request, opts RequestValidationOpts) error {
	const op = "validation.ValidateRequest"

	if len(opts.AllowedMethods) > 0 {
		methodAllowed := false
		for _, method := range opts.AllowedMethods {
			if r.Method == method {
				methodAllowed = true
				break
			}
		}
		if !methodAllowed {
			return errors.InvalidInput(op, nil, fmt.Sprintf("Method %s not allowed", r.Method))
		}
	}

	if opts.RequireJSON {
		if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
			return errors.InvalidInput(op, nil, "Invalid request format. JSON expected.")
		}
	}

	if opts.MaxContentLength > 0 && r.ContentLength > opts.MaxContentLength {
		return errors.InvalidInput(op, nil, "Request body too large")
	}

	return nil
}
