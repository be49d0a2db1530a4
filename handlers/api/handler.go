package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summarize/errors"
	"github.com/nijaru/yt-summarize/middleware"
	"github.com/nijaru/yt-summarize/utils"
)

const maxRequestBody = 1024 * 1024

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	utils.RespondWithJSON(w, code, payload)
}

func respondError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, err error) {
	fields := logrus.Fields{
		"error":      err.Error(),
		"request_id": middleware.GetRequestID(r.Context()),
		"path":       r.URL.Path,
		"method":     r.Method,
	}
	if appErr, ok := errors.As(err); ok {
		fields["status"] = appErr.Code
		fields["kind"] = appErr.Kind
		fields["op"] = appErr.Op
	}

	entry := logger.WithFields(fields)
	if errors.KindOf(err) == errors.KindInternal {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	utils.RespondWithError(w, err)
}

func readJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(v); err != nil {
		return errors.InvalidInput("readJSON", err, "Invalid request format. JSON expected.")
	}
	return nil
}
