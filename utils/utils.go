package utils

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summarize/errors"
	"github.com/nijaru/yt-summarize/models"
)

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	RespondWithJSON(w, statusCode, models.ErrorResponse{Error: message})
}

// RespondWithError writes err as {"error": message}. Errors that are not
// AppErrors are reported as server errors.
func RespondWithError(w http.ResponseWriter, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal("RespondWithError", err, fmt.Sprintf("Server error: %v", err))
	}

	RespondWithJSON(w, appErr.Code, models.ErrorResponse{Error: appErr.Message})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
		code = http.StatusInternalServerError
		body = []byte(`{"error":"Server error: failed to encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(body, '\n'))
}
