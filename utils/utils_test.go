package utils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nijaru/yt-summarize/errors"
)

func TestHandleError(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleError(rr, "Test error", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Test error"}`, rr.Body.String())
}

func TestRespondWithAppError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithError(rr, errors.Empty("test", nil, "Transcript is empty"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Transcript is empty"}`, rr.Body.String())
}

func TestRespondWithWrappedAppError(t *testing.T) {
	rr := httptest.NewRecorder()
	err := fmt.Errorf("handler: %w", errors.InvalidInput("test", nil, "Video ID or URL is missing"))
	RespondWithError(rr, err)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Video ID or URL is missing"}`, rr.Body.String())
}

func TestRespondWithPlainError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithError(rr, fmt.Errorf("disk full"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Server error: disk full"}`, rr.Body.String())
}

func TestRespondWithJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithJSON(rr, http.StatusOK, map[string]string{"summary": "ok"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"summary":"ok"}`, rr.Body.String())
}

func TestRespondWithUnencodableJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondWithJSON(rr, http.StatusOK, map[string]any{"bad": make(chan int)})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
