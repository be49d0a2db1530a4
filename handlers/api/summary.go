package api

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summarize/errors"
	"github.com/nijaru/yt-summarize/middleware"
	"github.com/nijaru/yt-summarize/models"
	"github.com/nijaru/yt-summarize/services/summary"
	"github.com/nijaru/yt-summarize/validation"
)

type SummaryHandler struct {
	service       summary.Service
	includeChunks bool
	logger        *logrus.Logger
}

func NewSummaryHandler(service summary.Service, includeChunks bool, logger *logrus.Logger) *SummaryHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SummaryHandler{
		service:       service,
		includeChunks: includeChunks,
		logger:        logger,
	}
}

// HandleSummarize handles POST /summarize
func (h *SummaryHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	const op = "SummaryHandler.HandleSummarize"

	if err := validation.ValidateRequest(r, validation.RequestValidationOpts{
		MaxContentLength: maxRequestBody,
		AllowedMethods:   []string{http.MethodPost},
		RequireJSON:      true,
	}); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req models.SummarizeRequest
	if err := readJSON(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if req.VideoID == nil || strings.TrimSpace(*req.VideoID) == "" {
		respondError(w, r, h.logger, errors.InvalidInput(op, nil, "Video ID or URL is missing"))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(r.Context()),
		"input":      *req.VideoID,
	}).Info("Summarizing video")

	result, err := h.service.Summarize(r.Context(), *req.VideoID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, models.NewSummarizeResponse(result, h.includeChunks))
}
