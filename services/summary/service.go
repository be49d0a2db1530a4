package summary

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summarize/errors"
	"github.com/nijaru/yt-summarize/models"
	"github.com/nijaru/yt-summarize/services/transcript"
	"github.com/nijaru/yt-summarize/validation"
)

type service struct {
	fetcher transcript.Fetcher
	model   Model
	chunker *Chunker
	config  Config
	logger  *logrus.Logger
}

// NewService creates a new summary service
func NewService(
	fetcher transcript.Fetcher,
	model Model,
	chunker *Chunker,
	config Config,
	logger *logrus.Logger,
) Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &service{
		fetcher: fetcher,
		model:   model,
		chunker: chunker,
		config:  config,
		logger:  logger,
	}
}

func (s *service) Summarize(ctx context.Context, rawVideoID string) (*models.Summary, error) {
	const op = "SummaryService.Summarize"

	videoID, err := validation.ExtractVideoID(rawVideoID)
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithContext(ctx).WithField("video_id", videoID)
	start := time.Now()

	tr, err := s.fetcher.Fetch(ctx, videoID)
	if err != nil {
		logger.WithError(err).Warn("Failed to fetch captions")
		return nil, errors.Upstream(op, err, "Failed to fetch captions: "+err.Error())
	}

	text := tr.Text()
	if strings.TrimSpace(text) == "" {
		return nil, errors.Empty(op, nil, "Transcript is empty")
	}

	chunks, err := s.chunker.Chunks(text)
	if err != nil {
		return nil, serverError(op, err)
	}

	summaries, err := s.summarizeChunks(ctx, logger, chunks)
	if err != nil {
		return nil, serverError(op, err)
	}
	if len(summaries) == 0 {
		return nil, errors.Empty(op, nil, "Transcript is empty")
	}

	final, err := s.model.Summarize(ctx, strings.Join(summaries, " "), s.config.FinalProfile)
	if err != nil {
		logger.WithError(err).Error("Failed to combine chunk summaries")
		return nil, serverError(op, err)
	}

	logger.WithFields(logrus.Fields{
		"segments": len(tr),
		"chunks":   len(summaries),
		"model":    s.model.Name(),
		"duration": time.Since(start),
	}).Info("Summary created")

	return &models.Summary{
		VideoID: videoID,
		Summary: final,
		Chunks:  summaries,
		Model:   s.model.Name(),
	}, nil
}

// summarizeChunks summarizes each chunk in order; the first failure aborts
// the remaining chunks.
func (s *service) summarizeChunks(ctx context.Context, logger *logrus.Entry, chunks iter.Seq[string]) ([]string, error) {
	var summaries []string
	for chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logger.WithField("chunk", len(summaries)+1).Debug("Processing chunk")

		summary, err := s.model.Summarize(ctx, chunk, s.config.ChunkProfile)
		if err != nil {
			logger.WithError(err).WithField("chunk", len(summaries)+1).Error("Failed to summarize chunk")
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func serverError(op string, err error) *errors.AppError {
	return errors.Internal(op, err, "Server error: "+err.Error())
}
