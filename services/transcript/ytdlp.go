package transcript

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summarize/config"
	"github.com/nijaru/yt-summarize/models"
	"github.com/nijaru/yt-summarize/scripts"
)

// YtDlpFetcher downloads WebVTT captions with yt-dlp into a scratch
// directory and parses them.
type YtDlpFetcher struct {
	runner    *scripts.Runner
	binary    string
	tempDir   string
	languages []string
	logger    *logrus.Logger
}

func NewYtDlpFetcher(cfg config.TranscriptConfig, tempDir string, runner *scripts.Runner, logger *logrus.Logger) *YtDlpFetcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &YtDlpFetcher{
		runner:    runner,
		binary:    cfg.YtDlpPath,
		tempDir:   tempDir,
		languages: cfg.Languages,
		logger:    logger,
	}
}

func (f *YtDlpFetcher) Fetch(ctx context.Context, videoID string) (models.Transcript, error) {
	dir, err := os.MkdirTemp(f.tempDir, "captions-")
	if err != nil {
		return nil, newFetchError(videoID, ReasonRequestFailed, errors.Wrap(err, "creating scratch directory"))
	}
	defer os.RemoveAll(dir)

	out, err := f.runner.Run(ctx, dir, f.binary,
		"--skip-download",
		"--write-sub",
		"--write-auto-sub",
		"--sub-format", "vtt",
		"--sub-langs", strings.Join(f.languages, ","),
		"-o", "%(id)s.%(ext)s",
		"https://www.youtube.com/watch?v="+videoID,
	)
	if err != nil {
		return nil, newFetchError(videoID, classifyYtDlpFailure(scripts.StderrOf(err)), err)
	}

	path, ok := f.findSubtitleFile(dir, videoID)
	if !ok {
		if strings.Contains(string(out), "no subtitles") {
			return nil, newFetchError(videoID, ReasonTranscriptsDisabled, nil)
		}
		return nil, newFetchError(videoID, ReasonNoTranscriptFound, errors.Errorf("no subtitle file for %v", f.languages))
	}

	f.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"file":     filepath.Base(path),
	}).Debug("Downloaded captions")

	segments, err := parseVTT(path)
	if err != nil {
		return nil, newFetchError(videoID, ReasonParseFailed, err)
	}
	return segments, nil
}

// findSubtitleFile follows the language preference order, then falls back to
// any file yt-dlp wrote for the video.
func (f *YtDlpFetcher) findSubtitleFile(dir, videoID string) (string, bool) {
	for _, lang := range f.languages {
		path := filepath.Join(dir, videoID+"."+lang+".vtt")
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, videoID+".*.vtt"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

func classifyYtDlpFailure(stderr string) Reason {
	switch {
	case strings.Contains(stderr, "HTTP Error 429"), strings.Contains(stderr, "Sign in to confirm"):
		return ReasonTooManyRequests
	case strings.Contains(stderr, "Video unavailable"), strings.Contains(stderr, "Private video"):
		return ReasonVideoUnavailable
	default:
		return ReasonRequestFailed
	}
}

// parseVTT converts a WebVTT file into caption segments. Generated captions
// repeat the previous line while the next one rolls in; consecutive
// duplicates are dropped.
func parseVTT(path string) (models.Transcript, error) {
	subs, err := astisub.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", filepath.Base(path))
	}

	segments := make(models.Transcript, 0, len(subs.Items))
	var previous string
	for _, item := range subs.Items {
		lines := make([]string, 0, len(item.Lines))
		for _, line := range item.Lines {
			if text := strings.TrimSpace(line.String()); text != "" && text != previous {
				lines = append(lines, text)
				previous = text
			}
		}
		if len(lines) == 0 {
			continue
		}
		segments = append(segments, models.CaptionSegment{
			Text:     strings.Join(lines, " "),
			Start:    item.StartAt.Seconds(),
			Duration: (item.EndAt - item.StartAt).Seconds(),
		})
	}
	return segments, nil
}
