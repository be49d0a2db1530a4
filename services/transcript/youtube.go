package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-summarize/config"
	"github.com/nijaru/yt-summarize/models"
)

const (
	androidClientVersion = "20.10.38"
	androidUserAgent     = "com.google.android.youtube/" + androidClientVersion + " (Linux; U; Android 11) gzip"
	browserUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	maxWatchPageSize = 6 * 1024 * 1024
	maxPlayerSize    = 3 * 1024 * 1024
	maxTimedTextSize = 4 * 1024 * 1024
)

var (
	apiKeyPattern = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
)

type playerRequest struct {
	VideoID string        `json:"videoId"`
	Context playerContext `json:"context"`
}

type playerContext struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated tracks
}

func (t captionTrack) generated() bool {
	return t.Kind == "asr"
}

type timedText struct {
	Segments []timedTextSegment `xml:"text"`
}

type timedTextSegment struct {
	Start    float64 `xml:"start,attr"`
	Duration float64 `xml:"dur,attr"`
	Text     string  `xml:",chardata"`
}

// YouTubeFetcher reads captions straight from YouTube: the watch page yields
// the innertube API key, the player endpoint lists the caption tracks and the
// chosen track is downloaded as timedtext XML.
type YouTubeFetcher struct {
	baseURL   string
	languages []string
	client    *http.Client
	logger    *logrus.Logger
}

func NewYouTubeFetcher(cfg config.TranscriptConfig, logger *logrus.Logger) *YouTubeFetcher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &YouTubeFetcher{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		languages: cfg.Languages,
		client:    &http.Client{Timeout: cfg.HTTPTimeout},
		logger:    logger,
	}
}

func (f *YouTubeFetcher) Fetch(ctx context.Context, videoID string) (models.Transcript, error) {
	logger := f.logger.WithField("video_id", videoID)

	page, err := f.get(ctx, videoID, f.baseURL+"/watch?v="+videoID, browserUserAgent, maxWatchPageSize)
	if err != nil {
		return nil, err
	}

	apiKey, err := extractAPIKey(videoID, page)
	if err != nil {
		return nil, err
	}

	player, err := f.player(ctx, videoID, apiKey)
	if err != nil {
		return nil, err
	}

	tracks, err := captionTracks(videoID, player)
	if err != nil {
		return nil, err
	}

	track, ok := pickTrack(tracks, f.languages)
	if !ok {
		available := make([]string, len(tracks))
		for i, t := range tracks {
			available[i] = t.LanguageCode
		}
		return nil, newFetchError(videoID, ReasonNoTranscriptFound,
			fmt.Errorf("requested %v, available %v", f.languages, available))
	}

	logger.WithFields(logrus.Fields{
		"language":  track.LanguageCode,
		"generated": track.generated(),
	}).Debug("Selected caption track")

	body, err := f.get(ctx, videoID, strings.Replace(track.BaseURL, "&fmt=srv3", "", 1), browserUserAgent, maxTimedTextSize)
	if err != nil {
		return nil, err
	}

	segments, err := parseTimedText(body)
	if err != nil {
		return nil, newFetchError(videoID, ReasonParseFailed, err)
	}

	logger.WithField("segments", len(segments)).Debug("Fetched captions")
	return segments, nil
}

func (f *YouTubeFetcher) get(ctx context.Context, videoID, url, userAgent string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newFetchError(videoID, ReasonRequestFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	return f.do(videoID, req, limit)
}

func (f *YouTubeFetcher) player(ctx context.Context, videoID, apiKey string) (*playerResponse, error) {
	payload, err := json.Marshal(playerRequest{
		VideoID: videoID,
		Context: playerContext{
			Client: playerClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidClientVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
			},
		},
	})
	if err != nil {
		return nil, newFetchError(videoID, ReasonRequestFailed, err)
	}

	url := f.baseURL + "/youtubei/v1/player?prettyPrint=false&key=" + apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, newFetchError(videoID, ReasonRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUserAgent)

	body, err := f.do(videoID, req, maxPlayerSize)
	if err != nil {
		return nil, err
	}

	var resp playerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newFetchError(videoID, ReasonParseFailed, errors.Wrap(err, "decoding player response"))
	}
	return &resp, nil
}

func (f *YouTubeFetcher) do(videoID string, req *http.Request, limit int64) ([]byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newFetchError(videoID, ReasonRequestFailed, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, newFetchError(videoID, ReasonTooManyRequests, fmt.Errorf("HTTP %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, newFetchError(videoID, ReasonRequestFailed, fmt.Errorf("%s %s: HTTP %d", req.Method, req.URL.Path, resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, newFetchError(videoID, ReasonRequestFailed, errors.Wrap(err, "reading response"))
	}
	return body, nil
}

func extractAPIKey(videoID string, page []byte) (string, error) {
	if m := apiKeyPattern.FindSubmatch(page); len(m) == 2 {
		return string(m[1]), nil
	}
	if bytes.Contains(page, []byte(`class="g-recaptcha"`)) {
		return "", newFetchError(videoID, ReasonTooManyRequests, errors.New("captcha requested"))
	}
	return "", newFetchError(videoID, ReasonRequestFailed, errors.New("INNERTUBE_API_KEY not found in watch page"))
}

func captionTracks(videoID string, player *playerResponse) ([]captionTrack, error) {
	if status := player.PlayabilityStatus; status != nil && status.Status != "OK" {
		if status.Status == "LOGIN_REQUIRED" && strings.Contains(status.Reason, "bot") {
			return nil, newFetchError(videoID, ReasonTooManyRequests, errors.New(status.Reason))
		}
		return nil, newFetchError(videoID, ReasonVideoUnavailable, fmt.Errorf("%s: %s", status.Status, status.Reason))
	}

	if player.Captions == nil {
		return nil, newFetchError(videoID, ReasonTranscriptsDisabled, nil)
	}
	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, newFetchError(videoID, ReasonTranscriptsDisabled, nil)
	}
	return tracks, nil
}

// pickTrack walks the language preference order and, for each language,
// takes a manually created track before a generated one.
func pickTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	for _, lang := range languages {
		var generated *captionTrack
		for i, t := range tracks {
			if t.LanguageCode != lang {
				continue
			}
			if !t.generated() {
				return t, true
			}
			if generated == nil {
				generated = &tracks[i]
			}
		}
		if generated != nil {
			return *generated, true
		}
	}
	return captionTrack{}, false
}

func parseTimedText(body []byte) (models.Transcript, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, errors.Wrap(err, "parsing timedtext XML")
	}

	segments := make(models.Transcript, 0, len(tt.Segments))
	for _, seg := range tt.Segments {
		text := tagPattern.ReplaceAllString(html.UnescapeString(seg.Text), "")
		if text == "" {
			continue
		}
		segments = append(segments, models.CaptionSegment{
			Text:     text,
			Start:    seg.Start,
			Duration: seg.Duration,
		})
	}
	return segments, nil
}
