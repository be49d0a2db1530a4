package transcript

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nijaru/yt-summarize/config"
)

const testVideoID = "dQw4w9WgXcQ"

type fakeYouTube struct {
	watchPage  string
	player     func(baseURL string) any
	timedText  string
	playerBody []byte
}

func (y *fakeYouTube) server(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /watch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testVideoID, r.URL.Query().Get("v"))
		io.WriteString(w, y.watchPage)
	})
	mux.HandleFunc("POST /youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		y.playerBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(y.player(srv.URL))
	})
	mux.HandleFunc("GET /api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("fmt"))
		io.WriteString(w, y.timedText)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func tracksPlayer(tracks ...map[string]string) func(string) any {
	return func(baseURL string) any {
		list := make([]map[string]string, len(tracks))
		for i, tr := range tracks {
			list[i] = map[string]string{
				"baseUrl":      baseURL + "/api/timedtext?v=" + testVideoID + "&lang=" + tr["lang"] + "&fmt=srv3",
				"languageCode": tr["lang"],
				"kind":         tr["kind"],
			}
		}
		return map[string]any{
			"playabilityStatus": map[string]string{"status": "OK"},
			"captions": map[string]any{
				"playerCaptionsTracklistRenderer": map[string]any{"captionTracks": list},
			},
		}
	}
}

func newTestFetcher(url string, languages ...string) *YouTubeFetcher {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return NewYouTubeFetcher(config.TranscriptConfig{
		BaseURL:     url,
		Languages:   languages,
		HTTPTimeout: 5 * time.Second,
	}, nil)
}

const watchPage = `<html><script>ytcfg.set({"INNERTUBE_API_KEY": "test-key","INNERTUBE_CLIENT_NAME":"WEB"});</script></html>`

func TestYouTubeFetch(t *testing.T) {
	yt := &fakeYouTube{
		watchPage: watchPage,
		player:    tracksPlayer(map[string]string{"lang": "en"}),
		timedText: `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
			`<text start="0.5" dur="2.1">never gonna give you up</text>` +
			`<text start="2.6" dur="1.9">it&amp;#39;s <font color="#E5E5E5">true</font></text>` +
			`<text start="4.5" dur="1"></text>` +
			`</transcript>`,
	}
	srv := yt.server(t)

	tr, err := newTestFetcher(srv.URL).Fetch(context.Background(), testVideoID)
	require.NoError(t, err)
	require.Len(t, tr, 2)

	assert.Equal(t, "never gonna give you up", tr[0].Text)
	assert.InDelta(t, 0.5, tr[0].Start, 1e-9)
	assert.InDelta(t, 2.1, tr[0].Duration, 1e-9)
	assert.Equal(t, "it's true", tr[1].Text)
	assert.Equal(t, "never gonna give you up it's true", tr.Text())

	var sent playerRequest
	require.NoError(t, json.Unmarshal(yt.playerBody, &sent))
	assert.Equal(t, testVideoID, sent.VideoID)
	assert.Equal(t, "ANDROID", sent.Context.Client.ClientName)
}

func TestYouTubeFetchReasons(t *testing.T) {
	tests := []struct {
		name      string
		watchPage string
		player    func(string) any
		reason    Reason
	}{
		{
			name:      "captcha",
			watchPage: `<div class="g-recaptcha"></div>`,
			reason:    ReasonTooManyRequests,
		},
		{
			name:      "missing api key",
			watchPage: `<html></html>`,
			reason:    ReasonRequestFailed,
		},
		{
			name:      "unplayable",
			watchPage: watchPage,
			player: func(string) any {
				return map[string]any{"playabilityStatus": map[string]string{"status": "ERROR", "reason": "Video unavailable"}}
			},
			reason: ReasonVideoUnavailable,
		},
		{
			name:      "bot check",
			watchPage: watchPage,
			player: func(string) any {
				return map[string]any{"playabilityStatus": map[string]string{"status": "LOGIN_REQUIRED", "reason": "Sign in to confirm you're not a bot"}}
			},
			reason: ReasonTooManyRequests,
		},
		{
			name:      "captions disabled",
			watchPage: watchPage,
			player: func(string) any {
				return map[string]any{"playabilityStatus": map[string]string{"status": "OK"}}
			},
			reason: ReasonTranscriptsDisabled,
		},
		{
			name:      "no track in language",
			watchPage: watchPage,
			player:    tracksPlayer(map[string]string{"lang": "de"}),
			reason:    ReasonNoTranscriptFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := (&fakeYouTube{watchPage: tt.watchPage, player: tt.player}).server(t)

			_, err := newTestFetcher(srv.URL).Fetch(context.Background(), testVideoID)
			require.Error(t, err)

			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tt.reason, fetchErr.Reason)
			assert.Equal(t, testVideoID, fetchErr.VideoID)
		})
	}
}

func TestYouTubeFetchRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv.URL).Fetch(context.Background(), testVideoID)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, ReasonTooManyRequests, fetchErr.Reason)
}

func TestYouTubeFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestFetcher(url).Fetch(context.Background(), testVideoID)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, ReasonRequestFailed, fetchErr.Reason)
}

func TestPickTrack(t *testing.T) {
	tracks := []captionTrack{
		{LanguageCode: "en", Kind: "asr", BaseURL: "auto-en"},
		{LanguageCode: "de", BaseURL: "manual-de"},
		{LanguageCode: "en", BaseURL: "manual-en"},
	}

	track, ok := pickTrack(tracks, []string{"en"})
	require.True(t, ok)
	assert.Equal(t, "manual-en", track.BaseURL)

	track, ok = pickTrack(tracks, []string{"de", "en"})
	require.True(t, ok)
	assert.Equal(t, "manual-de", track.BaseURL)

	track, ok = pickTrack(tracks[:1], []string{"en"})
	require.True(t, ok)
	assert.Equal(t, "auto-en", track.BaseURL)

	_, ok = pickTrack(tracks, []string{"fr"})
	assert.False(t, ok)
}

func TestPickTrackPrefersEarlierLanguage(t *testing.T) {
	tracks := []captionTrack{
		{LanguageCode: "en", BaseURL: "manual-en"},
		{LanguageCode: "de", Kind: "asr", BaseURL: "auto-de"},
	}

	track, ok := pickTrack(tracks, []string{"de", "en"})
	require.True(t, ok)
	assert.Equal(t, "auto-de", track.BaseURL)

	track, ok = pickTrack(tracks, []string{"fr", "en", "de"})
	require.True(t, ok)
	assert.Equal(t, "manual-en", track.BaseURL)
}

func TestFetchErrorMessage(t *testing.T) {
	err := newFetchError(testVideoID, ReasonTranscriptsDisabled, nil)
	assert.Equal(t, "Could not retrieve a transcript for the video dQw4w9WgXcQ: subtitles are disabled for this video", err.Error())
}
