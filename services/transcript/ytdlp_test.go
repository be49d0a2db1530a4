package transcript

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nijaru/yt-summarize/config"
	"github.com/nijaru/yt-summarize/scripts"
)

const sampleVTT = `WEBVTT

00:00:00.000 --> 00:00:02.500
never gonna give you up

00:00:02.500 --> 00:00:05.000
never gonna give you up
never gonna let you down
`

func TestParseVTT(t *testing.T) {
	path := filepath.Join(t.TempDir(), testVideoID+".en.vtt")
	require.NoError(t, os.WriteFile(path, []byte(sampleVTT), 0o644))

	tr, err := parseVTT(path)
	require.NoError(t, err)
	require.Len(t, tr, 2)

	assert.Equal(t, "never gonna give you up", tr[0].Text)
	assert.InDelta(t, 2.5, tr[0].Duration, 1e-9)
	assert.Equal(t, "never gonna let you down", tr[1].Text)
	assert.InDelta(t, 2.5, tr[1].Start, 1e-9)
}

func TestClassifyYtDlpFailure(t *testing.T) {
	assert.Equal(t, ReasonTooManyRequests, classifyYtDlpFailure("ERROR: HTTP Error 429: Too Many Requests"))
	assert.Equal(t, ReasonVideoUnavailable, classifyYtDlpFailure("ERROR: [youtube] xxx: Video unavailable"))
	assert.Equal(t, ReasonRequestFailed, classifyYtDlpFailure("ERROR: something else"))
}

// writeFakeYtDlp installs a shell script standing in for yt-dlp.
func writeFakeYtDlp(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func newTestYtDlpFetcher(t *testing.T, binary string) *YtDlpFetcher {
	return NewYtDlpFetcher(config.TranscriptConfig{
		YtDlpPath: binary,
		Languages: []string{"en"},
	}, t.TempDir(), scripts.NewRunner(nil), nil)
}

func TestYtDlpFetch(t *testing.T) {
	script := "cat > " + testVideoID + ".en.vtt <<'VTT'\n" + sampleVTT + "VTT\n"
	fetcher := newTestYtDlpFetcher(t, writeFakeYtDlp(t, script))

	tr, err := fetcher.Fetch(context.Background(), testVideoID)
	require.NoError(t, err)
	assert.Equal(t, "never gonna give you up never gonna let you down", tr.Text())
}

func TestYtDlpFetchNoSubtitles(t *testing.T) {
	fetcher := newTestYtDlpFetcher(t, writeFakeYtDlp(t, `echo "[info] `+testVideoID+`: There are no subtitles for the requested languages"`+"\n"))

	_, err := fetcher.Fetch(context.Background(), testVideoID)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, ReasonTranscriptsDisabled, fetchErr.Reason)
}

func TestYtDlpFetchUnavailable(t *testing.T) {
	fetcher := newTestYtDlpFetcher(t, writeFakeYtDlp(t, `echo "ERROR: [youtube] `+testVideoID+`: Video unavailable" >&2; exit 1`+"\n"))

	_, err := fetcher.Fetch(context.Background(), testVideoID)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, ReasonVideoUnavailable, fetchErr.Reason)
}
