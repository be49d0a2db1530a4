package summary

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordTokenizer maps every whitespace separated word to one token.
type wordTokenizer struct {
	vocab map[string]int
	words []string
	err   error
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{vocab: make(map[string]int)}
}

func (w *wordTokenizer) Encode(text string) ([]int, error) {
	if w.err != nil {
		return nil, w.err
	}
	fields := strings.Fields(text)
	ids := make([]int, len(fields))
	for i, f := range fields {
		id, ok := w.vocab[f]
		if !ok {
			id = len(w.words)
			w.vocab[f] = id
			w.words = append(w.words, f)
		}
		ids[i] = id
	}
	return ids, nil
}

func (w *wordTokenizer) Decode(ids []int) string {
	words := make([]string, len(ids))
	for i, id := range ids {
		words[i] = w.words[id]
	}
	return strings.Join(words, " ")
}

func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func collect(t *testing.T, c *Chunker, text string) []string {
	t.Helper()
	seq, err := c.Chunks(text)
	require.NoError(t, err)

	var chunks []string
	for chunk := range seq {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func TestChunkerWindows(t *testing.T) {
	c := NewChunker(newWordTokenizer(), 1024)
	text := numberedWords(2500)

	chunks := collect(t, c, text)
	require.Len(t, chunks, 3)
	assert.Len(t, strings.Fields(chunks[0]), 1024)
	assert.Len(t, strings.Fields(chunks[1]), 1024)
	assert.Len(t, strings.Fields(chunks[2]), 452)

	assert.Equal(t, text, strings.Join(chunks, " "))

	count, err := c.Count(text)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestChunkerCount(t *testing.T) {
	c := NewChunker(newWordTokenizer(), 10)

	for _, n := range []int{1, 9, 10, 11, 20, 21} {
		count, err := c.Count(numberedWords(n))
		require.NoError(t, err)
		assert.Equal(t, (n+9)/10, count, "tokens=%d", n)
		assert.Len(t, collect(t, c, numberedWords(n)), count, "tokens=%d", n)
	}
}

func TestChunkerShortText(t *testing.T) {
	c := NewChunker(newWordTokenizer(), 1024)

	chunks := collect(t, c, "never gonna give you up")
	assert.Equal(t, []string{"never gonna give you up"}, chunks)
}

func TestChunkerEmptyText(t *testing.T) {
	c := NewChunker(newWordTokenizer(), 1024)

	assert.Empty(t, collect(t, c, ""))
	assert.Empty(t, collect(t, c, "  \n\t"))

	count, err := c.Count("")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChunkerDeterministic(t *testing.T) {
	c := NewChunker(newWordTokenizer(), 7)
	text := numberedWords(50)

	seq, err := c.Chunks(text)
	require.NoError(t, err)

	var first, second []string
	for chunk := range seq {
		first = append(first, chunk)
	}
	for chunk := range seq {
		second = append(second, chunk)
	}
	assert.Equal(t, first, second)
	assert.Equal(t, first, collect(t, c, text))
}

func TestChunkerEarlyStop(t *testing.T) {
	c := NewChunker(newWordTokenizer(), 5)

	seq, err := c.Chunks(numberedWords(100))
	require.NoError(t, err)

	seen := 0
	for range seq {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestChunkerTokenizerError(t *testing.T) {
	tok := newWordTokenizer()
	tok.err = errors.New("vocabulary missing")
	c := NewChunker(tok, 1024)

	_, err := c.Chunks("some text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vocabulary missing")
}
