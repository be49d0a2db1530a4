package summary

import (
	"fmt"
	"iter"
	"strings"

	"github.com/nijaru/yt-summarize/tokenizer"
)

// Chunker splits text into consecutive windows of at most maxTokens tokens.
// Windows never overlap and are decoded back to text only when consumed.
type Chunker struct {
	tok       tokenizer.Tokenizer
	maxTokens int
}

func NewChunker(tok tokenizer.Tokenizer, maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxInputTokens
	}
	return &Chunker{tok: tok, maxTokens: maxTokens}
}

// Chunks tokenizes text once and returns the sequence of decoded windows.
// The sequence may be ranged over more than once.
func (c *Chunker) Chunks(text string) (iter.Seq[string], error) {
	ids, err := c.encode(text)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		for start := 0; start < len(ids); start += c.maxTokens {
			end := min(start+c.maxTokens, len(ids))
			if !yield(c.tok.Decode(ids[start:end])) {
				return
			}
		}
	}, nil
}

// Count returns how many chunks Chunks would produce for text.
func (c *Chunker) Count(text string) (int, error) {
	ids, err := c.encode(text)
	if err != nil {
		return 0, err
	}
	return (len(ids) + c.maxTokens - 1) / c.maxTokens, nil
}

func (c *Chunker) encode(text string) ([]int, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	ids, err := c.tok.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("encoding transcript: %w", err)
	}
	return ids, nil
}
