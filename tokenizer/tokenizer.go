package tokenizer

import (
	"github.com/pkg/errors"
	hftokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Tokenizer converts between text and model token ids.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(ids []int) string
}

// Pretrained wraps a HuggingFace tokenizer loaded from tokenizer.json.
// It is safe for concurrent use once loaded.
type Pretrained struct {
	tok *hftokenizer.Tokenizer
}

// FromFile loads the tokenizer.json shipped with a pretrained model, such as
// facebook/bart-large-cnn.
func FromFile(path string) (*Pretrained, error) {
	tok, err := pretrained.FromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tokenizer from %s", path)
	}
	return &Pretrained{tok: tok}, nil
}

// Encode tokenizes text without adding special tokens; the model adds them
// itself when generating.
func (p *Pretrained) Encode(text string) ([]int, error) {
	encoding, err := p.tok.EncodeSingle(text, false)
	if err != nil {
		return nil, errors.Wrap(err, "tokenization failed")
	}
	return encoding.GetIds(), nil
}

func (p *Pretrained) Decode(ids []int) string {
	return p.tok.Decode(ids, true)
}
