package whisper

import (
	"strings"

	"github.com/pkg/errors"
)

// Word is a transcribed word with its time span in seconds within the audio window.
type Word struct {
	Start       float64 `json:"start" yaml:"start"`
	End         float64 `json:"end" yaml:"end"`
	Text        string  `json:"word" yaml:"word"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Validate checks that the word's span is within [0, 30] seconds and doesn't end before it starts.
func (w Word) Validate() error {
	if err := checkTimestamp(w.Start); err != nil {
		return errors.WithMessagef(err, "start of word %q", w.Text)
	}
	if err := checkTimestamp(w.End); err != nil {
		return errors.WithMessagef(err, "end of word %q", w.Text)
	}
	if w.End < w.Start {
		return errors.Wrapf(ErrOutOfRange, "word %q ends (%g) before it starts (%g)", w.Text, w.End, w.Start)
	}
	return nil
}

// Encode either a text prompt (string, see EncodeText) or a list of timed words ([]Word, see EncodeWords).
// Any other type returns an error wrapping ErrInvalidInput.
func (t *Tokenizer) Encode(input any) ([]int, error) {
	switch v := input.(type) {
	case string:
		return t.EncodeText(v), nil
	case []Word:
		return t.EncodeWords(v)
	default:
		return nil, errors.Wrapf(ErrInvalidInput, "can only encode a string or a []Word, got %T", input)
	}
}

// EncodeText encodes a text prompt: the text is stripped, prefixed with a space, and its tokens are
// limited to MaxLength/2-1 if they reach MaxLength/2.
// Unless timestamps are disabled, the prompt starts with the first timestamp token.
func (t *Tokenizer) EncodeText(text string) []int {
	var tokens []int
	if text = strings.TrimSpace(text); text != "" {
		tokens = t.vocab.Encode(" " + text)
	}
	if half := t.maxLength / 2; len(tokens) >= half {
		tokens = tokens[:half-1]
	}
	result := make([]int, 0, len(tokens)+1)
	if !t.withoutTimestamps {
		result = append(result, t.timestampBegin)
	}
	return append(result, tokens...)
}

// EncodeWords encodes a list of timed words. With timestamps, each word is rendered as
// "<|start|>text<|end|>". Words are joined with a space, except for spaceless languages
// (see IsSpacelessLanguage).
//
// It returns an error wrapping ErrOutOfRange if a word's time is not in [0, 30].
func (t *Tokenizer) EncodeWords(words []Word) ([]int, error) {
	rendered := make([]string, len(words))
	for i, word := range words {
		if t.withoutTimestamps {
			rendered[i] = word.Text
			continue
		}
		start, err := t.TimestampToTokenText(word.Start)
		if err != nil {
			return nil, errors.WithMessagef(err, "start of word #%d %q", i, word.Text)
		}
		end, err := t.TimestampToTokenText(word.End)
		if err != nil {
			return nil, errors.WithMessagef(err, "end of word #%d %q", i, word.Text)
		}
		rendered[i] = start + word.Text + end
	}
	separator := " "
	if IsSpacelessLanguage(t.languageCode) {
		separator = ""
	}
	return t.vocab.Encode(strings.Join(rendered, separator)), nil
}
