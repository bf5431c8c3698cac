// Package transcript aligns the tokens of transcribed segments into timed words, and reads and
// writes them.
//
// A Segment holds the tokens generated by the model for a stretch of audio. AlignSegments splits them
// into words (see whisper.Tokenizer.SplitToWordTokens) and assigns each word the time window given by
// the timestamp tokens around it.
package transcript

import (
	"os"

	"github.com/gomlx/go-whisper/tokenizers/whisper"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Segment of a transcription.
type Segment struct {
	// Start and End of the segment, in seconds from the start of the audio.
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`

	// Offset of the audio window the timestamp tokens are relative to.
	Offset float64 `json:"offset" yaml:"offset"`

	// Tokens generated by the model, including timestamp tokens.
	Tokens []int `json:"tokens" yaml:"tokens"`

	// Probabilities of each of the tokens. Optional.
	Probabilities []float64 `json:"probabilities,omitempty" yaml:"probabilities,omitempty"`
}

// Validate the segment's time span, and that there is one probability per token, if any.
func (s *Segment) Validate() error {
	if s.End < s.Start {
		return errors.Errorf("segment ends (%g) before it starts (%g)", s.End, s.Start)
	}
	if s.Start < 0 || s.Offset < 0 {
		return errors.Errorf("segment start (%g) and offset (%g) can't be negative", s.Start, s.Offset)
	}
	if len(s.Probabilities) > 0 && len(s.Probabilities) != len(s.Tokens) {
		return errors.Errorf("segment has %d probabilities for %d tokens", len(s.Probabilities), len(s.Tokens))
	}
	return nil
}

// LoadSegments reads a list of segments from a YAML (or JSON) file.
func LoadSegments(filePath string) ([]Segment, error) {
	var segments []Segment
	if err := loadYAML(filePath, &segments); err != nil {
		return nil, err
	}
	for i := range segments {
		if err := segments[i].Validate(); err != nil {
			return nil, errors.WithMessagef(err, "segment #%d of %q", i, filePath)
		}
	}
	return segments, nil
}

// LoadWords reads a list of timed words from a YAML (or JSON) file, with the fields of whisper.Word:
//
//	- {start: 0.0, end: 0.42, word: " Hello", probability: 0.98}
//	- {start: 0.42, end: 0.8, word: " world", probability: 0.95}
//
// The words can be re-encoded with whisper.Tokenizer.EncodeWords.
func LoadWords(filePath string) ([]whisper.Word, error) {
	var words []whisper.Word
	if err := loadYAML(filePath, &words); err != nil {
		return nil, err
	}
	for i, word := range words {
		if err := word.Validate(); err != nil {
			return nil, errors.WithMessagef(err, "word #%d of %q", i, filePath)
		}
	}
	return words, nil
}

func loadYAML(filePath string, out any) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read %q", filePath)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to parse %q", filePath)
	}
	return nil
}
