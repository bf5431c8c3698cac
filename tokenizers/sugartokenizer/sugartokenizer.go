// Package sugartokenizer implements api.Vocabulary using github.com/sugarme/tokenizer, a Go port of
// HuggingFace's tokenizers library.
//
// It is an alternative to hftokenizer, and also reads tokenizer.json files.
package sugartokenizer

import (
	"encoding/json"
	"os"

	"github.com/gomlx/go-whisper/internal/lossy"
	"github.com/gomlx/go-whisper/tokenizers/api"
	"github.com/pkg/errors"
	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Tokenizer wraps a sugarme tokenizer loaded from a tokenizer.json file.
type Tokenizer struct {
	t *tk.Tokenizer

	// added maps the ids of the added tokens to their content. Special ones map to "" and are
	// dropped by Decode, the others are decoded verbatim.
	added map[int]string
}

// Compile time assert that Tokenizer implements api.Vocabulary interface.
var _ api.Vocabulary = &Tokenizer{}

// NewFromFile loads the tokenizer.json file.
func NewFromFile(filePath string) (*Tokenizer, error) {
	t, err := pretrained.FromFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "sugarme/tokenizer failed to load %q", filePath)
	}
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %q", filePath)
	}
	var parsed struct {
		AddedTokens []struct {
			ID      int    `json:"id"`
			Content string `json:"content"`
			Special bool   `json:"special"`
		} `json:"added_tokens"`
	}
	if err := json.Unmarshal(content, &parsed); err != nil {
		return nil, errors.Wrapf(err, "failed to parse added tokens of %q", filePath)
	}
	added := make(map[int]string, len(parsed.AddedTokens))
	for _, at := range parsed.AddedTokens {
		if at.Special {
			added[at.ID] = ""
		} else {
			added[at.ID] = at.Content
		}
	}
	return &Tokenizer{t: t, added: added}, nil
}

// TokenToID implements api.Vocabulary.
func (t *Tokenizer) TokenToID(token string) (int, bool) {
	return t.t.TokenToId(token)
}

// Encode implements api.Vocabulary: it doesn't add any control tokens.
// It returns nil if the underlying tokenizer fails.
func (t *Tokenizer) Encode(text string) []int {
	if text == "" {
		return nil
	}
	enc, err := t.t.Encode(tk.NewSingleEncodeInput(tk.NewInputSequence(text)), false)
	if err != nil {
		return nil
	}
	ids := enc.GetIds()
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// Decode implements api.Vocabulary.
//
// Special added tokens are skipped and the other added tokens are rendered by their content. Runs of
// the remaining tokens are decoded by the sugarme tokenizer, and ill-formed UTF-8 of the concatenation
// is replaced by U+FFFD.
func (t *Tokenizer) Decode(ids []int) string {
	var buf []byte
	runStart := 0
	flush := func(end int) {
		if end > runStart {
			buf = append(buf, t.t.Decode(ids[runStart:end], false)...)
		}
	}
	for i, id := range ids {
		content, isAdded := t.added[id]
		if !isAdded {
			continue
		}
		flush(i)
		buf = append(buf, content...)
		runStart = i + 1
	}
	flush(len(ids))
	return lossy.String(buf)
}
