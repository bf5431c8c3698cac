// Package whisper implements the tokenizer of OpenAI's Whisper speech recognition models on top of
// a byte-level BPE vocabulary.
//
// It builds the control token prologue of the prompts (start of transcript, language and task),
// encodes text and timed words into token ids, decodes model output back into text (optionally
// with the timestamp tokens rendered as "<|1.24|>"), and splits token sequences into words,
// keeping track of the tokens that make each word.
//
// A Tokenizer is immutable after New, and it is safe for concurrent use if the Vocabulary is.
package whisper

import (
	"strings"

	"github.com/gomlx/go-whisper/hub"
	"github.com/gomlx/go-whisper/tokenizers"
	"github.com/gomlx/go-whisper/tokenizers/api"
	"github.com/gomlx/go-whisper/tokenizers/hftokenizer"
	"github.com/pkg/errors"
)

// DefaultMaxLength is the maximum number of tokens of Whisper's text decoder context.
const DefaultMaxLength = 448

// Options to create a Tokenizer. The zero value is an English-only tokenizer with timestamps.
type Options struct {
	// Multilingual models require a Task and a Language.
	Multilingual bool
	Task         string
	Language     string

	// WithoutTimestamps disables the timestamp tokens when encoding.
	WithoutTimestamps bool

	// MaxLength of the model context, in tokens. Encoded text prompts are limited to half of it.
	// If 0, DefaultMaxLength is used.
	MaxLength int
}

// SpecialTokens holds the ids of the control tokens of the vocabulary.
type SpecialTokens struct {
	Transcribe   int
	Translate    int
	SOT          int // Start of transcript.
	SOTLM        int // Start of language model prompt.
	SOTPrev      int // Start of the previous text, used as context.
	EOT          int // End of text, all ids from here on are control tokens.
	NoTimestamps int
}

// Tokenizer for Whisper models.
type Tokenizer struct {
	vocab    api.Vocabulary
	specials SpecialTokens

	timestampBegin int

	// task and language ids are -1 if not set.
	task, language int
	languageCode   string
	languageIDs    map[int]string

	withoutTimestamps bool
	maxLength         int
}

// New creates a Tokenizer on top of the vocabulary.
//
// For multilingual models the task must be one of Tasks and the language one of LanguageCodes.
// It returns an error wrapping ErrInvalidConfiguration otherwise, or if a control token is missing
// from the vocabulary.
func New(vocab api.Vocabulary, opts Options) (*Tokenizer, error) {
	t := &Tokenizer{
		vocab:             vocab,
		task:              -1,
		language:          -1,
		languageCode:      "en",
		withoutTimestamps: opts.WithoutTimestamps,
		maxLength:         opts.MaxLength,
	}
	if t.maxLength == 0 {
		t.maxLength = DefaultMaxLength
	}
	if t.maxLength < 2 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "max length must be at least 2, got %d", opts.MaxLength)
	}

	var err error
	resolve := func(token string) int {
		if err != nil {
			return -1
		}
		id, found := vocab.TokenToID(token)
		if !found {
			err = errors.Wrapf(ErrInvalidConfiguration, "control token %q not found in vocabulary", token)
			return -1
		}
		return id
	}
	t.specials = SpecialTokens{
		Transcribe:   resolve("<|transcribe|>"),
		Translate:    resolve("<|translate|>"),
		SOT:          resolve("<|startoftranscript|>"),
		SOTLM:        resolve("<|startoflm|>"),
		SOTPrev:      resolve("<|startofprev|>"),
		EOT:          resolve("<|endoftext|>"),
		NoTimestamps: resolve("<|notimestamps|>"),
	}
	if err != nil {
		return nil, err
	}
	t.timestampBegin = t.specials.NoTimestamps + 1

	t.languageIDs = make(map[int]string, len(languageCodes))
	for _, code := range languageCodes {
		if id, found := vocab.TokenToID("<|" + code + "|>"); found {
			t.languageIDs[id] = code
		}
	}

	if opts.Multilingual {
		if !IsSupportedTask(opts.Task) {
			return nil, errors.Wrapf(ErrInvalidConfiguration, "'%s' is not a valid task (accepted tasks: %s)",
				opts.Task, strings.Join(tasks, ", "))
		}
		if !IsSupportedLanguage(opts.Language) {
			return nil, errors.Wrapf(ErrInvalidConfiguration,
				"'%s' is not a valid language code (accepted language codes: %s)",
				opts.Language, strings.Join(languageCodes, ", "))
		}
		t.task = resolve("<|" + opts.Task + "|>")
		t.language = resolve("<|" + opts.Language + "|>")
		if err != nil {
			return nil, err
		}
		t.languageCode = opts.Language
	}
	return t, nil
}

// FromFile creates a Tokenizer from a local HuggingFace tokenizer.json file.
func FromFile(tokenizerFile string, opts Options) (*Tokenizer, error) {
	vocab, err := hftokenizer.NewFromFile(nil, tokenizerFile)
	if err != nil {
		return nil, err
	}
	return New(vocab, opts)
}

// FromRepo creates a Tokenizer from the vocabulary of a HuggingFace repository, e.g. "openai/whisper-small".
//
// For multilingual models, the language and task saved in the repository's tokenizer_config.json are
// used if not set in opts.
func FromRepo(repo *hub.Repo, opts Options) (*Tokenizer, error) {
	vocab, config, err := tokenizers.NewVocabulary(repo)
	if err != nil {
		return nil, errors.WithMessagef(err, "while loading vocabulary from %q", repo)
	}
	if opts.Multilingual {
		if opts.Language == "" {
			opts.Language = strings.Trim(config.Language, "<|>")
		}
		if opts.Task == "" {
			opts.Task = config.Task
		}
	}
	return New(vocab, opts)
}

// Vocabulary used by the tokenizer.
func (t *Tokenizer) Vocabulary() api.Vocabulary { return t.vocab }

// SpecialTokens returns the ids of the control tokens.
func (t *Tokenizer) SpecialTokens() SpecialTokens { return t.specials }

// TimestampBegin is the id of the first timestamp token ("<|0.00|>"), right after NoTimestamps.
func (t *Tokenizer) TimestampBegin() int { return t.timestampBegin }

// LanguageCode of the tokenizer: the configured language for multilingual tokenizers, "en" otherwise.
func (t *Tokenizer) LanguageCode() string { return t.languageCode }

// MaxLength of the model context.
func (t *Tokenizer) MaxLength() int { return t.maxLength }

// WithoutTimestamps reports whether encoding omits timestamp tokens.
func (t *Tokenizer) WithoutTimestamps() bool { return t.withoutTimestamps }

// StartSequence returns the prologue of every prompt: start of transcript, followed by the language
// and task tokens for multilingual tokenizers.
func (t *Tokenizer) StartSequence() []int {
	sequence := []int{t.specials.SOT}
	if t.language >= 0 {
		sequence = append(sequence, t.language)
	}
	if t.task >= 0 {
		sequence = append(sequence, t.task)
	}
	return sequence
}

// IsText reports whether id is a text token, as opposed to a control token.
func (t *Tokenizer) IsText(id int) bool { return id >= 0 && id < t.specials.EOT }

// IsSpecial reports whether id is a control token (end of text, language, task, timestamps, ...).
func (t *Tokenizer) IsSpecial(id int) bool { return id >= t.specials.EOT }

// IsLanguageToken reports whether id is the token of one of LanguageCodes.
func (t *Tokenizer) IsLanguageToken(id int) bool {
	_, found := t.languageIDs[id]
	return found
}

// LanguageToken returns the id of the token for the language code, e.g. "<|fr|>".
func (t *Tokenizer) LanguageToken(code string) (int, bool) {
	if !IsSupportedLanguage(code) {
		return 0, false
	}
	return t.vocab.TokenToID("<|" + code + "|>")
}

// TokenLanguage returns the language code of a language token.
func (t *Tokenizer) TokenLanguage(id int) (string, bool) {
	code, found := t.languageIDs[id]
	return code, found
}
