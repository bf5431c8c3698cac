// Package api defines the Tokenizer and Vocabulary APIs.
// It's just a hack to break the cyclic dependency, and allow the users to import `tokenizers` and get the
// default implementations.
package api

import "fmt"

// Tokenizer interface allows one to convert text to "tokens" (integer ids) and back.
//
// It also allows mapping of special tokens: tokens with a common semantic (like padding) but that
// may map to different ids (int) for different tokenizers.
type Tokenizer interface {
	Encode(text string) []int
	Decode([]int) string

	// SpecialTokenID returns ID for given special token if registered, or an error if not.
	SpecialTokenID(token SpecialToken) (int, error)
}

// Vocabulary is the minimal subword vocabulary the Whisper tokenizer is built on.
//
// Implementations must be safe for concurrent use once constructed.
type Vocabulary interface {
	// TokenToID returns the id of the exact token string (e.g. "<|endoftext|>"), and false if it is unknown.
	TokenToID(token string) (int, bool)

	// Encode text without adding any control tokens. Added tokens present literally in the text,
	// like "<|0.50|>", are encoded to their single ids.
	Encode(text string) []int

	// Decode ids to text. Incomplete or invalid UTF-8 sequences are rendered with the
	// Unicode replacement character (U+FFFD), one per maximal ill-formed subsequence.
	Decode(ids []int) string
}

// SpecialToken is an enum of commonly used special tokens.
type SpecialToken int

const (
	TokBeginningOfSentence SpecialToken = iota
	TokEndOfSentence
	TokUnknown
	TokPad
	TokMask
	TokClassification
	TokSpecialTokensCount
)

var specialTokenNames = [...]string{
	"beginning_of_sentence",
	"end_of_sentence",
	"unknown",
	"pad",
	"mask",
	"classification",
}

// String implements fmt.Stringer.
func (t SpecialToken) String() string {
	if t < 0 || t >= TokSpecialTokensCount {
		return fmt.Sprintf("SpecialToken(%d)", int(t))
	}
	return specialTokenNames[t]
}
