// Package tokenizers creates tokenizers from HuggingFace models.
//
// Given a HuggingFace repository (see hub.New to create one), tokenizers will use its "tokenizer_config.json"
// and "tokenizer.json" to instantiate a Tokenizer.
package tokenizers

import (
	"github.com/gomlx/go-whisper/hub"
	"github.com/gomlx/go-whisper/tokenizers/api"
	"github.com/gomlx/go-whisper/tokenizers/hftokenizer"
	"github.com/pkg/errors"
)

// Tokenizer interface allows one to convert text to "tokens" (integer ids) and back.
type Tokenizer = api.Tokenizer

// Vocabulary is the subword vocabulary the Whisper tokenizer is built on.
type Vocabulary = api.Vocabulary

// SpecialToken is an enum of commonly used special tokens.
type SpecialToken = api.SpecialToken

const (
	TokBeginningOfSentence = api.TokBeginningOfSentence
	TokEndOfSentence       = api.TokEndOfSentence
	TokUnknown             = api.TokUnknown
	TokPad                 = api.TokPad
	TokMask                = api.TokMask
	TokClassification      = api.TokClassification
	TokSpecialTokensCount  = api.TokSpecialTokensCount
)

// Config struct to hold HuggingFace's tokenizer_config.json contents.
type Config = api.Config

// New creates a new tokenizer from the given HuggingFace repo (see hub.New).
//
// It downloads "tokenizer_config.json" and uses its "tokenizer_class" to select the constructor.
func New(repo *hub.Repo) (Tokenizer, error) {
	config, err := GetConfig(repo)
	if err != nil {
		return nil, err
	}
	constructor, found := registerOfClasses[config.TokenizerClass]
	if !found {
		return nil, errors.Errorf("unknown tokenizer class %q in repo %q", config.TokenizerClass, repo)
	}
	return constructor(config, repo)
}

// NewVocabulary is like New, but it requires the tokenizer to also implement Vocabulary.
// It returns the parsed config along with it.
func NewVocabulary(repo *hub.Repo) (Vocabulary, *Config, error) {
	config, err := GetConfig(repo)
	if err != nil {
		return nil, nil, err
	}
	constructor, found := registerOfClasses[config.TokenizerClass]
	if !found {
		return nil, nil, errors.Errorf("unknown tokenizer class %q in repo %q", config.TokenizerClass, repo)
	}
	tok, err := constructor(config, repo)
	if err != nil {
		return nil, nil, err
	}
	vocab, ok := tok.(Vocabulary)
	if !ok {
		return nil, nil, errors.Errorf("tokenizer class %q doesn't provide a vocabulary", config.TokenizerClass)
	}
	return vocab, config, nil
}

// GetConfig returns the parsed "tokenizer_config.json" Config object for the repo.
func GetConfig(repo *hub.Repo) (*Config, error) {
	if err := repo.DownloadInfo(false); err != nil {
		return nil, err
	}
	localConfigFile, err := repo.DownloadFile("tokenizer_config.json")
	if err != nil {
		return nil, err
	}
	return api.ParseConfigFile(localConfigFile)
}

// TokenizerConstructor is used by Tokenizer implementations to provide implementations for different
// tokenizer classes.
type TokenizerConstructor func(config *api.Config, repo *hub.Repo) (api.Tokenizer, error)

// RegisterTokenizerClass used by Tokenizer implementations.
func RegisterTokenizerClass(name string, constructor TokenizerConstructor) {
	registerOfClasses[name] = constructor
}

var registerOfClasses = make(map[string]TokenizerConstructor)

func init() {
	for _, className := range []string{
		"WhisperTokenizer", "WhisperTokenizerFast", "GPT2Tokenizer", "GPT2TokenizerFast"} {
		RegisterTokenizerClass(className, hftokenizer.New)
	}
}
