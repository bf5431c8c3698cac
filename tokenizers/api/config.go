package api

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// AddedTokenDecoder describes one entry of the "added_tokens_decoder" of a tokenizer_config.json file.
type AddedTokenDecoder struct {
	Content    string `json:"content"`
	Lstrip     bool   `json:"lstrip"`
	Normalized bool   `json:"normalized"`
	Rstrip     bool   `json:"rstrip"`
	SingleWord bool   `json:"single_word"`
	Special    bool   `json:"special"`
}

// TokenString is a token given in a tokenizer_config.json file. Older files store them as
// AddedToken objects (`{"__type": "AddedToken", "content": "<|endoftext|>", ...}`), newer ones as plain strings.
type TokenString string

// UnmarshalJSON implements json.Unmarshaler, accepting both representations.
func (s *TokenString) UnmarshalJSON(data []byte) error {
	var plain *string
	if err := json.Unmarshal(data, &plain); err == nil {
		if plain != nil {
			*s = TokenString(*plain)
		}
		return nil
	}
	var obj struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.Wrapf(err, "invalid token %s", data)
	}
	*s = TokenString(obj.Content)
	return nil
}

// Config struct to hold HuggingFace's tokenizer_config.json contents.
// There is no formal schema for this file, but these are the common fields that may be of use.
//
// The extra field ConfigFile holds the path to the file with the full config.
type Config struct {
	ConfigFile     string
	TokenizerClass string `json:"tokenizer_class"`

	ModelMaxLength float64 `json:"model_max_length"`
	MaxLength      float64 `json:"max_length"`

	UnkToken  TokenString `json:"unk_token"`
	BosToken  TokenString `json:"bos_token"`
	EosToken  TokenString `json:"eos_token"`
	PadToken  TokenString `json:"pad_token"`
	ClsToken  TokenString `json:"cls_token"`
	SepToken  TokenString `json:"sep_token"`
	MaskToken TokenString `json:"mask_token"`

	AddPrefixSpace          bool                      `json:"add_prefix_space"`
	AddedTokensDecoder      map[int]AddedTokenDecoder `json:"added_tokens_decoder"`
	AdditionalSpecialTokens []string                  `json:"additional_special_tokens"`

	CleanUpTokenizationSpaces bool `json:"clean_up_tokenization_spaces"`

	// Whisper specific: default language and task, when saved with the tokenizer.
	Language          string `json:"language"`
	Task              string `json:"task"`
	PredictTimestamps bool   `json:"predict_timestamps"`
}

// ParseConfigFile parses the given file (holding a tokenizer_config.json file) into a Config structure.
func ParseConfigFile(filePath string) (*Config, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %q", filePath)
	}
	config, err := ParseConfigContent(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "read from file %q", filePath)
	}
	config.ConfigFile = filePath
	return config, nil
}

// ParseConfigContent parses the given json content (of a tokenizer_config.json file) into a Config structure.
func ParseConfigContent(jsonContent []byte) (*Config, error) {
	config := &Config{}
	if err := json.Unmarshal(jsonContent, config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenizer_config json content")
	}
	return config, nil
}
