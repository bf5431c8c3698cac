// Package config holds the configuration of the whisper-tokenizer command line tool.
//
// Values come, in order of precedence, from environment variables prefixed with WHISPERTOK_ (with
// "." replaced by "_", e.g. WHISPERTOK_WHISPER_LANGUAGE), from an optional YAML file, and from the
// defaults. Command line flags are applied on top by the caller.
package config

import (
	"strings"

	"github.com/gomlx/go-whisper/hub"
	"github.com/gomlx/go-whisper/internal/files"
	"github.com/gomlx/go-whisper/tokenizers/sugartokenizer"
	"github.com/gomlx/go-whisper/tokenizers/whisper"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix of the environment variables read by Load.
const EnvPrefix = "WHISPERTOK"

// Tokenizer backends.
const (
	BackendHF      = "hf"
	BackendSugarme = "sugarme"
)

// Config of the command line tool.
type Config struct {
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Whisper   WhisperConfig   `mapstructure:"whisper"`
	Align     AlignConfig     `mapstructure:"align"`
}

// TokenizerConfig tells where to load the vocabulary from: either a local tokenizer.json file or a
// HuggingFace repository.
//
// Backend selects the implementation reading tokenizer.json files: BackendHF or BackendSugarme.
type TokenizerConfig struct {
	Backend  string `mapstructure:"backend"`
	File     string `mapstructure:"file"`
	Repo     string `mapstructure:"repo"`
	CacheDir string `mapstructure:"cacheDir"`
	Endpoint string `mapstructure:"endpoint"`
}

// WhisperConfig mirrors whisper.Options.
type WhisperConfig struct {
	Multilingual      bool   `mapstructure:"multilingual"`
	Task              string `mapstructure:"task"`
	Language          string `mapstructure:"language"`
	WithoutTimestamps bool   `mapstructure:"withoutTimestamps"`
	MaxLength         int    `mapstructure:"maxLength"`
}

// AlignConfig configures the alignment of segments.
type AlignConfig struct {
	MaxParallel int `mapstructure:"maxParallel"`
}

// Load the configuration from the YAML file at configPath, if not empty, the environment and the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetDefault("tokenizer.backend", BackendHF)
	v.SetDefault("tokenizer.file", "")
	v.SetDefault("tokenizer.repo", "openai/whisper-tiny")
	v.SetDefault("tokenizer.cacheDir", hub.DefaultCacheDir())
	v.SetDefault("tokenizer.endpoint", "")
	v.SetDefault("whisper.multilingual", false)
	v.SetDefault("whisper.task", "transcribe")
	v.SetDefault("whisper.language", "en")
	v.SetDefault("whisper.withoutTimestamps", false)
	v.SetDefault("whisper.maxLength", whisper.DefaultMaxLength)
	v.SetDefault("align.maxParallel", 0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %q", configPath)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode configuration")
	}
	var err error
	for _, path := range []*string{&cfg.Tokenizer.File, &cfg.Tokenizer.CacheDir} {
		if *path, err = files.ReplaceTildeInDir(*path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Tokenizer.File == "" && c.Tokenizer.Repo == "" {
		return errors.New("either tokenizer.file or tokenizer.repo must be set")
	}
	switch c.Tokenizer.Backend {
	case BackendHF:
	case BackendSugarme:
		if c.Tokenizer.File == "" {
			return errors.Errorf("tokenizer.backend %q requires tokenizer.file", BackendSugarme)
		}
	default:
		return errors.Errorf("tokenizer.backend must be %q or %q, got %q", BackendHF, BackendSugarme, c.Tokenizer.Backend)
	}
	if c.Whisper.MaxLength < 0 {
		return errors.Errorf("whisper.maxLength must be >= 0, got %d", c.Whisper.MaxLength)
	}
	if c.Whisper.Multilingual {
		if !whisper.IsSupportedTask(c.Whisper.Task) {
			return errors.Errorf("whisper.task must be one of %s, got %q", strings.Join(whisper.Tasks(), ", "), c.Whisper.Task)
		}
		if !whisper.IsSupportedLanguage(c.Whisper.Language) {
			return errors.Errorf("whisper.language %q is not supported", c.Whisper.Language)
		}
	}
	if c.Align.MaxParallel < 0 {
		return errors.Errorf("align.maxParallel must be >= 0, got %d", c.Align.MaxParallel)
	}
	return nil
}

// Options returns the whisper.Options of the configuration.
func (c *Config) Options() whisper.Options {
	return whisper.Options{
		Multilingual:      c.Whisper.Multilingual,
		Task:              c.Whisper.Task,
		Language:          c.Whisper.Language,
		WithoutTimestamps: c.Whisper.WithoutTimestamps,
		MaxLength:         c.Whisper.MaxLength,
	}
}

// HubRepo returns the HuggingFace repository configured in tokenizer.repo.
func (c *Config) HubRepo() *hub.Repo {
	repo := hub.New(c.Tokenizer.Repo).WithCacheDir(c.Tokenizer.CacheDir)
	if c.Tokenizer.Endpoint != "" {
		repo = repo.WithEndpoint(c.Tokenizer.Endpoint)
	}
	return repo
}

// LoadTokenizer loads the Whisper tokenizer from tokenizer.file if set, or from tokenizer.repo otherwise.
func (c *Config) LoadTokenizer() (*whisper.Tokenizer, error) {
	if c.Tokenizer.Backend == BackendSugarme {
		vocab, err := sugartokenizer.NewFromFile(c.Tokenizer.File)
		if err != nil {
			return nil, err
		}
		return whisper.New(vocab, c.Options())
	}
	if c.Tokenizer.File != "" {
		return whisper.FromFile(c.Tokenizer.File, c.Options())
	}
	return whisper.FromRepo(c.HubRepo(), c.Options())
}
