package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gomlx/go-whisper/internal/testvocab"
	"github.com/gomlx/go-whisper/tokenizers/whisper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
	tempDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
}

func (s *ConfigTestSuite) writeConfig(content string) string {
	configPath := filepath.Join(s.tempDir, "config.yaml")
	require.NoError(s.T(), os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := Load("")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "openai/whisper-tiny", cfg.Tokenizer.Repo)
	assert.Equal(s.T(), BackendHF, cfg.Tokenizer.Backend)
	assert.Empty(s.T(), cfg.Tokenizer.File)
	assert.Equal(s.T(), whisper.DefaultMaxLength, cfg.Whisper.MaxLength)
	assert.False(s.T(), cfg.Whisper.Multilingual)
	assert.Equal(s.T(), "transcribe", cfg.Whisper.Task)
	assert.Equal(s.T(), "en", cfg.Whisper.Language)
	assert.Equal(s.T(), 0, cfg.Align.MaxParallel)
	assert.NoError(s.T(), cfg.Validate())
}

func (s *ConfigTestSuite) TestFile() {
	configPath := s.writeConfig(`
tokenizer:
  file: /tmp/tokenizer.json
whisper:
  multilingual: true
  language: ja
  task: translate
  withoutTimestamps: true
  maxLength: 224
align:
  maxParallel: 4
`)
	cfg, err := Load(configPath)
	require.NoError(s.T(), err)
	require.NoError(s.T(), cfg.Validate())
	assert.Equal(s.T(), "/tmp/tokenizer.json", cfg.Tokenizer.File)
	assert.Equal(s.T(), whisper.Options{
		Multilingual:      true,
		Task:              "translate",
		Language:          "ja",
		WithoutTimestamps: true,
		MaxLength:         224,
	}, cfg.Options())
	assert.Equal(s.T(), 4, cfg.Align.MaxParallel)
}

func (s *ConfigTestSuite) TestEnvironmentOverridesFile() {
	configPath := s.writeConfig("whisper:\n  language: ja\n")
	s.T().Setenv("WHISPERTOK_WHISPER_LANGUAGE", "fr")
	s.T().Setenv("WHISPERTOK_WHISPER_MULTILINGUAL", "true")
	cfg, err := Load(configPath)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "fr", cfg.Whisper.Language)
	assert.True(s.T(), cfg.Whisper.Multilingual)
}

func (s *ConfigTestSuite) TestMissingFile() {
	_, err := Load(filepath.Join(s.tempDir, "missing.yaml"))
	assert.Error(s.T(), err)
}

func (s *ConfigTestSuite) TestValidate() {
	testCases := map[string]func(cfg *Config){
		"no tokenizer":         func(cfg *Config) { cfg.Tokenizer.Repo = "" },
		"negative max length":  func(cfg *Config) { cfg.Whisper.MaxLength = -1 },
		"invalid task":         func(cfg *Config) { cfg.Whisper.Multilingual, cfg.Whisper.Task = true, "summarize" },
		"invalid language":     func(cfg *Config) { cfg.Whisper.Multilingual, cfg.Whisper.Language = true, "xx" },
		"negative parallelism": func(cfg *Config) { cfg.Align.MaxParallel = -2 },
		"unknown backend":      func(cfg *Config) { cfg.Tokenizer.Backend = "tiktoken" },
		"sugarme without file": func(cfg *Config) { cfg.Tokenizer.Backend = BackendSugarme },
	}
	for name, modify := range testCases {
		s.Run(name, func() {
			cfg, err := Load("")
			require.NoError(s.T(), err)
			modify(cfg)
			assert.Error(s.T(), cfg.Validate())
		})
	}

	// Task and language are not checked for English-only models.
	cfg, err := Load("")
	require.NoError(s.T(), err)
	cfg.Whisper.Language = "xx"
	assert.NoError(s.T(), cfg.Validate())
}

func (s *ConfigTestSuite) TestLoadTokenizer() {
	tokenizerFile := testvocab.WriteFile(s.T(), whisper.LanguageCodes())
	configPath := s.writeConfig("tokenizer:\n  file: " + tokenizerFile + "\nwhisper:\n  multilingual: true\n  language: de\n")
	cfg, err := Load(configPath)
	require.NoError(s.T(), err)
	tok, err := cfg.LoadTokenizer()
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "de", tok.LanguageCode())
	assert.Len(s.T(), tok.StartSequence(), 3)
}

func (s *ConfigTestSuite) TestHubRepo() {
	cfg, err := Load("")
	require.NoError(s.T(), err)
	cfg.Tokenizer.Repo = "openai/whisper-small"
	cfg.Tokenizer.Endpoint = "http://localhost:1234"
	assert.Equal(s.T(), "openai/whisper-small", cfg.HubRepo().ID)
}
