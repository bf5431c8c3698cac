// Package hub downloads files from HuggingFace Hub: the tokenizer files Whisper models are
// published with ("tokenizer.json", "tokenizer_config.json", "vocab.json", ...).
//
// It shares the cache structure (usually under "~/.cache/huggingface/hub") of the python
// huggingface_hub library, so files downloaded by either are reused by the other.
package hub

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"

	gowhisper "github.com/gomlx/go-whisper"
	"github.com/google/uuid"
)

// SessionID is unique and created anew at the start of the program. It is sent in the user agent.
var SessionID = strings.ReplaceAll(uuid.NewString(), "-", "")

var (
	// DefaultDirCreationPerm is used when creating new cache subdirectories.
	DefaultDirCreationPerm = os.FileMode(0755)

	// DefaultFileCreationPerm is used when creating files inside the cache subdirectories.
	DefaultFileCreationPerm = os.FileMode(0644)
)

// RepoIDSeparator is used to separate repository/model names parts when mapping to folder names.
const RepoIDSeparator = "--"

// RepoType supported by HuggingFace Hub.
type RepoType string

const (
	RepoTypeDataset RepoType = "datasets"
	RepoTypeSpace   RepoType = "spaces"
	RepoTypeModel   RepoType = "models"
)

func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// DefaultCacheDir for HuggingFace Hub, same used by the python library.
//
// It is `${HF_HUB_CACHE}` if set. Otherwise, its prefix is either `${XDG_CACHE_HOME}` if set, or `~/.cache`,
// followed by `/huggingface/hub/`.
func DefaultCacheDir() string {
	if dir := os.Getenv("HF_HUB_CACHE"); dir != "" {
		return dir
	}
	cacheDir := getEnvOr("XDG_CACHE_HOME", path.Join(os.Getenv("HOME"), ".cache"))
	return path.Join(cacheDir, "huggingface", "hub")
}

// DefaultHTTPUserAgent returns the user agent used with HuggingFace Hub API.
func DefaultHTTPUserAgent() string {
	return fmt.Sprintf("go-whisper/%v; golang/%s; session_id/%s",
		gowhisper.Version, runtime.Version(), SessionID)
}
