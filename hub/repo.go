package hub

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/gomlx/go-whisper/internal/downloader"
	"github.com/gomlx/go-whisper/internal/files"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Repo from which one wants to download files. Create it with New.
type Repo struct {
	// ID of the Repo may include owner/model. E.g.: Systran/faster-whisper-small
	ID string

	// HuggingFace endpoint to use, defaults to "https://huggingface.co".
	hfEndpoint string

	// repoType of the repository, usually RepoTypeModel.
	repoType RepoType

	// revision to download, usually set to "main", but it can use a commit-hash version.
	revision string

	// authToken is the HuggingFace authentication token to be used when downloading the files.
	authToken string

	// MaxParallelDownload indicates how many files to download at the same time. Default is 20.
	// If set to <= 0 it will download all files in parallel.
	MaxParallelDownload int

	// cacheDir is where to store the downloaded files.
	cacheDir string

	// info about the Repo in HuggingFace, including the list of files.
	// It is only available after DownloadInfo is called.
	info *RepoInfo

	downloadManager *downloader.Manager
}

// New creates a reference to a HuggingFace repository given its id.
//
// It uses the cache directory given by DefaultCacheDir, shared with the python huggingface_hub library.
// Use Repo.WithCacheDir to change it.
//
// The endpoint defaults to ${HF_ENDPOINT}, or "https://huggingface.co" if not set, and the
// authentication token to ${HF_TOKEN}.
func New(id string) *Repo {
	hfEndpoint := strings.TrimSuffix(getEnvOr("HF_ENDPOINT", "https://huggingface.co"), "/")
	return &Repo{
		ID:                  id,
		repoType:            RepoTypeModel,
		revision:            "main",
		hfEndpoint:          hfEndpoint,
		authToken:           os.Getenv("HF_TOKEN"),
		cacheDir:            DefaultCacheDir(),
		MaxParallelDownload: 20,
	}
}

// WithAuth sets the authentication token to use during downloads.
//
// Setting it to empty ("") is the same as resetting and not using authentication.
func (r *Repo) WithAuth(authToken string) *Repo {
	r.authToken = authToken
	return r
}

// WithType sets the repository type to use during downloads.
func (r *Repo) WithType(repoType RepoType) *Repo {
	r.repoType = repoType
	return r
}

// WithEndpoint sets the HuggingFace endpoint to use.
func (r *Repo) WithEndpoint(endpoint string) *Repo {
	r.hfEndpoint = strings.TrimSuffix(endpoint, "/")
	return r
}

// WithRevision sets the revision to use for this Repo, defaults to "main", but can be set to a commit-hash value.
func (r *Repo) WithRevision(revision string) *Repo {
	r.revision = revision
	return r
}

// WithCacheDir sets the cacheDir to the given directory. A leading "~" is replaced by the home directory.
func (r *Repo) WithCacheDir(cacheDir string) *Repo {
	newCacheDir, err := files.ReplaceTildeInDir(cacheDir)
	if err != nil {
		klog.Warningf("Failed to resolve directory for %q, keeping %q: %+v", cacheDir, r.cacheDir, err)
		return r
	}
	r.cacheDir = path.Clean(newCacheDir)
	return r
}

// WithDownloadManager sets the downloader.Manager to use for download.
// One is created automatically if none is set: sharing one coordinates limits across Repos.
func (r *Repo) WithDownloadManager(manager *downloader.Manager) *Repo {
	r.downloadManager = manager
	return r
}

// flatFolderName returns a serialized version of a hf.co repo name and type, safe for disk storage
// as a single non-nested folder. E.g.: "models--Systran--faster-whisper-small".
func (r *Repo) flatFolderName() string {
	parts := []string{string(r.repoType)}
	parts = append(parts, strings.Split(r.ID, "/")...)
	return strings.Join(parts, RepoIDSeparator)
}

// repoCacheDir returns the cache subdirectory for the repository, creating it if needed.
func (r *Repo) repoCacheDir() (string, error) {
	dir := path.Join(r.cacheDir, r.flatFolderName())
	if err := os.MkdirAll(dir, DefaultDirCreationPerm); err != nil {
		return "", errors.Wrapf(err, "while creating cache directory %q", dir)
	}
	return dir, nil
}

// FileURL returns the URL from which to download the file from HuggingFace.
func (r *Repo) FileURL(fileName string) (string, error) {
	if err := r.DownloadInfo(false); err != nil {
		return "", err
	}
	commitHash := r.info.CommitHash
	if r.repoType == RepoTypeModel {
		return fmt.Sprintf("%s/%s/resolve/%s/%s", r.hfEndpoint, r.ID, commitHash, fileName), nil
	}
	return fmt.Sprintf("%s/%s/%s/resolve/%s/%s", r.hfEndpoint, r.repoType, r.ID, commitHash, fileName), nil
}

// String implements fmt.Stringer.
func (r *Repo) String() string {
	return r.ID
}
