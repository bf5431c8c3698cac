package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"slices"

	"github.com/gomlx/go-whisper/internal/files"
	"github.com/pkg/errors"
)

// RepoInfo holds information about a HuggingFace repo, it is the json served when hitting the URL
// https://huggingface.co/api/<repo_type>/<model_id>/revision/<revision>
//
// Only the fields used by the library are parsed.
type RepoInfo struct {
	ID         string      `json:"id"`
	Author     string      `json:"author"`
	CommitHash string      `json:"sha"`
	Tags       []string    `json:"tags"`
	Siblings   []*FileInfo `json:"siblings"`
}

// FileInfo represents one of the repository files, in the RepoInfo structure.
type FileInfo struct {
	Name string `json:"rfilename"`
}

// infoURL for the API that returns the info about a repository.
func (r *Repo) infoURL() string {
	return fmt.Sprintf("%s/api/%s/%s/revision/%s", r.hfEndpoint, r.repoType, r.ID, r.revision)
}

// Info returns the RepoInfo, downloading it if needed.
func (r *Repo) Info() (*RepoInfo, error) {
	if err := r.DownloadInfo(false); err != nil {
		return nil, err
	}
	return r.info, nil
}

// DownloadInfo about the repository, if it hasn't yet.
//
// It will attempt to use the info file in the cache directory first.
// If forceDownload is set to true, it ignores the current info or the cached one, and downloads it again.
func (r *Repo) DownloadInfo(forceDownload bool) error {
	if r.info != nil && !forceDownload {
		return nil
	}
	infoDir, err := r.repoCacheDir()
	if err != nil {
		return err
	}
	infoFilePath := path.Join(infoDir, "info", r.revision)
	if !files.Exists(infoFilePath) || forceDownload {
		err := r.lockedDownload(context.Background(), r.infoURL(), infoFilePath, forceDownload, nil)
		if err != nil {
			return errors.WithMessagef(err, "failed to download repository info for %q", r.ID)
		}
	}

	infoJSON, err := os.ReadFile(infoFilePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read info for repository from disk in %q -- remove the file if you want to have it re-downloaded",
			infoFilePath)
	}
	newInfo := &RepoInfo{}
	if err = json.Unmarshal(infoJSON, newInfo); err != nil {
		return errors.Wrapf(err, "failed to parse info for repository in %q (downloaded from %q)",
			infoFilePath, r.infoURL())
	}
	r.info = newInfo
	return nil
}

// HasFile returns whether the repository has the given file.
// It returns false if the repository info can't be downloaded.
func (r *Repo) HasFile(fileName string) bool {
	info, err := r.Info()
	if err != nil {
		return false
	}
	return slices.ContainsFunc(info.Siblings, func(fi *FileInfo) bool { return fi.Name == fileName })
}
