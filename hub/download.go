package hub

import (
	"context"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/gomlx/go-whisper/internal/downloader"
	"github.com/gomlx/go-whisper/internal/files"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// getDownloadManager returns current downloader.Manager, or creates a new one for this Repo.
func (r *Repo) getDownloadManager() *downloader.Manager {
	if r.downloadManager == nil {
		r.downloadManager = downloader.New().
			MaxParallel(r.MaxParallelDownload).
			WithAuthToken(r.authToken).
			WithUserAgent(DefaultHTTPUserAgent())
	}
	return r.downloadManager
}

// DownloadFile downloads the file from the repository (if not yet in the cache), and returns its local path.
// The returned path should be used for reading only, since other programs may share the cache.
func (r *Repo) DownloadFile(fileName string) (string, error) {
	paths, err := r.DownloadFiles(fileName)
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// DownloadFiles downloads the repository files (if not yet in the cache), and returns their local paths, in the
// same order.
func (r *Repo) DownloadFiles(fileNames ...string) ([]string, error) {
	if err := r.DownloadInfo(false); err != nil {
		return nil, err
	}
	cacheDir, err := r.repoCacheDir()
	if err != nil {
		return nil, err
	}
	snapshotDir := path.Join(cacheDir, "snapshots", r.info.CommitHash)

	ctx := context.Background()
	localPaths := make([]string, 0, len(fileNames))
	for _, fileName := range fileNames {
		relPath := cleanRelativeFilePath(fileName)
		if relPath == "." {
			return nil, errors.Errorf("invalid file name %q for repository %q", fileName, r.ID)
		}
		localPath := filepath.Join(snapshotDir, relPath)
		url, err := r.FileURL(fileName)
		if err != nil {
			return nil, err
		}
		klog.V(1).Infof("hub: fetching %q from %q", fileName, r.ID)
		if err := r.lockedDownload(ctx, url, localPath, false, nil); err != nil {
			return nil, errors.WithMessagef(err, "while downloading %q from %q", fileName, r.ID)
		}
		localPaths = append(localPaths, localPath)
	}
	return localPaths, nil
}

// cleanRelativeFilePath makes sure fileName stays within the repository directory once joined to it.
func cleanRelativeFilePath(fileName string) string {
	cleaned := strings.TrimPrefix(path.Clean("/"+fileName), "/")
	if cleaned == "" {
		return "."
	}
	return filepath.FromSlash(cleaned)
}

// lockedDownload url to the given filePath.
//
// If filePath exits and forceDownload is false, it is assumed to already have been correctly downloaded, and it will return immediately.
//
// It downloads the file to filePath+".downloading" and then atomically move it to filePath.
//
// It uses a temporary filePath+".lock" to coordinate multiple processes/programs trying to download the same file at the same time.
func (r *Repo) lockedDownload(ctx context.Context, url, filePath string, forceDownload bool, progressCallback downloader.ProgressCallback) error {
	if files.Exists(filePath) {
		if !forceDownload {
			return nil
		}
		if err := os.Remove(filePath); err != nil {
			return errors.Wrapf(err, "failed to remove %q while force-downloading %q", filePath, url)
		}
	}

	// Checks whether context has already been cancelled, and exit immediately.
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(path.Dir(filePath), DefaultDirCreationPerm); err != nil {
		return errors.Wrapf(err, "failed to create directory for file %q", filePath)
	}

	// Lock file to avoid parallel downloads.
	lockPath := filePath + ".lock"
	var mainErr error
	errLock := execOnFileLock(lockPath, func() {
		if files.Exists(filePath) {
			// Some concurrent other process (or goroutine) already downloaded the file.
			return
		}

		tmpPath := filePath + ".downloading"
		mainErr = r.getDownloadManager().Download(ctx, url, tmpPath, progressCallback)
		if mainErr != nil {
			if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
				klog.Warningf("Failed removing temporary file %q: %v", tmpPath, err)
			}
			mainErr = errors.WithMessagef(mainErr, "while downloading %q to %q", url, tmpPath)
			return
		}
		if err := os.Rename(tmpPath, filePath); err != nil {
			mainErr = errors.Wrapf(err, "failed to move downloaded file %q to %q", tmpPath, filePath)
			return
		}

		// File already exists, so we no longer need the lock file.
		if err := os.Remove(lockPath); err != nil {
			klog.Warningf("Error removing lock file %q: %+v", lockPath, err)
		}
	})
	if mainErr != nil {
		return mainErr
	}
	if errLock != nil {
		return errors.WithMessagef(errLock, "while locking %q to download %q", lockPath, url)
	}
	return nil
}

// execOnFileLock opens the lockPath file (or creates if it doesn't yet exist), locks it, and executes the function.
// If the lockPath is already locked, it polls with a 1 to 2 seconds period (randomly), until it acquires the lock.
//
// The lockPath is not removed. It's safe to remove it from the given fn, if one knows that no new calls to
// execOnFileLock with the same lockPath is going to be made.
func execOnFileLock(lockPath string, fn func()) (err error) {
	fileLock := flock.New(lockPath)
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", lockPath)
		}
		if locked {
			break
		}
		// Wait from 1 to 2 seconds.
		time.Sleep(time.Millisecond * time.Duration(1000+rand.Intn(1000)))
	}

	// Unlock in a deferred function, so it happens even if `fn()` panics.
	defer func() {
		unlockErr := fileLock.Unlock()
		if unlockErr == nil {
			return
		}
		if err == nil {
			err = errors.Wrapf(unlockErr, "unlocking file %q", lockPath)
		} else {
			klog.Errorf("Error unlocking file %q: %v", lockPath, unlockErr)
		}
	}()

	fn()
	return
}
