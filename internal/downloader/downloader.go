// Package downloader implements a download manager that limits the number of parallel downloads
// and reports progress.
package downloader

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ProgressCallback is called as a download progresses, with the number of bytes downloaded so far
// and the total size of the file (or -1 if unknown).
type ProgressCallback func(downloaded, total int64)

// Manager handles downloads, limiting the number of simultaneous ones.
// It is safe for concurrent use, and can be shared among different repositories.
type Manager struct {
	semaphore *Semaphore
	client    *http.Client
	authToken string
	userAgent string
}

// New creates a Manager with at most 20 parallel downloads.
func New() *Manager {
	return &Manager{
		semaphore: NewSemaphore(20),
		client:    http.DefaultClient,
	}
}

// MaxParallel sets the maximum number of parallel downloads. If <= 0, there are no limits.
func (m *Manager) MaxParallel(n int) *Manager {
	m.semaphore.Resize(n)
	return m
}

// WithAuthToken sets the bearer token sent with every request. Empty disables authentication.
func (m *Manager) WithAuthToken(authToken string) *Manager {
	m.authToken = authToken
	return m
}

// WithUserAgent sets the "User-Agent" header sent with every request.
func (m *Manager) WithUserAgent(userAgent string) *Manager {
	m.userAgent = userAgent
	return m
}

// WithHTTPClient sets the client used for requests, by default http.DefaultClient.
func (m *Manager) WithHTTPClient(client *http.Client) *Manager {
	m.client = client
	return m
}

// Download url contents to filePath, truncating it if it exists.
//
// It blocks while the maximum number of parallel downloads is reached, or until ctx is done.
// progressCallback may be nil.
func (m *Manager) Download(ctx context.Context, url, filePath string, progressCallback ProgressCallback) error {
	if err := m.semaphore.AcquireContext(ctx); err != nil {
		return err
	}
	defer m.semaphore.Release()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "failed creating request for %q", url)
	}
	if m.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.authToken)
	}
	if m.userAgent != "" {
		req.Header.Set("User-Agent", m.userAgent)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed request to download %q", url)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("download of %q failed with status %s: %q", url, resp.Status, body)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", filePath)
	}
	var r io.Reader = resp.Body
	if progressCallback != nil {
		r = &progressReader{reader: r, total: resp.ContentLength, callback: progressCallback}
		progressCallback(0, resp.ContentLength)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed downloading %q to %q", url, filePath)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %q", filePath)
	}
	klog.V(2).Infof("downloaded %q (%s) to %q", url, humanize.IBytes(uint64(n)), filePath)
	return nil
}

type progressReader struct {
	reader     io.Reader
	downloaded int64
	total      int64
	callback   ProgressCallback
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		pr.callback(pr.downloaded, pr.total)
	}
	return n, err
}
