// Package hubtest serves fake HuggingFace Hub repositories for tests.
package hubtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// CommitHash is the revision hash of every repository served by NewServer.
const CommitHash = "0123456789abcdef"

// NewServer serves the info and the files of the model repository repoID (e.g. "openai/whisper-test").
// It returns the server, closed at the end of the test, and a counter of file requests.
func NewServer(t testing.TB, repoID string, fileContents map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var fileRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/models/"+repoID+"/revision/main", func(w http.ResponseWriter, r *http.Request) {
		type sibling struct {
			Name string `json:"rfilename"`
		}
		info := struct {
			ID       string    `json:"id"`
			SHA      string    `json:"sha"`
			Siblings []sibling `json:"siblings"`
		}{ID: repoID, SHA: CommitHash}
		for name := range fileContents {
			info.Siblings = append(info.Siblings, sibling{Name: name})
		}
		_ = json.NewEncoder(w).Encode(info)
	})
	for name, content := range fileContents {
		mux.HandleFunc("/"+repoID+"/resolve/"+CommitHash+"/"+name, func(w http.ResponseWriter, r *http.Request) {
			fileRequests.Add(1)
			_, _ = w.Write([]byte(content))
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &fileRequests
}
