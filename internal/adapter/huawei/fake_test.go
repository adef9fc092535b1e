package huawei

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeDrive emulates the Drive Kit endpoints the client uses. Like some real
// deployments it ignores the mimeType part of search queries, so client-side
// filtering is always exercised.
type fakeDrive struct {
	t *testing.T

	clientID     string
	clientSecret string
	accessToken  string

	folders []DriveFile
	files   []DriveFile

	// scopedStatus, when non-zero, is returned for parentId searches.
	scopedStatus int
	// pageSize splits the unscoped listing into cursor pages.
	pageSize int
	// linkStatus, when non-zero, is returned for link requests.
	linkStatus int

	calls      atomic.Int32
	tokenCalls atomic.Int32
	linkCalls  atomic.Int32

	mu      sync.Mutex
	queries []string
}

func newFakeDrive(t *testing.T) *fakeDrive {
	return &fakeDrive{
		t:            t,
		clientID:     "test-client-id",
		clientSecret: "test-client-secret",
		accessToken:  "tok-1",
	}
}

func (f *fakeDrive) start() *httptest.Server {
	ts := httptest.NewServer(http.HandlerFunc(f.serve))
	f.t.Cleanup(ts.Close)
	return ts
}

func (f *fakeDrive) client(ts *httptest.Server, cfg Config) *Client {
	if cfg.ClientID == "" && cfg.ClientSecret == "" {
		cfg.ClientID = f.clientID
		cfg.ClientSecret = f.clientSecret
	}
	cfg.TokenURL = ts.URL + "/oauth2/v3/token"
	cfg.APIBase = ts.URL + "/drive/v1"
	cfg.HTTPClient = ts.Client()
	return NewClient(cfg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *fakeDrive) serve(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	path := r.URL.Path

	switch {
	case path == "/oauth2/v3/token":
		f.tokenCalls.Add(1)
		r.ParseForm()
		if r.Form.Get("grant_type") != "client_credentials" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
			return
		}
		if r.Form.Get("client_id") != f.clientID || r.Form.Get("client_secret") != f.clientSecret {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": f.accessToken,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+f.accessToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad token"})
		return
	}

	switch {
	case path == "/drive/v1/files:search" && r.Method == http.MethodPost:
		var req searchRequest
		json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.queries = append(f.queries, req.Query)
		f.mu.Unlock()

		switch {
		case strings.HasPrefix(req.Query, "name ="):
			writeJSON(w, http.StatusOK, fileList{Files: f.folders})
		case strings.HasPrefix(req.Query, "parentId ="):
			if f.scopedStatus != 0 {
				writeJSON(w, f.scopedStatus, map[string]string{"error": "unsupported query"})
				return
			}
			var out []DriveFile
			for _, file := range f.files {
				if strings.Contains(req.Query, "'"+file.ParentID+"'") {
					out = append(out, file)
				}
			}
			writeJSON(w, http.StatusOK, fileList{Files: out})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad query"})
		}

	case path == "/drive/v1/files" && r.Method == http.MethodGet:
		all := append(append([]DriveFile{}, f.folders...), f.files...)
		if f.pageSize <= 0 {
			writeJSON(w, http.StatusOK, fileList{Files: all})
			return
		}
		start := 0
		if c := r.URL.Query().Get("cursor"); c != "" {
			json.Unmarshal([]byte(c), &start)
		}
		end := start + f.pageSize
		next := ""
		if end < len(all) {
			b, _ := json.Marshal(end)
			next = string(b)
		} else {
			end = len(all)
		}
		writeJSON(w, http.StatusOK, fileList{Files: all[start:end], NextCursor: next})

	case strings.HasSuffix(path, "/link") && r.Method == http.MethodPost:
		f.linkCalls.Add(1)
		if f.linkStatus != 0 {
			writeJSON(w, f.linkStatus, map[string]string{"error": "link unavailable"})
			return
		}
		var req linkRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.ExpireSec != linkExpireSec {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad expireSec"})
			return
		}
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/drive/v1/files/"), "/link")
		writeJSON(w, http.StatusOK, linkResponse{DownloadLink: "https://cdn.example.com/tmp/" + id})

	case strings.HasPrefix(path, "/drive/v1/files/") && r.URL.Query().Get("form") == "content":
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes:" + strings.TrimPrefix(path, "/drive/v1/files/")))

	default:
		http.NotFound(w, r)
	}
}

// albumFixture is one album folder with two images and one
// non-image, plus an image in another folder and a look-alike folder.
func albumFixture(f *fakeDrive) {
	f.folders = []DriveFile{
		{ID: "folder-other", Name: "宝宝相册2", MIMEType: FolderMIMEType},
		{ID: "folder-1", Name: DefaultAlbumName, MIMEType: FolderMIMEType},
		{ID: "folder-dup", Name: DefaultAlbumName, MIMEType: FolderMIMEType},
	}
	f.files = []DriveFile{
		{ID: "img-1", Name: "first.jpg", MIMEType: "image/jpeg", Size: 1024, ModifiedTime: "2024-05-01T10:00:00Z", ParentID: "folder-1"},
		{ID: "doc-1", Name: "notes.txt", MIMEType: "text/plain", Size: 12, ParentID: "folder-1"},
		{ID: "img-2", Name: "second.png", MIMEType: "image/png", Size: 2048, ModifiedTime: "2024-05-02T10:00:00Z", ParentID: "folder-1"},
		{ID: "img-x", Name: "elsewhere.jpg", MIMEType: "image/jpeg", ParentID: "folder-other"},
	}
}
