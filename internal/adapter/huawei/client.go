// Package huawei lists album photos from Huawei Drive Kit.
//
// A listing runs four steps per request: a client-credentials token exchange,
// resolving the album folder by name, listing the image files inside it, and
// building a download URL for each image.
package huawei

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jun/babymemories/internal/adapter"
	"github.com/jun/babymemories/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultTokenURL  = "https://oauth-login.cloud.huawei.com/oauth2/v3/token"
	DefaultAPIBase   = "https://openapi.cloud.huawei.com/drive/v1"
	DriveScope       = "https://www.huawei.com/auth/drive.file"
	FolderMIMEType   = "application/vnd.huawei-cloud-drive.folder"
	DefaultAlbumName = "宝宝相册"

	defaultConcurrency = 8
	linkExpireSec      = 3600
	maxPages           = 50
	maxErrorBody       = 4 << 10
	searchFields       = "files(id,name,mimeType,size,modifiedTime,parentId,parentFolder,downloadUrl),nextCursor"
)

// URLMode selects how image download URLs are built.
type URLMode string

const (
	// URLModeToken embeds the access token in a content URL when the provider
	// supplied no link. The URL is a bearer credential for the token's lifetime.
	URLModeToken URLMode = "token"
	// URLModeLink asks the provider for a temporary link per file.
	URLModeLink URLMode = "link"
	// URLModeProxy hands out a signed ticket URL served by this service.
	URLModeProxy URLMode = "proxy"
)

// TokenCache keeps access tokens between requests.
type TokenCache interface {
	Get(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, token *oauth2.Token) error
}

// Config configures a Client. Zero values fall back to the public endpoints
// and defaults.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIBase      string
	HTTPClient   *http.Client

	URLMode URLMode
	Signer  adapter.URLSigner // required for URLModeProxy

	// Concurrency caps in-flight URL resolutions. RatePerSecond, when
	// positive, additionally throttles them.
	Concurrency   int
	RatePerSecond float64

	// Cache is optional. Without it every listing exchanges credentials.
	Cache TokenCache
}

// Client talks to Drive Kit. It is safe for concurrent use and keeps no
// per-request state.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	apiBase      string
	httpClient   *http.Client
	urlMode      URLMode
	signer       adapter.URLSigner
	concurrency  int
	limiter      *rate.Limiter
	cache        TokenCache
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	c := &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		apiBase:      strings.TrimSuffix(cfg.APIBase, "/"),
		httpClient:   cfg.HTTPClient,
		urlMode:      cfg.URLMode,
		signer:       cfg.Signer,
		concurrency:  cfg.Concurrency,
		cache:        cfg.Cache,
	}
	if c.tokenURL == "" {
		c.tokenURL = DefaultTokenURL
	}
	if c.apiBase == "" {
		c.apiBase = DefaultAPIBase
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if c.urlMode == "" {
		c.urlMode = URLModeToken
	}
	if c.concurrency <= 0 {
		c.concurrency = defaultConcurrency
	}
	if cfg.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), c.concurrency)
	} else {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return c
}

// Authenticate exchanges the client credentials for an access token.
// Missing credentials fail with *adapter.ConfigError before any request is
// sent; a rejected exchange fails with *adapter.AuthError.
func (c *Client) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	cc := &clientcredentials.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		TokenURL:     c.tokenURL,
		Scopes:       []string{DriveScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	token, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, c.httpClient))
	if err != nil {
		return nil, classifyTokenError(err)
	}
	return token, nil
}

func (c *Client) checkCredentials() error {
	var missing []string
	if c.clientID == "" {
		missing = append(missing, "HUAWEI_CLIENT_ID")
	}
	if c.clientSecret == "" {
		missing = append(missing, "HUAWEI_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return &adapter.ConfigError{Missing: missing}
	}
	return nil
}

func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &adapter.AuthError{Status: status, Body: string(re.Body)}
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return &adapter.NetworkError{Op: "token exchange", Err: err}
	}
	// A 2xx response the library could not use, e.g. without access_token.
	return &adapter.AuthError{Status: http.StatusOK, Body: err.Error()}
}

// accessToken returns a cached token when caching is enabled and one is
// still valid, otherwise a fresh one.
func (c *Client) accessToken(ctx context.Context) (*oauth2.Token, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}
	if c.cache != nil {
		if token, err := c.cache.Get(ctx); err == nil {
			slog.Debug("Using cached provider token")
			return token, nil
		}
	}

	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Save(ctx, token); err != nil {
			slog.Warn("Failed to cache provider token", "error", err)
		}
	}
	return token, nil
}

// ResolveFolder returns the id of the folder named folderName. When several
// folders share the name, the first one in provider order wins; Drive Kit
// does not document that order.
func (c *Client) ResolveFolder(ctx context.Context, token *oauth2.Token, folderName string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s'", quote(folderName), FolderMIMEType)
	files, err := c.search(ctx, token, "resolve folder", query)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if f.DisplayName() == folderName && f.MIMEType == FolderMIMEType && f.Ident() != "" {
			return f.Ident(), nil
		}
	}
	return "", &adapter.NotFoundError{Folder: folderName}
}

// ListImages lists the image files directly inside folderID. If the provider
// rejects the scoped search, it falls back to listing every file. Either way
// the result is filtered here as well, so a provider that ignores part of the
// query cannot leak non-images or files from other folders.
func (c *Client) ListImages(ctx context.Context, token *oauth2.Token, folderID string) ([]DriveFile, error) {
	query := fmt.Sprintf("parentId = '%s' and mimeType startsWith 'image/'", quote(folderID))
	files, err := c.search(ctx, token, "list images", query)
	scoped := true

	var upstream *adapter.UpstreamError
	if errors.As(err, &upstream) && scopedSearchUnsupported(upstream.Status) {
		slog.Debug("Scoped search rejected, listing all files", "status", upstream.Status)
		files, err = c.listAll(ctx, token)
		scoped = false
	}
	if err != nil {
		return nil, err
	}
	return filterImages(files, folderID, scoped), nil
}

func scopedSearchUnsupported(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return true
	}
	return false
}

// filterImages keeps image entries inside folderID. Entries without parent
// information are trusted only when the listing was already scoped.
func filterImages(files []DriveFile, folderID string, scoped bool) []DriveFile {
	images := []DriveFile{}
	for _, f := range files {
		if !f.IsImage() || f.Ident() == "" {
			continue
		}
		parents := f.Parents()
		if len(parents) == 0 {
			if scoped {
				images = append(images, f)
			}
			continue
		}
		for _, p := range parents {
			if p == folderID {
				images = append(images, f)
				break
			}
		}
	}
	return images
}

// ResolveDownloadURL returns the provider's link verbatim when the listing
// carried one. Otherwise the URL depends on the configured mode.
func (c *Client) ResolveDownloadURL(ctx context.Context, token *oauth2.Token, file DriveFile) (string, error) {
	if file.DownloadURL != "" {
		return file.DownloadURL, nil
	}
	id := file.Ident()

	switch c.urlMode {
	case URLModeLink:
		return c.requestLink(ctx, token, id)
	case URLModeProxy:
		if c.signer == nil {
			return "", fmt.Errorf("proxy url mode requires a signer")
		}
		return c.signer.SignedURL(id)
	default:
		return fmt.Sprintf("%s/files/%s/content?access_token=%s",
			c.apiBase, url.PathEscape(id), url.QueryEscape(token.AccessToken)), nil
	}
}

func (c *Client) requestLink(ctx context.Context, token *oauth2.Token, fileID string) (string, error) {
	var out linkResponse
	path := "/files/" + url.PathEscape(fileID) + "/link"
	err := c.doJSON(ctx, token, "request file link", http.MethodPost, path, nil,
		linkRequest{ExpireSec: linkExpireSec, Auth: false}, &out)
	if err != nil {
		return "", err
	}
	if out.DownloadLink == "" {
		return "", &adapter.UpstreamError{Op: "request file link", Status: http.StatusOK, Body: "empty downloadLink"}
	}
	return out.DownloadLink, nil
}

// ListAlbumPhotos runs the whole pipeline for albumName. Any failing step
// aborts the listing. URL resolution fans out under the concurrency cap and
// the result keeps the listing order.
func (c *Client) ListAlbumPhotos(ctx context.Context, albumName string) ([]model.Photo, error) {
	if albumName == "" {
		albumName = DefaultAlbumName
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("Access token obtained")

	folderID, err := c.ResolveFolder(ctx, token, albumName)
	if err != nil {
		return nil, err
	}
	slog.Debug("Album folder resolved", "album", albumName, "folder_id", folderID)

	files, err := c.ListImages(ctx, token, folderID)
	if err != nil {
		return nil, err
	}
	slog.Debug("Album images listed", "folder_id", folderID, "count", len(files))

	photos := make([]model.Photo, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := c.limiter.Wait(gctx); err != nil {
				return err
			}
			link, err := c.ResolveDownloadURL(gctx, token, f)
			if err != nil {
				return err
			}
			photos[i] = model.Photo{
				ID:           f.Ident(),
				URL:          link,
				Title:        f.DisplayName(),
				MIMEType:     f.MIMEType,
				Size:         int64(f.Size),
				ModifiedTime: f.Modified(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return photos, nil
}

// OpenContent streams the bytes of fileID for the proxy download route.
func (c *Client) OpenContent(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, "", err
	}

	query := url.Values{"form": {"content"}}
	resp, err := c.send(ctx, token, "download content", http.MethodGet, "/files/"+url.PathEscape(fileID), query, nil)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// search runs a files:search query, following cursors.
func (c *Client) search(ctx context.Context, token *oauth2.Token, op, query string) ([]DriveFile, error) {
	var all []DriveFile
	req := searchRequest{Query: query, Fields: searchFields}
	for page := 0; page < maxPages; page++ {
		var out fileList
		if err := c.doJSON(ctx, token, op, http.MethodPost, "/files:search", nil, req, &out); err != nil {
			return nil, err
		}
		all = append(all, out.Files...)
		if out.NextCursor == "" {
			return all, nil
		}
		req.Cursor = out.NextCursor
	}
	slog.Warn("Search stopped at page limit", "op", op, "pages", maxPages)
	return all, nil
}

// listAll lists every file visible to the token, following cursors.
func (c *Client) listAll(ctx context.Context, token *oauth2.Token) ([]DriveFile, error) {
	var all []DriveFile
	query := url.Values{"fields": {"*"}, "pageSize": {"100"}}
	for page := 0; page < maxPages; page++ {
		var out fileList
		if err := c.doJSON(ctx, token, "list files", http.MethodGet, "/files", query, nil, &out); err != nil {
			return nil, err
		}
		all = append(all, out.Files...)
		if out.NextCursor == "" {
			return all, nil
		}
		query.Set("cursor", out.NextCursor)
	}
	slog.Warn("Listing stopped at page limit", "pages", maxPages)
	return all, nil
}

func (c *Client) doJSON(ctx context.Context, token *oauth2.Token, op, method, path string, query url.Values, body, out any) error {
	resp, err := c.send(ctx, token, op, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &adapter.UpstreamError{Op: op, Status: resp.StatusCode, Body: "invalid JSON: " + err.Error()}
	}
	return nil
}

// send performs one authenticated API call. On success the caller owns the
// response body; non-2xx responses become *adapter.UpstreamError.
func (c *Client) send(ctx context.Context, token *oauth2.Token, op, method, path string, query url.Values, body any) (*http.Response, error) {
	endpoint := c.apiBase + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &adapter.NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &adapter.UpstreamError{Op: op, Status: resp.StatusCode, Body: string(detail)}
	}
	return resp, nil
}
