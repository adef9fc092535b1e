// Package memory provides an in-process photo album for development mode and
// tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jun/babymemories/internal/adapter"
	"github.com/jun/babymemories/internal/model"
)

const (
	maxDemoContentSize = 256 * 1024 // 256KB
	maxDemoTitleLength = 255
	maxDemoItemCount   = 50
)

type entry struct {
	photo   model.Photo
	content []byte
}

// Album implements adapter.PhotoSource and adapter.ContentSource over a map
// of album name to photos. Albums exist once they are created, even empty.
type Album struct {
	mu     sync.RWMutex
	albums map[string][]entry
	signer adapter.URLSigner
}

// NewAlbum creates an empty Album. signer, when set, builds URLs for photos
// added without one.
func NewAlbum(signer adapter.URLSigner) *Album {
	return &Album{albums: make(map[string][]entry), signer: signer}
}

// NewDemoAlbum creates an Album named albumName holding a few placeholder
// photos served from picsum.photos.
func NewDemoAlbum(albumName string, signer adapter.URLSigner) *Album {
	a := NewAlbum(signer)
	a.CreateAlbum(albumName)
	for i, id := range []int{1015, 1025, 1035} {
		a.Add(albumName, model.Photo{
			ID:           fmt.Sprintf("demo-%d", i+1),
			URL:          fmt.Sprintf("https://picsum.photos/id/%d/800/600", id),
			Title:        fmt.Sprintf("demo-%d.jpg", i+1),
			MIMEType:     "image/jpeg",
			ModifiedTime: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		}, nil)
	}
	return a
}

// CreateAlbum creates an empty album if none exists under name.
func (a *Album) CreateAlbum(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.albums[name]; !ok {
		a.albums[name] = []entry{}
	}
}

// Add appends a photo to albumName, creating the album if needed. A missing
// id is generated. Content is optional and served by OpenContent.
func (a *Album) Add(albumName string, p model.Photo, content []byte) (model.Photo, error) {
	if len(content) > maxDemoContentSize {
		return model.Photo{}, fmt.Errorf("content size exceeds limit of %d bytes", maxDemoContentSize)
	}
	if len(p.Title) > maxDemoTitleLength {
		return model.Photo{}, fmt.Errorf("title length exceeds limit of %d characters", maxDemoTitleLength)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.MIMEType == "" && len(content) > 0 {
		p.MIMEType = http.DetectContentType(content)
	}
	if content != nil {
		p.Size = int64(len(content))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.albums[albumName]) >= maxDemoItemCount {
		return model.Photo{}, fmt.Errorf("item count limit reached (%d)", maxDemoItemCount)
	}
	a.albums[albumName] = append(a.albums[albumName], entry{photo: p, content: content})
	return p, nil
}

// ListAlbumPhotos returns the image entries of albumName in insertion order.
func (a *Album) ListAlbumPhotos(ctx context.Context, albumName string) ([]model.Photo, error) {
	a.mu.RLock()
	entries, ok := a.albums[albumName]
	a.mu.RUnlock()
	if !ok {
		return nil, &adapter.NotFoundError{Folder: albumName}
	}

	photos := []model.Photo{}
	for _, e := range entries {
		if !isImage(e.photo.MIMEType) {
			continue
		}
		p := e.photo
		if p.URL == "" && a.signer != nil {
			link, err := a.signer.SignedURL(p.ID)
			if err != nil {
				return nil, err
			}
			p.URL = link
		}
		photos = append(photos, p)
	}
	return photos, nil
}

// OpenContent returns the stored bytes of fileID.
func (a *Album) OpenContent(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, entries := range a.albums {
		for _, e := range entries {
			if e.photo.ID == fileID && e.content != nil {
				return io.NopCloser(bytes.NewReader(e.content)), e.photo.MIMEType, nil
			}
		}
	}
	return nil, "", adapter.ErrNotFound
}

func isImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}
