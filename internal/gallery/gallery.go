// Package gallery merges the remote album with locally added photos.
//
// Remote photos are read-only. Likes and comments exist only on local
// photos, which live in the keyed store under Key.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jun/babymemories/internal/adapter"
	"github.com/jun/babymemories/internal/model"
	"github.com/jun/babymemories/internal/store"
)

// Key is the store key of the local photos.
const Key = "photos"

// DefaultLoadTimeout bounds a remote listing.
const DefaultLoadTimeout = 10 * time.Second

// DefaultCommentName is used for comments posted without a name.
const DefaultCommentName = "访客"

// State is the gallery load state.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

var (
	// ErrNotLocal is returned when a like or comment targets a remote photo.
	ErrNotLocal = errors.New("remote photos cannot be liked or commented")

	// ErrInvalid is returned for rejected input.
	ErrInvalid = errors.New("invalid input")
)

// View is the merged gallery. Error is advisory: the local items are still
// listed when the remote listing failed.
type View struct {
	State State               `json:"state"`
	Error string              `json:"error,omitempty"`
	Items []model.GalleryItem `json:"items"`
}

// Service serves the gallery.
type Service struct {
	source  adapter.PhotoSource
	album   string
	photos  *store.Typed[[]model.LocalPhoto]
	timeout time.Duration
	now     func() time.Time

	mu        sync.RWMutex
	remoteIDs map[string]bool
}

// NewService creates a Service listing album from source.
func NewService(source adapter.PhotoSource, album string, backend store.Backend) *Service {
	return &Service{
		source:    source,
		album:     album,
		photos:    store.NewTyped[[]model.LocalPhoto](backend),
		timeout:   DefaultLoadTimeout,
		now:       time.Now,
		remoteIDs: map[string]bool{},
	}
}

// WithTimeout sets the remote listing timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Load returns remote items followed by local items. A failing remote
// listing yields StateError with the local items only; a failing store is
// returned as an error.
func (s *Service) Load(ctx context.Context) (View, error) {
	local, err := s.photos.Load(ctx, Key, DefaultPhotos)
	if err != nil {
		return View{}, fmt.Errorf("failed to load local photos: %w", err)
	}

	remote, err := s.listRemote(ctx)
	if err != nil {
		slog.Warn("Remote gallery unavailable", "album", s.album, "error", err)
		return View{State: StateError, Error: err.Error(), Items: localItems(local)}, nil
	}

	items := make([]model.GalleryItem, 0, len(remote)+len(local))
	for _, p := range remote {
		items = append(items, model.RemoteItem(p))
	}
	items = append(items, localItems(local)...)
	return View{State: StateReady, Items: items}, nil
}

func (s *Service) listRemote(ctx context.Context) ([]model.Photo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	photos, err := s.source.ListAlbumPhotos(ctx, s.album)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(photos))
	for _, p := range photos {
		ids[p.ID] = true
	}
	s.mu.Lock()
	s.remoteIDs = ids
	s.mu.Unlock()
	return photos, nil
}

func localItems(photos []model.LocalPhoto) []model.GalleryItem {
	items := make([]model.GalleryItem, 0, len(photos))
	for _, p := range photos {
		items = append(items, model.LocalItem(p))
	}
	return items
}

// AddLocal stores a new local photo in front of the existing ones.
func (s *Service) AddLocal(ctx context.Context, title, url string) (model.LocalPhoto, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return model.LocalPhoto{}, fmt.Errorf("%w: url is required", ErrInvalid)
	}
	photo := model.LocalPhoto{
		ID:        uuid.New().String(),
		URL:       url,
		Title:     strings.TrimSpace(title),
		Comments:  []model.Comment{},
		CreatedAt: s.now().UTC(),
	}
	_, err := s.photos.Update(ctx, Key, DefaultPhotos, func(photos *[]model.LocalPhoto) error {
		*photos = append([]model.LocalPhoto{photo}, *photos...)
		return nil
	})
	if err != nil {
		return model.LocalPhoto{}, err
	}
	return photo, nil
}

// Like increments the like count of a local photo.
func (s *Service) Like(ctx context.Context, id string) (model.LocalPhoto, error) {
	return s.mutate(ctx, id, func(p *model.LocalPhoto) error {
		p.Likes++
		return nil
	})
}

// Comment appends a comment to a local photo. A blank name becomes
// DefaultCommentName.
func (s *Service) Comment(ctx context.Context, id, text, name string) (model.LocalPhoto, error) {
	comment, err := NewComment(text, name, s.now())
	if err != nil {
		return model.LocalPhoto{}, err
	}
	return s.mutate(ctx, id, func(p *model.LocalPhoto) error {
		p.Comments = append(p.Comments, comment)
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id string, apply func(*model.LocalPhoto) error) (model.LocalPhoto, error) {
	var result model.LocalPhoto
	_, err := s.photos.Update(ctx, Key, DefaultPhotos, func(photos *[]model.LocalPhoto) error {
		for i := range *photos {
			if (*photos)[i].ID == id {
				if err := apply(&(*photos)[i]); err != nil {
					return err
				}
				result = (*photos)[i]
				return nil
			}
		}
		return adapter.ErrNotFound
	})
	if errors.Is(err, adapter.ErrNotFound) && s.isRemote(id) {
		return model.LocalPhoto{}, ErrNotLocal
	}
	if err != nil {
		return model.LocalPhoto{}, err
	}
	return result, nil
}

// isRemote reports whether id was listed by the last remote listing. It
// never lists itself, so a like on an arbitrary id costs no provider calls.
func (s *Service) isRemote(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remoteIDs[id]
}

// NewComment builds a comment dated at now.
func NewComment(text, name string, now time.Time) (model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Comment{}, fmt.Errorf("%w: comment text is required", ErrInvalid)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultCommentName
	}
	return model.Comment{
		ID:   uuid.New().String(),
		Text: text,
		Name: name,
		Date: now.Format("2006/1/2"),
	}, nil
}

// DefaultPhotos is the seed used before anything was stored.
func DefaultPhotos() []model.LocalPhoto {
	seed := []struct {
		url   string
		likes int
	}{
		{"https://picsum.photos/id/237/800/600", 128},
		{"https://picsum.photos/id/238/800/1000", 96},
		{"https://picsum.photos/id/239/800/500", 156},
		{"https://picsum.photos/id/240/800/800", 89},
	}
	photos := make([]model.LocalPhoto, 0, len(seed))
	for i, p := range seed {
		photos = append(photos, model.LocalPhoto{
			ID:       fmt.Sprintf("%d", i+1),
			URL:      p.url,
			Title:    fmt.Sprintf("示例照片%d", i+1),
			Likes:    p.likes,
			Comments: []model.Comment{},
		})
	}
	return photos
}
