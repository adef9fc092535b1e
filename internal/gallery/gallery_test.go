package gallery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jun/babymemories/internal/adapter"
	"github.com/jun/babymemories/internal/model"
	"github.com/jun/babymemories/internal/store"
)

type fakeSource struct {
	photos []model.Photo
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (f *fakeSource) ListAlbumPhotos(ctx context.Context, albumName string) ([]model.Photo, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.photos, nil
}

func remotePhotos() []model.Photo {
	return []model.Photo{
		{ID: "r-1", URL: "https://cdn/r-1", Title: "a.jpg", MIMEType: "image/jpeg"},
		{ID: "r-2", URL: "https://cdn/r-2", Title: "b.png", MIMEType: "image/png"},
	}
}

func TestLoad_Ready(t *testing.T) {
	src := &fakeSource{photos: remotePhotos()}
	s := NewService(src, "宝宝相册", store.NewMemoryBackend())

	view, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if view.State != StateReady || view.Error != "" {
		t.Errorf("Expected ready without error, got %q %q", view.State, view.Error)
	}
	if len(view.Items) != 2+len(DefaultPhotos()) {
		t.Fatalf("Expected remote plus seed items, got %d", len(view.Items))
	}
	for i, item := range view.Items[:2] {
		if item.Kind != model.KindRemote || item.Likes != 0 || len(item.Comments) != 0 {
			t.Errorf("Item %d: unexpected remote item %+v", i, item)
		}
	}
	if view.Items[2].Kind != model.KindLocal || view.Items[2].Title != "示例照片1" || view.Items[2].Likes != 128 {
		t.Errorf("Unexpected first local item %+v", view.Items[2])
	}
}

func TestLoad_RemoteFailureKeepsLocal(t *testing.T) {
	src := &fakeSource{err: &adapter.NotFoundError{Folder: "宝宝相册"}}
	s := NewService(src, "宝宝相册", store.NewMemoryBackend())

	view, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if view.State != StateError || view.Error == "" {
		t.Errorf("Expected error state with message, got %+v", view)
	}
	if len(view.Items) != len(DefaultPhotos()) {
		t.Errorf("Expected local items only, got %d", len(view.Items))
	}
}

func TestLoad_Timeout(t *testing.T) {
	src := &fakeSource{photos: remotePhotos(), delay: time.Second}
	s := NewService(src, "宝宝相册", store.NewMemoryBackend()).WithTimeout(20 * time.Millisecond)

	start := time.Now()
	view, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Load took %v, expected the timeout to cut it short", elapsed)
	}
	if view.State != StateError {
		t.Errorf("Expected error state, got %q", view.State)
	}
}

func TestLoad_DoesNotWriteSeed(t *testing.T) {
	backend := store.NewMemoryBackend()
	s := NewService(&fakeSource{}, "宝宝相册", backend)

	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := backend.Get(context.Background(), Key); !errors.Is(err, adapter.ErrNotFound) {
		t.Errorf("Expected nothing stored after Load, got %v", err)
	}
}

func TestAddLocal(t *testing.T) {
	s := NewService(&fakeSource{}, "宝宝相册", store.NewMemoryBackend())
	ctx := context.Background()

	if _, err := s.AddLocal(ctx, "x", "  "); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for blank url, got %v", err)
	}

	photo, err := s.AddLocal(ctx, " new.jpg ", "https://example.com/new.jpg")
	if err != nil {
		t.Fatalf("AddLocal failed: %v", err)
	}
	if photo.ID == "" || photo.Title != "new.jpg" || photo.Likes != 0 || photo.CreatedAt.IsZero() {
		t.Errorf("Unexpected photo %+v", photo)
	}

	view, _ := s.Load(ctx)
	if view.Items[0].ID != photo.ID {
		t.Errorf("Expected new photo first, got %+v", view.Items[0])
	}
	if len(view.Items) != len(DefaultPhotos())+1 {
		t.Errorf("Expected seed plus new photo, got %d", len(view.Items))
	}
}

func TestLikeAndComment_Local(t *testing.T) {
	s := NewService(&fakeSource{}, "宝宝相册", store.NewMemoryBackend())
	ctx := context.Background()

	liked, err := s.Like(ctx, "1")
	if err != nil {
		t.Fatalf("Like failed: %v", err)
	}
	if liked.Likes != 129 {
		t.Errorf("Expected 129 likes, got %d", liked.Likes)
	}

	commented, err := s.Comment(ctx, "1", " 好可爱 ", "")
	if err != nil {
		t.Fatalf("Comment failed: %v", err)
	}
	if len(commented.Comments) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(commented.Comments))
	}
	c := commented.Comments[0]
	if c.Text != "好可爱" || c.Name != DefaultCommentName || c.ID == "" || c.Date == "" {
		t.Errorf("Unexpected comment %+v", c)
	}
	if commented.Likes != 129 {
		t.Errorf("Expected like to persist, got %d", commented.Likes)
	}

	if _, err := s.Comment(ctx, "1", "   ", "妈妈"); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for blank comment, got %v", err)
	}
}

func TestLikeAndComment_RemoteRejected(t *testing.T) {
	backend := store.NewMemoryBackend()
	src := &fakeSource{photos: remotePhotos()}
	s := NewService(src, "宝宝相册", backend)
	ctx := context.Background()

	if _, err := s.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := s.Like(ctx, "r-1"); !errors.Is(err, ErrNotLocal) {
		t.Errorf("Expected ErrNotLocal, got %v", err)
	}
	if _, err := s.Comment(ctx, "r-2", "hi", ""); !errors.Is(err, ErrNotLocal) {
		t.Errorf("Expected ErrNotLocal, got %v", err)
	}
	if src.calls.Load() != 1 {
		t.Errorf("Expected only the Load listing, got %d listings", src.calls.Load())
	}

	// Nothing was written.
	if _, err := backend.Get(ctx, Key); !errors.Is(err, adapter.ErrNotFound) {
		t.Errorf("Expected store untouched, got %v", err)
	}
	view, _ := s.Load(ctx)
	for _, item := range view.Items[:2] {
		if item.Likes != 0 || len(item.Comments) != 0 {
			t.Errorf("Remote item changed: %+v", item)
		}
	}
}

func TestLike_UnknownIDDoesNotList(t *testing.T) {
	src := &fakeSource{photos: remotePhotos()}
	s := NewService(src, "宝宝相册", store.NewMemoryBackend())
	ctx := context.Background()

	for _, id := range []string{"random-1", "random-2", "r-1"} {
		if _, err := s.Like(ctx, id); !errors.Is(err, adapter.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", id, err)
		}
	}
	if _, err := s.Comment(ctx, "random-3", "hi", ""); !errors.Is(err, adapter.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if n := src.calls.Load(); n != 0 {
		t.Errorf("Expected no remote listings, got %d", n)
	}
}

func TestLike_Unknown(t *testing.T) {
	s := NewService(&fakeSource{err: errors.New("offline")}, "宝宝相册", store.NewMemoryBackend())

	if _, err := s.Like(context.Background(), "nope"); !errors.Is(err, adapter.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestNewComment_Date(t *testing.T) {
	c, err := NewComment("hello", "爸爸", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewComment failed: %v", err)
	}
	if c.Date != "2024/3/5" || c.Name != "爸爸" {
		t.Errorf("Unexpected comment %+v", c)
	}
}
