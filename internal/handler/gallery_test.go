package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jun/babymemories/internal/gallery"
	"github.com/jun/babymemories/internal/handler"
	"github.com/jun/babymemories/internal/model"
	"github.com/jun/babymemories/internal/store"
)

func newGalleryHandler(src *fakeSource) *handler.GalleryHandler {
	return handler.NewGalleryHandler(gallery.NewService(src, "宝宝相册", store.NewMemoryBackend()))
}

func TestGalleryHandler_Get(t *testing.T) {
	h := newGalleryHandler(&fakeSource{photos: []model.Photo{{ID: "r-1", URL: "u", Title: "a.jpg"}}})

	resp, err := h.GetGallery(context.Background(), makeRequest("GET", "/api/gallery", ""))
	if err != nil {
		t.Fatalf("GetGallery returned error: %v", err)
	}
	view := decode[gallery.View](t, resp)
	if view.State != gallery.StateReady || view.Items[0].Kind != model.KindRemote {
		t.Errorf("Unexpected view %+v", view)
	}
}

func TestGalleryHandler_AddLikeComment(t *testing.T) {
	h := newGalleryHandler(&fakeSource{photos: []model.Photo{{ID: "r-1", URL: "u"}}})
	ctx := context.Background()

	resp, _ := h.AddPhoto(ctx, makeRequest("POST", "/api/gallery/photos", `{"title":"new.jpg","url":"https://example.com/new.jpg"}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, resp.Body)
	}
	created := decode[model.LocalPhoto](t, resp)

	req := makeRequest("POST", "/api/gallery/photos/"+created.ID+"/like", "")
	req.PathParameters["id"] = created.ID
	resp, _ = h.LikePhoto(ctx, req)
	if resp.StatusCode != http.StatusOK || decode[model.LocalPhoto](t, resp).Likes != 1 {
		t.Errorf("Like: got %d %s", resp.StatusCode, resp.Body)
	}

	req = makeRequest("POST", "/api/gallery/photos/"+created.ID+"/comments", `{"text":"好看"}`)
	req.PathParameters["id"] = created.ID
	resp, _ = h.CommentPhoto(ctx, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Comment: got %d %s", resp.StatusCode, resp.Body)
	}
	if c := decode[model.LocalPhoto](t, resp).Comments; len(c) != 1 || c[0].Name != gallery.DefaultCommentName {
		t.Errorf("Unexpected comments %+v", c)
	}
}

func TestGalleryHandler_Errors(t *testing.T) {
	h := newGalleryHandler(&fakeSource{photos: []model.Photo{{ID: "r-1", URL: "u"}}})
	ctx := context.Background()
	// Remote ids are known from the last gallery listing.
	if resp, _ := h.GetGallery(ctx, makeRequest("GET", "/api/gallery", "")); resp.StatusCode != http.StatusOK {
		t.Fatalf("GetGallery failed: %d", resp.StatusCode)
	}

	tests := []struct {
		name   string
		call   func() (int, string)
		status int
	}{
		{"bad body", func() (int, string) {
			resp, _ := h.AddPhoto(ctx, makeRequest("POST", "/api/gallery/photos", `{`))
			return resp.StatusCode, resp.Body
		}, http.StatusBadRequest},
		{"missing url", func() (int, string) {
			resp, _ := h.AddPhoto(ctx, makeRequest("POST", "/api/gallery/photos", `{"title":"x"}`))
			return resp.StatusCode, resp.Body
		}, http.StatusBadRequest},
		{"like remote", func() (int, string) {
			req := makeRequest("POST", "/api/gallery/photos/r-1/like", "")
			req.PathParameters["id"] = "r-1"
			resp, _ := h.LikePhoto(ctx, req)
			return resp.StatusCode, resp.Body
		}, http.StatusConflict},
		{"like unknown", func() (int, string) {
			req := makeRequest("POST", "/api/gallery/photos/zzz/like", "")
			req.PathParameters["id"] = "zzz"
			resp, _ := h.LikePhoto(ctx, req)
			return resp.StatusCode, resp.Body
		}, http.StatusNotFound},
		{"blank comment", func() (int, string) {
			req := makeRequest("POST", "/api/gallery/photos/1/comments", `{"text":"  "}`)
			req.PathParameters["id"] = "1"
			resp, _ := h.CommentPhoto(ctx, req)
			return resp.StatusCode, resp.Body
		}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, body := tt.call(); status != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, status, body)
			}
		})
	}
}
