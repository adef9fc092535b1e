package handler

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jun/babymemories/internal/gallery"
)

// GalleryHandler serves the merged gallery.
type GalleryHandler struct {
	svc *gallery.Service
}

// NewGalleryHandler creates a GalleryHandler.
func NewGalleryHandler(svc *gallery.Service) *GalleryHandler {
	return &GalleryHandler{svc: svc}
}

// GetGallery returns the merged view.
func (h *GalleryHandler) GetGallery(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	view, err := h.svc.Load(ctx)
	if err != nil {
		return serviceError(err, "Gallery"), nil
	}
	return jsonResponse(http.StatusOK, view), nil
}

// AddPhoto stores a local photo.
func (h *GalleryHandler) AddPhoto(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var payload struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	if err := decodeBody(req, &payload); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request body"), nil
	}

	photo, err := h.svc.AddLocal(ctx, payload.Title, payload.URL)
	if err != nil {
		return serviceError(err, "Photo"), nil
	}
	return jsonResponse(http.StatusCreated, photo), nil
}

// LikePhoto likes a local photo.
func (h *GalleryHandler) LikePhoto(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	photo, err := h.svc.Like(ctx, req.PathParameters["id"])
	if err != nil {
		return serviceError(err, "Photo"), nil
	}
	return jsonResponse(http.StatusOK, photo), nil
}

// CommentPhoto comments on a local photo.
func (h *GalleryHandler) CommentPhoto(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var payload commentPayload
	if err := decodeBody(req, &payload); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request body"), nil
	}

	photo, err := h.svc.Comment(ctx, req.PathParameters["id"], payload.Text, payload.Name)
	if err != nil {
		return serviceError(err, "Photo"), nil
	}
	return jsonResponse(http.StatusOK, photo), nil
}

type commentPayload struct {
	Text string `json:"text"`
	Name string `json:"name"`
}
