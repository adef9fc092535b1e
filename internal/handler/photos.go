package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jun/babymemories/internal/adapter"
	"github.com/jun/babymemories/internal/model"
)

// ErrorMode selects how a failed photo listing is reported.
type ErrorMode string

const (
	// ErrorModePermissive answers 200 with an empty list and logs the error.
	ErrorModePermissive ErrorMode = "permissive"
	// ErrorModeStrict answers 500 with the error details.
	ErrorModeStrict ErrorMode = "strict"
)

// maxContentSize bounds proxied image bodies; Lambda responses are capped
// at 6MB before base64 overhead.
const maxContentSize = 4 << 20

// TicketVerifier checks content tickets.
type TicketVerifier interface {
	Verify(ticket, fileID string) error
}

// PhotoHandler serves the remote album.
type PhotoHandler struct {
	source  adapter.PhotoSource
	content adapter.ContentSource
	tickets TicketVerifier
	album   string
	mode    ErrorMode
}

// NewPhotoHandler creates a PhotoHandler. content and tickets may be nil when
// the proxy download route is not used.
func NewPhotoHandler(source adapter.PhotoSource, content adapter.ContentSource, tickets TicketVerifier, album string, mode ErrorMode) *PhotoHandler {
	if mode == "" {
		mode = ErrorModePermissive
	}
	return &PhotoHandler{source: source, content: content, tickets: tickets, album: album, mode: mode}
}

// ListPhotos returns the album photos. A failure is reported according to
// the error mode.
func (h *PhotoHandler) ListPhotos(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	photos, err := h.source.ListAlbumPhotos(ctx, h.album)
	if err != nil {
		if h.mode == ErrorModeStrict {
			slog.Error("Failed to fetch photos", "album", h.album, "error", err)
			return jsonResponse(http.StatusInternalServerError, map[string]string{
				"error":   "Failed to fetch photos",
				"details": err.Error(),
			}), nil
		}
		slog.Warn("Failed to fetch photos, returning empty list", "album", h.album, "error", err)
		photos = nil
	}
	if photos == nil {
		photos = []model.Photo{}
	}
	return jsonResponse(http.StatusOK, photos), nil
}

// PhotoContent streams one image for a valid content ticket.
func (h *PhotoHandler) PhotoContent(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := req.PathParameters["id"]
	if id == "" {
		return errorResponse(http.StatusBadRequest, "Missing photo ID"), nil
	}
	if h.content == nil || h.tickets == nil {
		return errorResponse(http.StatusNotFound, "Content proxy disabled"), nil
	}
	if err := h.tickets.Verify(req.QueryStringParameters["ticket"], id); err != nil {
		slog.Debug("Rejected content ticket", "id", id, "error", err)
		return errorResponse(http.StatusForbidden, "Forbidden"), nil
	}

	body, contentType, err := h.content.OpenContent(ctx, id)
	if err != nil {
		if errors.Is(err, adapter.ErrNotFound) {
			return errorResponse(http.StatusNotFound, "Photo not found"), nil
		}
		slog.Error("Failed to open photo content", "id", id, "error", err)
		return errorResponse(http.StatusBadGateway, "Failed to fetch photo"), nil
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxContentSize+1))
	if err != nil {
		return errorResponse(http.StatusBadGateway, "Failed to read photo"), nil
	}
	if len(data) > maxContentSize {
		return errorResponse(http.StatusRequestEntityTooLarge, "Photo too large to proxy"), nil
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return events.APIGatewayProxyResponse{
		StatusCode:      http.StatusOK,
		Body:            base64.StdEncoding.EncodeToString(data),
		IsBase64Encoded: true,
		Headers: map[string]string{
			"Content-Type":  contentType,
			"Cache-Control": "private, max-age=300",
		},
	}, nil
}
