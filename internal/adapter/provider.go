package adapter

import (
	"context"
	"io"

	"github.com/jun/babymemories/internal/model"
)

// PhotoSource lists the photos of a named album on a cloud drive.
type PhotoSource interface {
	// ListAlbumPhotos returns the image files of the folder named albumName.
	ListAlbumPhotos(ctx context.Context, albumName string) ([]model.Photo, error)
}

// ContentSource streams file content for the proxy download mode.
type ContentSource interface {
	// OpenContent returns the file body and its content type.
	// The caller must close the body.
	OpenContent(ctx context.Context, fileID string) (io.ReadCloser, string, error)
}

// URLSigner builds short-lived URLs that route downloads through this service.
type URLSigner interface {
	SignedURL(fileID string) (string, error)
}
