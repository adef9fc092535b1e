// Package googledrive lists album photos from a Google Drive folder shared
// with a service account.
package googledrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jun/babymemories/internal/adapter"
	"github.com/jun/babymemories/internal/model"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	folderMIMEType = "application/vnd.google-apps.folder"
	imageFields    = "nextPageToken, files(id, name, mimeType, modifiedTime, size, parents, webContentLink)"
)

// Source implements adapter.PhotoSource and adapter.ContentSource.
type Source struct {
	service *drive.Service
	signer  adapter.URLSigner
}

// NewSource creates a Source. opts must carry authentication, either from
// CredentialsOption or an already authenticated HTTP client.
func NewSource(ctx context.Context, signer adapter.URLSigner, opts ...option.ClientOption) (*Source, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}
	return &Source{service: srv, signer: signer}, nil
}

// ListAlbumPhotos lists the images in the folder named albumName.
func (s *Source) ListAlbumPhotos(ctx context.Context, albumName string) ([]model.Photo, error) {
	folderID, err := s.resolveFolder(ctx, albumName)
	if err != nil {
		return nil, err
	}
	slog.Debug("Drive album folder resolved", "album", albumName, "folder_id", folderID)

	q := fmt.Sprintf("'%s' in parents and mimeType contains 'image/' and trashed = false", quote(folderID))
	photos := []model.Photo{}
	err = s.service.Files.List().
		Q(q).
		Fields(googleapi.Field(imageFields)).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				if !strings.HasPrefix(f.MimeType, "image/") || !hasParent(f, folderID) {
					continue
				}
				link, err := s.downloadURL(f)
				if err != nil {
					return err
				}
				photos = append(photos, model.Photo{
					ID:           f.Id,
					URL:          link,
					Title:        f.Name,
					MIMEType:     f.MimeType,
					Size:         f.Size,
					ModifiedTime: f.ModifiedTime,
				})
			}
			return nil
		})
	if err != nil {
		return nil, classify("list images", err)
	}
	return photos, nil
}

func (s *Source) resolveFolder(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", quote(name), folderMIMEType)
	r, err := s.service.Files.List().
		Q(q).
		Fields("files(id, name, mimeType)").
		Context(ctx).
		Do()
	if err != nil {
		return "", classify("resolve folder", err)
	}
	for _, f := range r.Files {
		if f.Name == name && f.MimeType == folderMIMEType {
			return f.Id, nil
		}
	}
	return "", &adapter.NotFoundError{Folder: name}
}

// downloadURL prefers the link Drive returned. Without one it signs a proxy
// URL, or falls back to the public export link.
func (s *Source) downloadURL(f *drive.File) (string, error) {
	if f.WebContentLink != "" {
		return f.WebContentLink, nil
	}
	if s.signer != nil {
		return s.signer.SignedURL(f.Id)
	}
	return "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(f.Id), nil
}

// OpenContent streams the bytes of fileID.
func (s *Source) OpenContent(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	resp, err := s.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, "", classify("download content", err)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func hasParent(f *drive.File, folderID string) bool {
	if len(f.Parents) == 0 {
		return true
	}
	for _, p := range f.Parents {
		if p == folderID {
			return true
		}
	}
	return false
}

// classify maps Drive API errors onto the adapter error types.
func classify(op string, err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		if gErr.Code == 401 || gErr.Code == 403 {
			return &adapter.AuthError{Status: gErr.Code, Body: gErr.Message}
		}
		return &adapter.UpstreamError{Op: op, Status: gErr.Code, Body: gErr.Message}
	}
	var uErr *url.Error
	if errors.As(err, &uErr) {
		return &adapter.NetworkError{Op: op, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
