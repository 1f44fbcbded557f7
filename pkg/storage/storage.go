package storage

import (
	"context"
	"io"
	"path"
	"strings"
)

// Storage file backend for uploaded assets
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string, size int64) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}

// UploadResult contains the result of a file upload
type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	CDNURL      string `json:"cdn_url,omitempty"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// PublicURL CDN URL when configured, otherwise the direct URL
func (r *UploadResult) PublicURL() string {
	if r.CDNURL != "" {
		return r.CDNURL
	}
	return r.URL
}

// Key joins a folder and file name into an object key
func Key(folder, filename string) string {
	return strings.TrimPrefix(path.Join(folder, filename), "/")
}
