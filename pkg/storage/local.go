package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pkglogger "github.com/damoang/angple-elements/pkg/logger"
)

// LocalStorage stores files under a directory served at baseURL
type LocalStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage creates a disk-backed storage. baseURL is the public prefix, e.g. /assets
func NewLocalStorage(root, baseURL string) *LocalStorage {
	pkglogger.GetLogger().Info().
		Str("root", root).
		Str("base_url", baseURL).
		Msg("Local storage initialized")

	return &LocalStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.root, clean), nil
}

// Upload writes body to root/key
func (l *LocalStorage) Upload(_ context.Context, key string, body io.Reader, contentType string, _ int64) (*UploadResult, error) {
	dst, err := l.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("local upload failed: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("local upload failed: %w", err)
	}
	written, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("local upload failed: %w", err)
	}

	return &UploadResult{
		Key:         key,
		URL:         l.baseURL + "/" + key,
		ContentType: contentType,
		Size:        written,
	}, nil
}

// Delete removes root/key; a missing file is not an error
func (l *LocalStorage) Delete(_ context.Context, key string) error {
	dst, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local delete failed: %w", err)
	}
	return nil
}
