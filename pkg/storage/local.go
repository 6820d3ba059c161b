package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// localPublicURLPrefix is an API route rather than a static-file path so
// that runtime-uploaded files stay servable in deployment modes where the
// upload directory is not exposed as static assets.
const localPublicURLPrefix = "/api/uploads/"

// DefaultLocalBasePath is the upload root when none is configured.
const DefaultLocalBasePath = "data/uploads"

// LocalAdapter implements Provider over a local filesystem tree.
// Used in development and self-hosted deployments.
type LocalAdapter struct {
	basePath string
}

// NewLocal creates a local filesystem adapter rooted at basePath.
func NewLocal(cfg LocalConfig) (*LocalAdapter, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = DefaultLocalBasePath
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, WrapError(ErrCodeInvalidConfig, "create upload directory", err)
	}
	return &LocalAdapter{basePath: basePath}, nil
}

func (a *LocalAdapter) Upload(ctx context.Context, input *UploadInput) (*UploadResult, error) {
	if len(input.Data) == 0 {
		return nil, NewError(ErrCodeUploadFailed, "empty file data")
	}

	objectName, err := newObjectName(input.ContentType, input.Filename)
	if err != nil {
		return nil, err
	}
	key := buildKey(string(input.Category), input.UserID, objectName)

	fullPath, err := a.keyToPath(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, WrapError(ErrCodeUploadFailed, "create directory", err)
	}

	// O_EXCL backs the never-overwrite guarantee: a fresh key must address
	// a fresh file.
	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, WrapError(ErrCodeUploadFailed, "create file", err)
	}
	if _, err := f.Write(input.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(fullPath)
		return nil, WrapError(ErrCodeUploadFailed, "write file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(fullPath)
		return nil, WrapError(ErrCodeUploadFailed, "close file", err)
	}

	result := &UploadResult{
		Key:         key,
		Size:        int64(len(input.Data)),
		ContentType: input.ContentType,
	}
	if input.Category.PubliclyReadable() {
		result.PublicURL = a.PublicURL(key)
	}
	return result, nil
}

// SignedURL on the local adapter degrades to the plain public URL. The
// local filesystem has no access-control layer to enforce an expiry
// against, so there is nothing real to sign. This is a documented
// limitation of local deployments, not an oversight.
func (a *LocalAdapter) SignedURL(ctx context.Context, key string, opts *SignedURLOptions) (string, error) {
	return a.PublicURL(key), nil
}

func (a *LocalAdapter) PublicURL(key string) string {
	return localPublicURLPrefix + key
}

func (a *LocalAdapter) Delete(ctx context.Context, key string, category FileCategory) error {
	fullPath, err := a.keyToPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return WrapError(ErrCodeDeleteFailed, "delete file", err)
	}
	// Opportunistically drop the per-user directory if it emptied out.
	_ = os.Remove(filepath.Dir(fullPath))
	return nil
}

func (a *LocalAdapter) Exists(ctx context.Context, key string, category FileCategory) (bool, error) {
	fullPath, err := a.keyToPath(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, WrapError(ErrCodeDownloadFailed, "stat file", err)
	}
	return true, nil
}

func (a *LocalAdapter) GetFile(ctx context.Context, key string, category FileCategory) ([]byte, error) {
	fullPath, err := a.keyToPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewError(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", key))
		}
		return nil, WrapError(ErrCodeDownloadFailed, "read file", err)
	}
	return data, nil
}

func (a *LocalAdapter) IsLocal() bool {
	return true
}

// BasePath returns the upload root directory.
func (a *LocalAdapter) BasePath() string {
	return a.basePath
}

// keyToPath maps a key onto the filesystem, rejecting anything that would
// escape the upload root. Minted keys are always safe; this guards keys
// arriving from the public file-serving route.
func (a *LocalAdapter) keyToPath(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", NewError(ErrCodePermissionDenied, fmt.Sprintf("invalid key: %s", key))
	}
	return filepath.Join(a.basePath, cleaned), nil
}
