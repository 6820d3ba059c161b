// Package storage provides the blob storage abstraction for uploaded files.
// It exposes a single Provider interface with two backends: local filesystem
// for development and self-hosted deployments, and S3-compatible object
// storage (AWS S3, MinIO, Aliyun OSS) for production.
package storage

import (
	"context"
	"time"
)

// FileCategory classifies an uploaded file. The category decides bucket
// placement and URL visibility; it is always passed explicitly by the
// caller and never inferred from content.
type FileCategory string

const (
	// CategoryResource is the purchasable file itself. Always private;
	// the only read path is a short-lived signed URL.
	CategoryResource FileCategory = "resource"
	// CategoryPreview is a derived or seller-supplied preview image.
	CategoryPreview FileCategory = "preview"
	// CategoryAvatar is a user profile image.
	CategoryAvatar FileCategory = "avatar"
)

// PubliclyReadable reports whether blobs of this category get a public URL.
func (c FileCategory) PubliclyReadable() bool {
	return c == CategoryPreview || c == CategoryAvatar
}

// UploadInput describes a single blob upload. Filename is only used to
// derive a file extension when the MIME type has no canonical one; it is
// never used for path construction.
type UploadInput struct {
	Category    FileCategory
	UserID      int64
	Filename    string
	ContentType string
	Data        []byte
	Metadata    map[string]string
}

// UploadResult describes a stored blob. PublicURL is set if and only if
// the category is publicly readable.
type UploadResult struct {
	Key         string `json:"key"`
	PublicURL   string `json:"public_url,omitempty"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// SignedURLOptions tunes signed URL issuance.
type SignedURLOptions struct {
	// ExpiresIn bounds the URL lifetime. Zero means DefaultSignedURLExpiry.
	ExpiresIn time.Duration
	// DownloadFilename, when set, forces a content-disposition attachment
	// response carrying this literal filename regardless of the stored key.
	DownloadFilename string
}

// DefaultSignedURLExpiry is applied when SignedURLOptions.ExpiresIn is zero.
const DefaultSignedURLExpiry = time.Hour

// Provider is the contract every storage backend implements. Adapters hold
// only configuration and a client handle after construction, so a single
// instance is safe for concurrent use by independent requests.
type Provider interface {
	// Upload stores data under a freshly minted key. It never mutates or
	// overwrites an existing key; each call produces a new blob.
	Upload(ctx context.Context, input *UploadInput) (*UploadResult, error)

	// SignedURL returns a time-boxed read URL for a private blob.
	SignedURL(ctx context.Context, key string, opts *SignedURLOptions) (string, error)

	// PublicURL derives the public URL for a key. Pure, no I/O. It is only
	// meaningful for publicly readable categories; for private blobs the
	// result is syntactically valid but non-functional.
	PublicURL(key string) string

	// Delete removes a blob. Deleting a missing key is not an error, so
	// compensation logic can always call it defensively.
	Delete(ctx context.Context, key string, category FileCategory) error

	// Exists reports whether a blob is present.
	Exists(ctx context.Context, key string, category FileCategory) (bool, error)

	// GetFile reads a blob into memory. Returns FILE_NOT_FOUND when absent.
	GetFile(ctx context.Context, key string, category FileCategory) ([]byte, error)

	// IsLocal lets callers choose between signed-URL redirection and
	// byte-streaming without knowing the concrete adapter.
	IsLocal() bool
}
