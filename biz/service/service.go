package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/edumart/edumart/pkg/storage"
	"github.com/edumart/edumart/pkg/validator"
)

// Service orchestrates resource operations across the record store and
// the blob storage backend. The storage provider is injected once at
// startup and shared by all requests.
type Service struct {
	logic *Logic
	store storage.Provider
}

func NewService(dbConn *gorm.DB, store storage.Provider) *Service {
	return &Service{
		logic: NewLogic(dbConn),
		store: store,
	}
}

// CreateResourceInput captures the multipart form of a resource upload.
// PreviewData is empty when the seller supplied no preview.
type CreateResourceInput struct {
	SellerID    int64
	Title       string
	Description string
	Kind        validator.ResourceKind
	PriceCents  int64

	FileName    string
	ContentType string
	Data        []byte

	PreviewFileName    string
	PreviewContentType string
	PreviewData        []byte
}

// Download describes how a buyer gets the resource bytes: the local
// backend streams them through the API, the object store hands out a
// short-lived signed URL.
type Download struct {
	Local       bool
	Key         string
	SignedURL   string
	FileName    string
	ContentType string
}

// ValidationError marks user-facing rejections (bad metadata, oversized
// files, content/type mismatch). Handlers map it to a 400 response; all
// other errors stay generic with the detail only logged.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a user-facing validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
