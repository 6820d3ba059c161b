package service

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	"github.com/edumart/edumart/biz/dal/model"
	"github.com/edumart/edumart/pkg/preview"
	"github.com/edumart/edumart/pkg/storage"
	"github.com/edumart/edumart/pkg/validator"
)

// blobRef identifies an uploaded blob for compensation.
type blobRef struct {
	key      string
	category storage.FileCategory
}

// CreateResource runs the resource creation saga:
//
//  1. validate request metadata
//  2. insert a placeholder row (file_url empty, status PENDING)
//  3. validate and upload the main file
//  4. resolve the preview: validate and upload the supplied one, or
//     best-effort generate one from the main file
//  5. finalize the row with the storage key and preview URL
//
// Any failure after step 2 deletes every artifact created so far before
// surfacing the error; no step is retried.
func (s *Service) CreateResource(ctx context.Context, input *CreateResourceInput) (*model.Resource, error) {
	if err := validateMetadata(input); err != nil {
		return nil, err
	}

	res := &model.Resource{
		SellerID:    input.SellerID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Kind:        string(input.Kind),
		PriceCents:  input.PriceCents,
		FileName:    input.FileName,
		FileSize:    int64(len(input.Data)),
		ContentType: validator.NormalizeMIME(input.ContentType),
		IsPublic:    false,
		IsApproved:  false,
		Status:      model.StatusPending,
	}
	if err := s.logic.CreateResource(ctx, res); err != nil {
		return nil, err
	}

	// Main file. No blob exists yet, so failure only costs the row.
	if err := validateMainFile(input); err != nil {
		s.compensate(ctx, res.ID, err)
		return nil, err
	}
	mainBlob, err := s.store.Upload(ctx, &storage.UploadInput{
		Category:    storage.CategoryResource,
		UserID:      input.SellerID,
		Filename:    input.FileName,
		ContentType: input.ContentType,
		Data:        input.Data,
		Metadata:    map[string]string{"resource-id": res.ID},
	})
	if err != nil {
		s.compensate(ctx, res.ID, err)
		return nil, err
	}

	previewURL, previewRef, err := s.resolvePreview(ctx, input, res.ID)
	if err != nil {
		s.compensate(ctx, res.ID, err, blobRef{mainBlob.Key, storage.CategoryResource})
		return nil, err
	}

	if err := s.logic.FinalizeResource(ctx, res.ID, mainBlob.Key, previewURL); err != nil {
		refs := []blobRef{{mainBlob.Key, storage.CategoryResource}}
		if previewRef != nil {
			refs = append(refs, *previewRef)
		}
		s.compensate(ctx, res.ID, err, refs...)
		return nil, err
	}

	res.FileURL = mainBlob.Key
	res.PreviewURL = previewURL
	return res, nil
}

func validateMetadata(input *CreateResourceInput) error {
	if input == nil || input.SellerID <= 0 {
		return validationErrorf("seller is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		return validationErrorf("title is required")
	}
	if !validator.KnownKind(input.Kind) {
		return validationErrorf("unknown resource kind %q", input.Kind)
	}
	if input.PriceCents < 0 {
		return validationErrorf("price must not be negative")
	}
	if len(input.Data) == 0 {
		return validationErrorf("file is empty")
	}
	return nil
}

func validateMainFile(input *CreateResourceInput) error {
	if err := validator.ValidateResourceSize(int64(len(input.Data))); err != nil {
		return validationErrorf("%s", err.Error())
	}
	if !validator.IsAllowedResourceType(input.ContentType, input.Kind) {
		return validationErrorf("invalid file type %s for resource kind %s",
			validator.NormalizeMIME(input.ContentType), input.Kind)
	}
	if err := validator.ValidateMagicBytes(input.Data, input.ContentType); err != nil {
		return validationErrorf("%s", err.Error())
	}
	return nil
}

// resolvePreview uploads the seller-supplied preview, or generates one
// when none was given. A supplied preview that fails validation or upload
// is a hard error; generation failures only cost the preview.
func (s *Service) resolvePreview(ctx context.Context, input *CreateResourceInput, resourceID string) (*string, *blobRef, error) {
	if len(input.PreviewData) > 0 {
		if err := validator.ValidatePreviewSize(int64(len(input.PreviewData))); err != nil {
			return nil, nil, validationErrorf("%s", err.Error())
		}
		if !validator.IsAllowedPreviewType(input.PreviewContentType) {
			return nil, nil, validationErrorf("invalid preview file type %s",
				validator.NormalizeMIME(input.PreviewContentType))
		}
		if err := validator.ValidateMagicBytes(input.PreviewData, input.PreviewContentType); err != nil {
			return nil, nil, validationErrorf("%s", err.Error())
		}
		blob, err := s.store.Upload(ctx, &storage.UploadInput{
			Category:    storage.CategoryPreview,
			UserID:      input.SellerID,
			Filename:    input.PreviewFileName,
			ContentType: input.PreviewContentType,
			Data:        input.PreviewData,
			Metadata:    map[string]string{"resource-id": resourceID},
		})
		if err != nil {
			return nil, nil, err
		}
		return &blob.PublicURL, &blobRef{blob.Key, storage.CategoryPreview}, nil
	}

	// Best effort: a missing preview never fails the saga.
	data, err := preview.Generate(input.Data, input.ContentType)
	if err != nil {
		hlog.CtxInfof(ctx, "preview generation skipped for resource %s: %v", resourceID, err)
		return nil, nil, nil
	}
	blob, err := s.store.Upload(ctx, &storage.UploadInput{
		Category:    storage.CategoryPreview,
		UserID:      input.SellerID,
		Filename:    "preview.png",
		ContentType: preview.ContentType,
		Data:        data,
		Metadata:    map[string]string{"resource-id": resourceID, "generated": "true"},
	})
	if err != nil {
		hlog.CtxWarnf(ctx, "generated preview upload failed for resource %s: %v", resourceID, err)
		return nil, nil, nil
	}
	return &blob.PublicURL, &blobRef{blob.Key, storage.CategoryPreview}, nil
}

// compensate removes everything the saga created so far: the database row
// first, then each blob. Deletes are idempotent, so blobs that were never
// reached cost nothing. Cleanup failures are logged and never mask the
// triggering error.
func (s *Service) compensate(ctx context.Context, resourceID string, cause error, blobs ...blobRef) {
	hlog.CtxWarnf(ctx, "resource %s creation failed, compensating: %v", resourceID, cause)
	if err := s.logic.DeleteResource(ctx, resourceID); err != nil {
		hlog.CtxErrorf(ctx, "compensation: delete resource row %s: %v", resourceID, err)
	}
	for i := len(blobs) - 1; i >= 0; i-- {
		if err := s.store.Delete(ctx, blobs[i].key, blobs[i].category); err != nil {
			hlog.CtxErrorf(ctx, "compensation: delete blob %s: %v", blobs[i].key, err)
		}
	}
}

// ResolveDownload decides how the caller gets the resource bytes. The
// record's original file name travels in a content-disposition attachment
// regardless of the stored key name.
func (s *Service) ResolveDownload(ctx context.Context, id string) (*Download, error) {
	res, err := s.logic.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.FileURL == "" {
		// Placeholder row whose upload never finished.
		return nil, ErrResourceNotFound
	}

	key := storage.LegacyKey(res.FileURL)
	name := res.FileName
	if name == "" {
		name = path.Base(key)
	}

	if s.store.IsLocal() {
		return &Download{
			Local:       true,
			Key:         key,
			FileName:    name,
			ContentType: res.ContentType,
		}, nil
	}

	signed, err := s.store.SignedURL(ctx, key, &storage.SignedURLOptions{DownloadFilename: name})
	if err != nil {
		return nil, err
	}
	return &Download{
		SignedURL:   signed,
		FileName:    name,
		ContentType: res.ContentType,
	}, nil
}

// GetResource returns a single record.
func (s *Service) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	return s.logic.GetResource(ctx, id)
}

// ListResources returns the seller's own resources, newest first.
func (s *Service) ListResources(ctx context.Context, sellerID int64) ([]model.Resource, error) {
	return s.logic.ListResourcesBySeller(ctx, sellerID)
}

// DeleteResource removes a seller's resource: blobs first, then the row.
// Blob deletes are idempotent so a half-created record deletes cleanly.
func (s *Service) DeleteResource(ctx context.Context, sellerID int64, id string) error {
	res, err := s.logic.GetResource(ctx, id)
	if err != nil {
		return err
	}
	if res.SellerID != sellerID {
		return ErrNotOwner
	}

	if res.FileURL != "" {
		if err := s.store.Delete(ctx, storage.LegacyKey(res.FileURL), storage.CategoryResource); err != nil {
			return err
		}
	}
	if res.PreviewURL != nil && *res.PreviewURL != "" {
		if key := keyFromPublicURL(*res.PreviewURL); key != "" {
			if err := s.store.Delete(ctx, key, storage.CategoryPreview); err != nil {
				hlog.CtxWarnf(ctx, "delete preview blob %s: %v", key, err)
			}
		}
	}
	return s.logic.DeleteResource(ctx, id)
}

// UploadAvatar stores a user profile image and returns its public URL.
// Avatars follow the preview image rules: raster formats only, preview
// size ceiling.
func (s *Service) UploadAvatar(ctx context.Context, userID int64, filename, contentType string, data []byte) (string, error) {
	if userID <= 0 {
		return "", validationErrorf("user is required")
	}
	if err := validator.ValidatePreviewSize(int64(len(data))); err != nil {
		return "", validationErrorf("%s", err.Error())
	}
	if !validator.IsAllowedPreviewType(contentType) {
		return "", validationErrorf("invalid avatar file type %s", validator.NormalizeMIME(contentType))
	}
	if err := validator.ValidateMagicBytes(data, contentType); err != nil {
		return "", validationErrorf("%s", err.Error())
	}

	blob, err := s.store.Upload(ctx, &storage.UploadInput{
		Category:    storage.CategoryAvatar,
		UserID:      userID,
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		return "", err
	}
	return blob.PublicURL, nil
}

// keyFromPublicURL recovers a storage key from a stored public URL. Keys
// always have the shape {dir}/{userID}/{name}, so the last three path
// segments are the key no matter which base the URL carries.
func keyFromPublicURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 3 {
		return ""
	}
	return strings.Join(segments[len(segments)-3:], "/")
}
