package service_test

import (
	"bytes"
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/edumart/edumart/biz/dal/model"
	"github.com/edumart/edumart/biz/service"
	"github.com/edumart/edumart/pkg/storage"
	"github.com/edumart/edumart/pkg/validator"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Resource{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*service.Service, storage.Provider, *gorm.DB, string) {
	t.Helper()
	basePath := t.TempDir()
	store, err := storage.NewLocal(storage.LocalConfig{BasePath: basePath})
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	db := newTestDB(t)
	return service.NewService(db, store), store, db, basePath
}

// failingStore injects upload failures for one category and delegates
// everything else to the real adapter.
type failingStore struct {
	storage.Provider
	failCategory storage.FileCategory
}

func (f *failingStore) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if input.Category == f.failCategory {
		return nil, storage.NewError(storage.ErrCodeUploadFailed, "injected failure")
	}
	return f.Provider.Upload(ctx, input)
}

func pdfBytes(size int) []byte {
	data := make([]byte, size)
	copy(data, "%PDF-1.4\n")
	return data
}

func pngBytes(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	return data
}

func pdfInput(sellerID int64, size int) *service.CreateResourceInput {
	return &service.CreateResourceInput{
		SellerID:    sellerID,
		Title:       "Fractions unit plan",
		Description: "Grade 5 fractions, 3 lessons",
		Kind:        validator.KindPDF,
		PriceCents:  499,
		FileName:    "fractions-unit.pdf",
		ContentType: "application/pdf",
		Data:        pdfBytes(size),
	}
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	if err := db.Unscoped().Model(&model.Resource{}).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

func countBlobs(t *testing.T, basePath string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk uploads: %v", err)
	}
	return n
}

func TestCreateResourceHappyPathGeneratedPreview(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService(t)

	input := pdfInput(42, 2*1024*1024)
	res, err := svc.CreateResource(ctx, input)
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	if res.FileURL == "" {
		t.Fatalf("expected finalized file url")
	}
	if res.PreviewURL == nil {
		t.Fatalf("expected generated preview url")
	}
	if !strings.HasPrefix(*res.PreviewURL, "/api/uploads/preview/42/") || !strings.HasSuffix(*res.PreviewURL, ".png") {
		t.Fatalf("unexpected preview url %q", *res.PreviewURL)
	}
	if res.IsPublic || res.IsApproved {
		t.Fatalf("upload must not publish or approve the resource")
	}
	if res.Status != model.StatusPending {
		t.Fatalf("expected PENDING, got %s", res.Status)
	}

	// Round trip through storage.
	got, err := store.GetFile(ctx, res.FileURL, storage.CategoryResource)
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if !bytes.Equal(got, input.Data) {
		t.Fatalf("stored bytes differ from uploaded bytes")
	}

	// The row is finalized in the database too.
	stored, err := svc.GetResource(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetResource: %v", err)
	}
	if stored.FileURL != res.FileURL {
		t.Fatalf("row not finalized: %q", stored.FileURL)
	}
}

func TestCreateResourceSuppliedPreview(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService(t)

	input := pdfInput(7, 1024)
	input.PreviewFileName = "cover.png"
	input.PreviewContentType = "image/png"
	input.PreviewData = pngBytes(2048)

	res, err := svc.CreateResource(ctx, input)
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if res.PreviewURL == nil || !strings.HasPrefix(*res.PreviewURL, "/api/uploads/preview/7/") {
		t.Fatalf("unexpected preview url %v", res.PreviewURL)
	}

	previewKey := strings.TrimPrefix(*res.PreviewURL, "/api/uploads/")
	exists, err := store.Exists(ctx, previewKey, storage.CategoryPreview)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatalf("preview blob missing")
	}
}

func TestCreateResourceOversizedPreviewCompensates(t *testing.T) {
	ctx := context.Background()
	svc, _, db, basePath := newTestService(t)

	input := pdfInput(9, 1024*1024)
	input.PreviewFileName = "huge.png"
	input.PreviewContentType = "image/png"
	input.PreviewData = pngBytes(6 * 1024 * 1024)

	_, err := svc.CreateResource(ctx, input)
	if err == nil {
		t.Fatalf("expected size error")
	}
	if !service.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "file too large") {
		t.Fatalf("unexpected message %q", err.Error())
	}

	// The main blob was uploaded before the preview was checked; it and
	// the placeholder row must both be gone.
	if n := countBlobs(t, basePath); n != 0 {
		t.Fatalf("expected no blobs after compensation, found %d", n)
	}
	if n := countRows(t, db); n != 0 {
		t.Fatalf("expected no rows after compensation, found %d", n)
	}
}

func TestCreateResourcePreviewUploadFailureCompensates(t *testing.T) {
	ctx := context.Background()
	basePath := t.TempDir()
	local, err := storage.NewLocal(storage.LocalConfig{BasePath: basePath})
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	db := newTestDB(t)
	svc := service.NewService(db, &failingStore{Provider: local, failCategory: storage.CategoryPreview})

	input := pdfInput(11, 4096)
	input.PreviewFileName = "cover.png"
	input.PreviewContentType = "image/png"
	input.PreviewData = pngBytes(512)

	if _, err := svc.CreateResource(ctx, input); err == nil {
		t.Fatalf("expected preview upload failure")
	}
	if n := countBlobs(t, basePath); n != 0 {
		t.Fatalf("expected main blob deleted, found %d blobs", n)
	}
	if n := countRows(t, db); n != 0 {
		t.Fatalf("expected row deleted, found %d rows", n)
	}
}

func TestCreateResourceGeneratedPreviewFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	basePath := t.TempDir()
	local, err := storage.NewLocal(storage.LocalConfig{BasePath: basePath})
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	db := newTestDB(t)
	svc := service.NewService(db, &failingStore{Provider: local, failCategory: storage.CategoryPreview})

	// No preview supplied: the generated preview cannot be uploaded, but
	// the resource itself must still be created.
	res, err := svc.CreateResource(ctx, pdfInput(12, 4096))
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
	if res.PreviewURL != nil {
		t.Fatalf("expected null preview url, got %q", *res.PreviewURL)
	}
	if res.FileURL == "" {
		t.Fatalf("expected finalized file url")
	}
}

func TestCreateResourceMagicByteMismatch(t *testing.T) {
	ctx := context.Background()
	svc, _, db, basePath := newTestService(t)

	input := pdfInput(5, 2048)
	input.Data = pngBytes(2048) // PNG signature declared as PDF

	_, err := svc.CreateResource(ctx, input)
	if err == nil {
		t.Fatalf("expected magic byte rejection")
	}
	if !service.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "does not match") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if n := countBlobs(t, basePath); n != 0 {
		t.Fatalf("expected no blobs, found %d", n)
	}
	if n := countRows(t, db); n != 0 {
		t.Fatalf("expected no rows, found %d", n)
	}
}

func TestCreateResourceUnknownKindRejectedBeforeSideEffects(t *testing.T) {
	ctx := context.Background()
	svc, _, db, _ := newTestService(t)

	input := pdfInput(5, 1024)
	input.Kind = validator.ResourceKind("scorm")

	_, err := svc.CreateResource(ctx, input)
	if err == nil || !service.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := countRows(t, db); n != 0 {
		t.Fatalf("metadata rejection must leave no rows, found %d", n)
	}
}

func TestDeleteResource(t *testing.T) {
	ctx := context.Background()
	svc, _, db, basePath := newTestService(t)

	res, err := svc.CreateResource(ctx, pdfInput(20, 4096))
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	if err := svc.DeleteResource(ctx, 21, res.ID); err != service.ErrNotOwner {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	if err := svc.DeleteResource(ctx, 20, res.ID); err != nil {
		t.Fatalf("DeleteResource: %v", err)
	}
	if n := countBlobs(t, basePath); n != 0 {
		t.Fatalf("expected blobs removed, found %d", n)
	}
	if n := countRows(t, db); n != 0 {
		t.Fatalf("expected row removed, found %d", n)
	}
}

func TestResolveDownloadLocal(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t)

	res, err := svc.CreateResource(ctx, pdfInput(30, 4096))
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	dl, err := svc.ResolveDownload(ctx, res.ID)
	if err != nil {
		t.Fatalf("ResolveDownload: %v", err)
	}
	if !dl.Local {
		t.Fatalf("expected local download")
	}
	if dl.Key != res.FileURL {
		t.Fatalf("expected key %q, got %q", res.FileURL, dl.Key)
	}
	if dl.FileName != "fractions-unit.pdf" {
		t.Fatalf("expected original filename, got %q", dl.FileName)
	}
}

func TestResolveDownloadTranslatesLegacyURL(t *testing.T) {
	ctx := context.Background()
	svc, _, db, _ := newTestService(t)

	legacy := &model.Resource{
		ID:          "legacy-1",
		SellerID:    1,
		Title:       "Legacy record",
		Kind:        "pdf",
		FileName:    "old.pdf",
		FileURL:     "/uploads/resource/1/00ff00ff00ff00ff00ff00ff00ff00ff.pdf",
		ContentType: "application/pdf",
		Status:      model.StatusPending,
	}
	if err := db.Create(legacy).Error; err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	dl, err := svc.ResolveDownload(ctx, legacy.ID)
	if err != nil {
		t.Fatalf("ResolveDownload: %v", err)
	}
	if dl.Key != "resource/1/00ff00ff00ff00ff00ff00ff00ff00ff.pdf" {
		t.Fatalf("legacy prefix not stripped: %q", dl.Key)
	}
}

func TestResolveDownloadIncompleteResource(t *testing.T) {
	ctx := context.Background()
	svc, _, db, _ := newTestService(t)

	placeholder := &model.Resource{ID: "placeholder-1", SellerID: 2, Title: "Half done", Kind: "pdf", Status: model.StatusPending}
	if err := db.Create(placeholder).Error; err != nil {
		t.Fatalf("insert placeholder: %v", err)
	}

	if _, err := svc.ResolveDownload(ctx, placeholder.ID); err != service.ErrResourceNotFound {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestUploadAvatar(t *testing.T) {
	ctx := context.Background()
	svc, store, _, _ := newTestService(t)

	url, err := svc.UploadAvatar(ctx, 50, "me.png", "image/png", pngBytes(1024))
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if !strings.HasPrefix(url, "/api/uploads/avatar/50/") {
		t.Fatalf("unexpected avatar url %q", url)
	}
	key := strings.TrimPrefix(url, "/api/uploads/")
	exists, err := store.Exists(ctx, key, storage.CategoryAvatar)
	if err != nil || !exists {
		t.Fatalf("avatar blob missing: %v", err)
	}

	if _, err := svc.UploadAvatar(ctx, 50, "cv.pdf", "application/pdf", pdfBytes(1024)); err == nil {
		t.Fatalf("expected avatar type rejection")
	}
}
