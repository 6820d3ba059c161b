package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/edumart/edumart/biz/service"
	"github.com/edumart/edumart/pkg/common"
	"github.com/edumart/edumart/pkg/storage"
	"github.com/edumart/edumart/pkg/validator"
)

// ResourceHandler exposes the upload pipeline over HTTP.
type ResourceHandler struct {
	service *service.Service
	store   storage.Provider
}

func NewResourceHandler(svc *service.Service, store storage.Provider) *ResourceHandler {
	return &ResourceHandler{service: svc, store: store}
}

// CreateResource handles the multipart resource upload: the main file, an
// optional preview image, and metadata fields.
func (h *ResourceHandler) CreateResource(ctx context.Context, c *app.RequestContext) {
	sellerID, ok := common.GetUserID(ctx)
	if !ok {
		writeForbidden(c, errors.New("authentication required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeBadRequest(c, errors.New("file is required"))
		return
	}
	// Ceiling check on the declared size happens before the body is read.
	if err := validator.ValidateResourceSize(fileHeader.Size); err != nil {
		writeBadRequest(c, err)
		return
	}
	data, err := readFormFile(fileHeader)
	if err != nil {
		writeServiceError(ctx, c, err)
		return
	}

	input := &service.CreateResourceInput{
		SellerID:    sellerID,
		Title:       string(c.FormValue("title")),
		Description: string(c.FormValue("description")),
		Kind:        validator.ResourceKind(strings.TrimSpace(string(c.FormValue("kind")))),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}
	if raw := string(c.FormValue("price_cents")); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeBadRequest(c, errors.New("price_cents must be an integer"))
			return
		}
		input.PriceCents = price
	}

	if previewHeader, err := c.FormFile("preview"); err == nil {
		if err := validator.ValidatePreviewSize(previewHeader.Size); err != nil {
			writeBadRequest(c, err)
			return
		}
		previewData, err := readFormFile(previewHeader)
		if err != nil {
			writeServiceError(ctx, c, err)
			return
		}
		input.PreviewFileName = previewHeader.Filename
		input.PreviewContentType = previewHeader.Header.Get("Content-Type")
		input.PreviewData = previewData
	}

	res, err := h.service.CreateResource(ctx, input)
	if err != nil {
		writeServiceError(ctx, c, err)
		return
	}

	c.JSON(consts.StatusOK, common.CommonResponse{
		Code: consts.StatusOK,
		Data: map[string]any{"resource": res},
	})
}

// DownloadResource resolves the buyer download: local storage streams the
// bytes, object storage redirects to a short-lived signed URL.
func (h *ResourceHandler) DownloadResource(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	dl, err := h.service.ResolveDownload(ctx, id)
	if err != nil {
		writeServiceError(ctx, c, err)
		return
	}

	if !dl.Local {
		c.Redirect(consts.StatusFound, []byte(dl.SignedURL))
		return
	}

	data, err := h.store.GetFile(ctx, dl.Key, storage.CategoryResource)
	if err != nil {
		writeServiceError(ctx, c, err)
		return
	}
	contentType := dl.ContentType
	if contentType == "" {
		contentType = consts.MIMEApplicationOctetStream
	}
	c.Response.Header.Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", url.PathEscape(dl.FileName)))
	c.Data(consts.StatusOK, contentType, data)
}

// ListResources returns the caller's own resources.
func (h *ResourceHandler) ListResources(ctx context.Context, c *app.RequestContext) {
	sellerID, ok := common.GetUserID(ctx)
	if !ok {
		writeForbidden(c, errors.New("authentication required"))
		return
	}
	resources, err := h.service.ListResources(ctx, sellerID)
	if err != nil {
		writeServiceError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, common.CommonResponse{
		Code: consts.StatusOK,
		Data: map[string]any{"resources": resources},
	})
}

// DeleteResource removes a caller-owned resource and its blobs.
func (h *ResourceHandler) DeleteResource(ctx context.Context, c *app.RequestContext) {
	sellerID, ok := common.GetUserID(ctx)
	if !ok {
		writeForbidden(c, errors.New("authentication required"))
		return
	}
	if err := h.service.DeleteResource(ctx, sellerID, c.Param("id")); err != nil {
		writeServiceError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, common.CommonResponse{Code: consts.StatusOK})
}

// UploadAvatar stores the caller's profile image and returns its URL.
func (h *ResourceHandler) UploadAvatar(ctx context.Context, c *app.RequestContext) {
	userID, ok := common.GetUserID(ctx)
	if !ok {
		writeForbidden(c, errors.New("authentication required"))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeBadRequest(c, errors.New("file is required"))
		return
	}
	if err := validator.ValidatePreviewSize(fileHeader.Size); err != nil {
		writeBadRequest(c, err)
		return
	}
	data, err := readFormFile(fileHeader)
	if err != nil {
		writeServiceError(ctx, c, err)
		return
	}

	avatarURL, err := h.service.UploadAvatar(ctx, userID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		writeServiceError(ctx, c, err)
		return
	}
	c.JSON(consts.StatusOK, common.CommonResponse{
		Code: consts.StatusOK,
		Data: map[string]any{"avatar_url": avatarURL},
	})
}

// ServeUpload serves local-adapter blobs under /api/uploads/{key}. Only
// publicly readable categories are reachable; resource files must go
// through the download endpoint.
func (h *ResourceHandler) ServeUpload(ctx context.Context, c *app.RequestContext) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		writeNotFound(c, errors.New("file not found"))
		return
	}

	category := storage.FileCategory(strings.SplitN(key, "/", 2)[0])
	if !category.PubliclyReadable() {
		writeForbidden(c, errors.New("access denied"))
		return
	}

	data, err := h.store.GetFile(ctx, key, category)
	if err != nil {
		writeServiceError(ctx, c, err)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = consts.MIMEApplicationOctetStream
	}
	c.Data(consts.StatusOK, contentType, data)
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
