package handlers

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/travelbooking/catalog-api/internal/services"
	"github.com/travelbooking/catalog-api/pkg/media"
)

// maxUploadMemory bounds the multipart form kept in memory
const maxUploadMemory = 32 << 20

// MediaStore uploads and deletes images
type MediaStore interface {
	Enabled() bool
	UploadMany(ctx context.Context, files []media.File, folder string) ([]media.Upload, []media.FileError)
	Delete(ctx context.Context, publicID string) error
}

// MediaHandler serves /media
type MediaHandler struct {
	store         MediaStore
	defaultFolder string
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(store MediaStore, defaultFolder string) *MediaHandler {
	return &MediaHandler{store: store, defaultFolder: defaultFolder}
}

func (h *MediaHandler) unavailable(c *gin.Context) bool {
	if h.store != nil && h.store.Enabled() {
		return false
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error":   http.StatusText(http.StatusServiceUnavailable),
		"message": "Image storage is not configured",
	})
	return true
}

// Upload stores every file of the multipart field "images"
// POST /media/upload
func (h *MediaHandler) Upload(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	form, err := c.MultipartForm()
	if err != nil && err != http.ErrNotMultipart {
		respondError(c, services.NewValidationError("request must be multipart/form-data"))
		return
	}
	var headers []*multipart.FileHeader
	if form != nil {
		headers = form.File["images"]
	}
	if len(headers) == 0 {
		respondError(c, services.NewValidationError("At least one image is required"))
		return
	}

	folder := strings.TrimSpace(c.PostForm("folder"))
	if folder == "" {
		folder = h.defaultFolder
	}

	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respondError(c, services.NewValidationError("cannot read "+fh.Filename))
			return
		}
		defer f.Close()
		files = append(files, media.File{Name: fh.Filename, Reader: f})
	}

	uploads, failures := h.store.UploadMany(c.Request.Context(), files, folder)
	if len(uploads) == 0 {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   http.StatusText(http.StatusBadGateway),
			"message": "No image could be uploaded",
			"details": failures,
		})
		return
	}
	respond(c, http.StatusCreated, msgUpload, gin.H{
		"uploads": uploads,
		"failed":  failures,
	})
}

// Delete removes an image; public ids may contain folder slashes
// DELETE /media/*publicID
func (h *MediaHandler) Delete(c *gin.Context) {
	if h.unavailable(c) {
		return
	}
	publicID := strings.Trim(c.Param("publicID"), "/")
	if publicID == "" {
		respondError(c, services.NewValidationError("publicID is required"))
		return
	}
	if err := h.store.Delete(c.Request.Context(), publicID); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   http.StatusText(http.StatusBadGateway),
			"message": err.Error(),
		})
		return
	}
	respond(c, http.StatusOK, msgDelete, nil)
}

// RegisterRoutes mounts the media routes on rg
func (h *MediaHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.Upload)
	rg.DELETE("/*publicID", h.Delete)
}
