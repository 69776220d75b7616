package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lingopipe/lingopipe/internal/blobstore"
)

// FileHandler handles upload and retrieval of source documents attached to
// translation requests.
type FileHandler struct {
	store  blobstore.Store
	logger *zap.Logger
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(store blobstore.Store, logger *zap.Logger) *FileHandler {
	return &FileHandler{store: store, logger: logger}
}

// Upload handles POST /api/v1/files
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file form field is required"})
		return
	}

	folder := c.DefaultPostForm("folder", "documents")

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Open uploaded file failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	key, err := h.store.Put(c.Request.Context(), folder, fileHeader.Filename, contentType, fileHeader.Size, file)
	if err != nil {
		h.logger.Error("Store file failed", zap.Error(err), zap.String("name", fileHeader.Filename))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"key": key})
}

// GetURL handles GET /api/v1/files/*key
func (h *FileHandler) GetURL(c *gin.Context) {
	key := c.Param("key")
	if len(key) > 0 && key[0] == '/' {
		key = key[1:]
	}
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Object key is required"})
		return
	}

	url, err := h.store.GetURL(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("Presign URL failed", zap.Error(err), zap.String("key", key))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate download URL"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Delete handles DELETE /api/v1/files/*key
func (h *FileHandler) Delete(c *gin.Context) {
	key := c.Param("key")
	if len(key) > 0 && key[0] == '/' {
		key = key[1:]
	}
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Object key is required"})
		return
	}

	if err := h.store.Delete(c.Request.Context(), key); err != nil {
		h.logger.Error("Delete file failed", zap.Error(err), zap.String("key", key))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
