package handlers

import (
	"io"
	"net/http"
	"strings"

	"SPX-VAL/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ObjectHandler serves the local object store at the URLs it signs. Every
// request needs a token for the object and method.
type ObjectHandler struct {
	store          *storage.LocalStore
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewObjectHandler(store *storage.LocalStore, maxUploadBytes int64, logger *zap.Logger) *ObjectHandler {
	return &ObjectHandler{store: store, maxUploadBytes: maxUploadBytes, logger: logger}
}

func objectName(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("name"), "/")
}

func (h *ObjectHandler) Put(c *gin.Context) {
	name := objectName(c)
	contentType := c.ContentType()
	if err := h.store.VerifyToken(c.Query("token"), http.MethodPut, name, contentType); err != nil {
		respondError(c, h.logger, err)
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	res, err := h.store.UploadFile(c.Request.Context(), body, name, contentType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ObjectHandler) Get(c *gin.Context) {
	name := objectName(c)
	if err := h.store.VerifyToken(c.Query("token"), http.MethodGet, name, ""); err != nil {
		respondError(c, h.logger, err)
		return
	}

	r, err := h.store.ReadFile(c.Request.Context(), name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer r.Close()

	c.Header("Content-Type", contentTypeFor(name))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, r); err != nil {
		h.logger.Warn("object copy interrupted", zap.String("object", name), zap.Error(err))
	}
}

func contentTypeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(name, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}
