package handlers

import (
	"fmt"
	"io"
	"net/http"

	"SPX-VAL/internal/processor"
	"SPX-VAL/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	documents      *services.DocumentService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewDocumentHandler(documents *services.DocumentService, maxUploadBytes int64, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxUploadBytes: maxUploadBytes, logger: logger}
}

type OpenResponse struct {
	DocumentID   string      `json:"documentId"`
	FileName     string      `json:"fileName"`
	Fields       interface{} `json:"fields"`
	Placeholders []string    `json:"placeholders"`
	Message      string      `json:"message"`
}

type updateFieldRequest struct {
	Value *string `json:"value" binding:"required"`
}

// Open takes the .docx from the "document" form field.
func (h *DocumentHandler) Open(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, header, err := c.Request.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}

	doc, err := h.documents.Open(c.Request.Context(), currentSession(c), header.Filename, data)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	placeholders, err := processor.ExtractPlaceholders(doc.Package)
	if err != nil {
		h.logger.Debug("placeholder scan failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, OpenResponse{
		DocumentID:   doc.ID,
		FileName:     doc.FileName,
		Fields:       doc.Fields,
		Placeholders: placeholders,
		Message:      "Document opened successfully",
	})
}

func (h *DocumentHandler) Fields(c *gin.Context) {
	fs, err := h.documents.Fields(currentSession(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fields": fs})
}

func (h *DocumentHandler) UpdateField(c *gin.Context) {
	var req updateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	f, err := h.documents.UpdateField(currentSession(c), c.Param("key"), *req.Value)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": f})
}

func (h *DocumentHandler) Changes(c *gin.Context) {
	cs, err := h.documents.Changes(currentSession(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": cs, "count": cs.Len()})
}

func (h *DocumentHandler) Preview(c *gin.Context) {
	page, err := h.documents.Preview(c.Request.Context(), currentSession(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (h *DocumentHandler) Save(c *gin.Context) {
	res, err := h.documents.Save(c.Request.Context(), currentSession(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Download returns the merged document without saving it.
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, merged, err := h.documents.Merge(currentSession(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	attachment(c, doc.FileName)
	c.Data(http.StatusOK, merged.MimeType, merged.Data)
}

func (h *DocumentHandler) PDF(c *gin.Context) {
	res, err := h.documents.ExportPDF(c.Request.Context(), currentSession(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if res.ObjectName != "" {
		c.Header("X-Object-Name", res.ObjectName)
	}
	attachment(c, res.FileName)
	c.Data(http.StatusOK, "application/pdf", res.Data)
}

func (h *DocumentHandler) Close(c *gin.Context) {
	if err := h.documents.Close(c.Request.Context(), currentSession(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}
