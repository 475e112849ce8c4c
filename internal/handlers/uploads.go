package handlers

import (
	"context"
	"net/http"

	"SPX-VAL/internal/upload"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileNumberSource hands out the next free file number.
type FileNumberSource interface {
	NextFileNumber(ctx context.Context) (string, error)
}

type UploadHandler struct {
	signer   upload.Signer
	sequence FileNumberSource
	logger   *zap.Logger
}

func NewUploadHandler(signer upload.Signer, sequence FileNumberSource, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{signer: signer, sequence: sequence, logger: logger}
}

// Sign issues a signed PUT URL for a photo object.
func (h *UploadHandler) Sign(c *gin.Context) {
	var req upload.SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": upload.ErrMissingParameters.Error()})
		return
	}

	res, err := h.signer.Sign(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *UploadHandler) NextFileNumber(c *gin.Context) {
	n, err := h.sequence.NextFileNumber(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fileNumber": n})
}
