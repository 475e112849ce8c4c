package handlers

import (
	"errors"
	"net/http"

	"SPX-VAL/internal/catalog"
	"SPX-VAL/internal/fields"
	"SPX-VAL/internal/preview"
	"SPX-VAL/internal/processor"
	"SPX-VAL/internal/services"
	"SPX-VAL/internal/session"
	"SPX-VAL/internal/storage"
	"SPX-VAL/internal/store"
	"SPX-VAL/internal/upload"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{session.ErrNotFound, http.StatusUnauthorized},
	{store.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrTooManyAttempts, http.StatusTooManyRequests},
	{store.ErrUserExists, http.StatusConflict},
	{store.ErrMissingFields, http.StatusBadRequest},
	{session.ErrNoDocument, http.StatusConflict},
	{session.ErrPhotoNotFound, http.StatusNotFound},
	{fields.ErrUnknownField, http.StatusNotFound},
	{fields.ErrReadOnlyField, http.StatusForbidden},
	{services.ErrNotDocx, http.StatusBadRequest},
	{processor.ErrUnreadablePackage, http.StatusBadRequest},
	{processor.ErrMissingDocumentBody, http.StatusBadRequest},
	{services.ErrBankNotSelected, http.StatusBadRequest},
	{catalog.ErrUnknownBank, http.StatusBadRequest},
	{catalog.ErrUnknownValuationType, http.StatusBadRequest},
	{upload.ErrMissingParameters, http.StatusBadRequest},
	{preview.ErrSuperseded, http.StatusConflict},
	{preview.ErrRenderFailed, http.StatusUnprocessableEntity},
	{services.ErrPDFNotConfigured, http.StatusServiceUnavailable},
	{services.ErrRecordNotFound, http.StatusNotFound},
	{storage.ErrObjectNotFound, http.StatusNotFound},
	{storage.ErrInvalidObjectName, http.StatusBadRequest},
	{storage.ErrInvalidToken, http.StatusForbidden},
}

// statusFor maps a service error to its HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": ...}. Internal errors are logged and their
// text is not sent to the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
