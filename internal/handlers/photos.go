package handlers

import (
	"io"
	"net/http"
	"strconv"

	"SPX-VAL/internal/models"
	"SPX-VAL/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PhotoHandler struct {
	photos         *services.PhotoService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewPhotoHandler(photos *services.PhotoService, maxUploadBytes int64, logger *zap.Logger) *PhotoHandler {
	return &PhotoHandler{photos: photos, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Add takes the image from the "photo" form field. latitude and longitude
// together attach a location; accuracy, timestamp, address and compass are
// optional.
func (h *PhotoHandler) Add(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo uploaded"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read photo"})
		return
	}

	capture := services.Capture{Data: data}

	location, err := parseLocation(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	capture.Location = location

	if v := c.PostForm("compass"); v != "" {
		heading, err := strconv.ParseFloat(v, 64)
		if err != nil || heading < 0 || heading >= 360 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "compass must be a heading in [0, 360)"})
			return
		}
		capture.Heading = &heading
	}

	photo, err := h.photos.Add(c.Request.Context(), currentSession(c), capture)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"photo": photo})
}

type formError string

func (e formError) Error() string { return string(e) }

func parseLocation(c *gin.Context) (*models.LocationData, error) {
	lat, lon := c.PostForm("latitude"), c.PostForm("longitude")
	if lat == "" && lon == "" {
		return nil, nil
	}

	loc := &models.LocationData{Address: c.PostForm("address")}
	var err error
	if loc.Latitude, err = strconv.ParseFloat(lat, 64); err != nil || loc.Latitude < -90 || loc.Latitude > 90 {
		return nil, formError("invalid latitude")
	}
	if loc.Longitude, err = strconv.ParseFloat(lon, 64); err != nil || loc.Longitude < -180 || loc.Longitude > 180 {
		return nil, formError("invalid longitude")
	}
	if v := c.PostForm("accuracy"); v != "" {
		if loc.Accuracy, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, formError("invalid accuracy")
		}
	}
	if v := c.PostForm("timestamp"); v != "" {
		if loc.Timestamp, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, formError("invalid timestamp")
		}
	}
	return loc, nil
}

func (h *PhotoHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"photos": h.photos.List(currentSession(c))})
}

func (h *PhotoHandler) Remove(c *gin.Context) {
	if err := h.photos.Remove(c.Request.Context(), currentSession(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
