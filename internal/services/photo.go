package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"SPX-VAL/internal/fields"
	"SPX-VAL/internal/geocode"
	"SPX-VAL/internal/models"
	"SPX-VAL/internal/overlay"
	"SPX-VAL/internal/session"
	"SPX-VAL/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Capture is one photo as it arrives from the device.
type Capture struct {
	Data     []byte
	Location *models.LocationData
	Heading  *float64
}

// PhotoService stamps captured photos and stores them for the session's
// open document.
type PhotoService struct {
	store    storage.ObjectStore
	geocoder geocode.Reverser
	logger   *zap.Logger
	now      func() time.Time
}

func NewPhotoService(store storage.ObjectStore, geocoder geocode.Reverser, logger *zap.Logger) *PhotoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if geocoder == nil {
		geocoder = geocode.Disabled{}
	}
	return &PhotoService{
		store:    store,
		geocoder: geocoder,
		logger:   logger.With(zap.String("component", "photos")),
		now:      time.Now,
	}
}

func (s *PhotoService) WithClock(now func() time.Time) *PhotoService {
	s.now = now
	return s
}

// Add renders the overlay, uploads the JPEG and appends the photo to the
// session. A failed upload keeps the photo in the session without a URL.
func (s *PhotoService) Add(ctx context.Context, sess *session.Session, c Capture) (*models.PhotoMetadata, error) {
	doc, err := sess.Document()
	if err != nil {
		return nil, err
	}

	now := s.now()
	location := c.Location
	if location != nil && location.Address == "" {
		loc := *location
		loc.Address = s.geocoder.Reverse(ctx, loc.Latitude, loc.Longitude)
		location = &loc
	}

	jpegData, img, err := overlay.Render(c.Data, overlay.Options{
		Location: location,
		Heading:  c.Heading,
		Time:     now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render photo: %w", err)
	}

	id := uuid.New().String()
	photo := models.PhotoMetadata{
		ID:        id,
		Filename:  fmt.Sprintf("photo_%d_%s.jpg", now.UnixMilli(), id[:8]),
		Timestamp: now,
		Location:  location,
		Compass:   c.Heading,
		Size:      len(jpegData),
	}

	if hash, err := overlay.BlurHash(img); err != nil {
		s.logger.Debug("blurhash failed", zap.Error(err))
	} else {
		photo.BlurHash = hash
	}

	objectName := storage.PhotoObjectName(doc.Fields.Value(fields.KeyFileNumber), sess.ID, photo.Filename)
	if res, err := s.store.UploadFile(ctx, bytes.NewReader(jpegData), objectName, "image/jpeg"); err != nil {
		s.logger.Warn("photo upload failed",
			zap.String("session_id", sess.ID),
			zap.String("object", objectName),
			zap.Error(err))
	} else {
		photo.ObjectPath = res.ObjectName
		photo.URL = res.PublicURL
	}

	if err := sess.AddPhoto(photo); err != nil {
		return nil, err
	}
	return &photo, nil
}

// Remove drops a photo from the session and deletes its stored copy.
func (s *PhotoService) Remove(ctx context.Context, sess *session.Session, id string) error {
	photo, err := sess.RemovePhoto(id)
	if err != nil {
		return err
	}
	if photo.ObjectPath == "" {
		return nil
	}
	if err := s.store.DeleteFile(ctx, photo.ObjectPath); err != nil {
		s.logger.Warn("failed to delete photo object",
			zap.String("object", photo.ObjectPath),
			zap.Error(err))
	}
	return nil
}

func (s *PhotoService) List(sess *session.Session) []models.PhotoMetadata {
	return sess.Photos()
}
