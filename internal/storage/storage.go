// Package storage writes valuation documents and photos to object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var (
	ErrObjectNotFound    = errors.New("object not found")
	ErrInvalidObjectName = errors.New("invalid object name")
)

type UploadResult struct {
	ObjectName string `json:"object_name"`
	PublicURL  string `json:"public_url"`
	Size       int64  `json:"size"`
}

// ObjectStore is implemented by GCSClient and LocalStore.
type ObjectStore interface {
	UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error)
	DeleteFile(ctx context.Context, objectName string) error
	ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error)
	GetSignedURL(objectName string, expiry time.Duration) (string, error)
	GetSignedUploadURL(objectName, contentType string, expiry time.Duration) (string, error)
	PublicURL(objectName string) string
	Close() error
}

// PhotoObjectName places a photo under its property and session:
// valuations/{propertyID}/{sessionID}/photos/{fileName}.
func PhotoObjectName(propertyID, sessionID, fileName string) string {
	return objectName(propertyID, sessionID, "photos", fileName)
}

func DocumentObjectName(propertyID, sessionID, fileName string) string {
	return objectName(propertyID, sessionID, "documents", fileName)
}

func objectName(propertyID, sessionID, kind, fileName string) string {
	return fmt.Sprintf("valuations/%s/%s/%s/%s",
		segment(propertyID), segment(sessionID), kind, segment(fileName))
}

// segment keeps a caller-supplied value inside one path element.
func segment(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(s)
	if s == "" || s == "." || s == ".." {
		return "unknown"
	}
	return s
}

// cleanObjectName rejects names that would escape the store root.
func cleanObjectName(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectName, name)
	}
	cleaned := path.Clean(name)
	if cleaned != name || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectName, name)
	}
	return cleaned, nil
}
