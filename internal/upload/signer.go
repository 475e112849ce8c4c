// Package upload sends captured files to object storage through a signed
// URL: ask a Signer for a one-time PUT URL, then PUT the raw bytes to it.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"SPX-VAL/internal/storage"
)

var ErrMissingParameters = errors.New("missing required parameters")

type SignRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	PropertyID  string `json:"propertyId" binding:"required"`
	SessionID   string `json:"sessionId" binding:"required"`
}

func (r SignRequest) Validate() error {
	if r.FileName == "" || r.ContentType == "" || r.PropertyID == "" || r.SessionID == "" {
		return ErrMissingParameters
	}
	return nil
}

type SignResponse struct {
	SignedURL string `json:"signedUrl"`
	PublicURL string `json:"publicUrl"`
}

type Signer interface {
	Sign(ctx context.Context, req SignRequest) (*SignResponse, error)
}

// StoreSigner signs photo uploads directly against an object store. The
// server's /uploads/sign endpoint is backed by one.
type StoreSigner struct {
	store  storage.ObjectStore
	expiry time.Duration
}

func NewStoreSigner(store storage.ObjectStore, expiry time.Duration) *StoreSigner {
	return &StoreSigner{store: store, expiry: expiry}
}

func (s *StoreSigner) Sign(_ context.Context, req SignRequest) (*SignResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	objectName := storage.PhotoObjectName(req.PropertyID, req.SessionID, req.FileName)
	signed, err := s.store.GetSignedUploadURL(objectName, req.ContentType, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload for %s: %w", objectName, err)
	}

	return &SignResponse{
		SignedURL: signed,
		PublicURL: s.store.PublicURL(objectName),
	}, nil
}

// RemoteSigner asks a running server for the signed URL.
type RemoteSigner struct {
	endpoint  string
	sessionID string
	client    *http.Client
}

func NewRemoteSigner(baseURL, sessionID string, client *http.Client) *RemoteSigner {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteSigner{
		endpoint:  strings.TrimRight(baseURL, "/") + "/api/v1/uploads/sign",
		sessionID: sessionID,
		client:    client,
	}
}

func (s *RemoteSigner) Sign(ctx context.Context, req SignRequest) (*SignResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sign request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create sign request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.sessionID != "" {
		httpReq.Header.Set("X-Session-ID", s.sessionID)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sign request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "sign", StatusCode: resp.StatusCode}
	}

	var out SignResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode sign response: %w", err)
	}
	if out.SignedURL == "" {
		return nil, fmt.Errorf("sign response has no signedUrl")
	}
	return &out, nil
}

type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
}

// Temporary reports whether repeating the request could succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusRequestTimeout
}
