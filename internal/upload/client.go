package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultMaxRetries = 3

type Client struct {
	signer     Signer
	http       *http.Client
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

func NewClient(signer Signer, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		signer:     signer,
		http:       httpClient,
		logger:     logger.With(zap.String("component", "upload")),
		maxRetries: defaultMaxRetries,
		backoff:    time.Second,
	}
}

// WithRetry overrides the attempt count and the base delay; attempt n waits
// n*backoff before trying again.
func (c *Client) WithRetry(maxRetries int, backoff time.Duration) *Client {
	if maxRetries > 0 {
		c.maxRetries = maxRetries
	}
	c.backoff = backoff
	return c
}

// Upload signs and PUTs data, returning the public URL of the stored object.
// Each attempt asks for a fresh signature.
func (c *Client) Upload(ctx context.Context, data []byte, req SignRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		publicURL, err := c.attempt(ctx, data, req)
		if err == nil {
			return publicURL, nil
		}
		lastErr = err

		if !retryable(err) {
			break
		}
		c.logger.Warn("upload attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.maxRetries),
			zap.String("file", req.FileName),
			zap.Error(err))

		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
	}

	return "", fmt.Errorf("failed to upload %s: %w", req.FileName, lastErr)
}

func (c *Client) attempt(ctx context.Context, data []byte, req SignRequest) (string, error) {
	signed, err := c.signer.Sign(ctx, req)
	if err != nil {
		return "", err
	}

	put, err := http.NewRequestWithContext(ctx, http.MethodPut, signed.SignedURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	put.Header.Set("Content-Type", req.ContentType)
	put.ContentLength = int64(len(data))

	resp, err := c.http.Do(put)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Op: "upload", StatusCode: resp.StatusCode}
	}
	return signed.PublicURL, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrMissingParameters) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
