package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
	"go.uber.org/zap"
)

// PDFConverter turns a merged .docx into PDF bytes.
type PDFConverter interface {
	ConvertDocxToPDF(ctx context.Context, docx []byte, filename string, landscape bool) ([]byte, error)
}

type PDFService struct {
	client     *gotenberg.Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

func NewPDFService(gotenbergURL string, timeoutStr string, logger *zap.Logger) (*PDFService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "pdf"))

	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		logger.Warn("invalid gotenberg timeout, using default",
			zap.String("timeout", timeoutStr),
			zap.Duration("default", timeout),
			zap.Error(err))
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	client, err := gotenberg.NewClient(gotenbergURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	return &PDFService{
		client:     client,
		timeout:    timeout,
		maxRetries: 3,
		backoff:    time.Second,
		logger:     logger,
	}, nil
}

// ConvertDocxToPDF sends the document to Gotenberg's LibreOffice route,
// retrying failed attempts with a growing pause.
func (s *PDFService) ConvertDocxToPDF(ctx context.Context, docx []byte, filename string, landscape bool) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		out, err := s.convert(ctx, docx, filename, landscape)
		if err == nil {
			return out, nil
		}

		lastErr = err
		s.logger.Warn("PDF conversion attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", s.maxRetries),
			zap.String("filename", filename),
			zap.Error(err))

		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * s.backoff):
			}
		}
	}

	return nil, fmt.Errorf("failed to convert document after %d attempts: %w", s.maxRetries, lastErr)
}

func (s *PDFService) convert(ctx context.Context, docx []byte, filename string, landscape bool) ([]byte, error) {
	convertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc, err := document.FromReader(filename, bytes.NewReader(docx))
	if err != nil {
		return nil, fmt.Errorf("failed to create document from reader: %w", err)
	}

	req := gotenberg.NewLibreOfficeRequest(doc)
	if landscape {
		req.Landscape()
	}

	resp, err := s.client.Send(convertCtx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}

	// Read before the attempt's context is cancelled.
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read converted document: %w", err)
	}
	return out, nil
}

func (s *PDFService) Close() error {
	return nil
}
