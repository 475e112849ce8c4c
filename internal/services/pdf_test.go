package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFService_RetriesUntilConverted(t *testing.T) {
	var calls atomic.Int32
	var landscape atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		landscape.Store(r.FormValue("landscape"))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7 converted"))
	}))
	defer srv.Close()

	svc, err := NewPDFService(srv.URL, "5s", nil)
	require.NoError(t, err)
	svc.backoff = time.Millisecond

	out, err := svc.ConvertDocxToPDF(context.Background(), buildDocx(t, testBody), "report.docx", true)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 converted", string(out))
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, "true", landscape.Load())
}

func TestPDFService_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc, err := NewPDFService(srv.URL, "not-a-duration", nil)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, svc.timeout)
	svc.backoff = time.Millisecond

	_, err = svc.ConvertDocxToPDF(context.Background(), buildDocx(t, testBody), "report.docx", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.EqualValues(t, 3, calls.Load())
}
