package services

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"SPX-VAL/internal"
	"SPX-VAL/internal/fields"
	"SPX-VAL/internal/preview"
	"SPX-VAL/internal/processor"
	"SPX-VAL/internal/session"
	"SPX-VAL/internal/storage"
	"SPX-VAL/internal/store"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testDocName = "10216 - Flat - Plot 4 Gruham - Pune - Asha Patil - [bL].docx"

const testBody = `<w:p><w:r><w:t xml:space="preserve">File Number: </w:t></w:r><w:r><w:t>10216</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t xml:space="preserve">Customer Name: </w:t></w:r><w:r><w:t>Asha Patil</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Bank [bL]</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Remarks: {{remarks}}</w:t></w:r></w:p>` +
	`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+
		body+`</w:body></w:document>`)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixedSequence string

func (s fixedSequence) NextFileNumber(context.Context) (string, error) {
	return string(s), nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := internal.OpenDB(sqlite.Open(filepath.Join(t.TempDir(), "spx.db")), nil)
	require.NoError(t, err)
	t.Cleanup(func() { internal.CloseDB(db) })
	return db
}

type harness struct {
	docs     *DocumentService
	photos   *PhotoService
	store    *storage.LocalStore
	audit    *store.AuditLog
	records  *RecordService
	sessions *session.Manager
	pdf      *fakePDF
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithRenderer(t, preview.NewDocxRenderer())
}

func newHarnessWithRenderer(t *testing.T, renderer preview.Renderer) *harness {
	t.Helper()
	dir := t.TempDir()

	objects, err := storage.NewLocalStore(filepath.Join(dir, "objects"), "http://localhost:8080/api/v1/objects", "")
	require.NoError(t, err)
	audit, err := store.NewAuditLog(filepath.Join(dir, "logs.csv"), nil)
	require.NoError(t, err)

	records := NewRecordService(openTestDB(t))
	pdf := &fakePDF{out: []byte("%PDF-1.7")}

	return &harness{
		docs: NewDocumentService(DocumentServiceOptions{
			Extractor: fields.NewExtractor(fixedSequence("10301"), nil),
			Processor: processor.NewDocxProcessor(nil),
			Previewer: preview.NewPreviewer(renderer, nil),
			Store:     objects,
			Audit:     audit,
			Records:   records,
			PDF:       pdf,
		}),
		photos:   NewPhotoService(objects, nil, nil),
		store:    objects,
		audit:    audit,
		records:  records,
		sessions: session.NewManager(0, nil),
		pdf:      pdf,
	}
}

type fakePDF struct {
	out       []byte
	err       error
	landscape bool
	filename  string
	input     []byte
}

func (f *fakePDF) ConvertDocxToPDF(_ context.Context, docx []byte, filename string, landscape bool) ([]byte, error) {
	f.input, f.filename, f.landscape = docx, filename, landscape
	return f.out, f.err
}

// gatedRenderer holds its first render until release is closed.
type gatedRenderer struct {
	inner   preview.Renderer
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedRenderer() *gatedRenderer {
	return &gatedRenderer{
		inner:   preview.NewDocxRenderer(),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gatedRenderer) Render(ctx context.Context, pkg []byte) (*html.Node, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		<-g.release
	}
	return g.inner.Render(ctx, pkg)
}
