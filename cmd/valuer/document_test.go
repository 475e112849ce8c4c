package main

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"SPX-VAL/internal/fields"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDocx(t *testing.T, path, body string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = io.WriteString(w, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+body+`</w:body></w:document>`)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestOpenWorkingDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "10216 - Flat - Plot 4 - Pune - Asha Patil - [bL].docx")
	writeDocx(t, path, `<w:p><w:r><w:t>Bank [bL]</w:t></w:r></w:p>`)

	logPath := filepath.Join(dir, "missing.csv")
	t.Cleanup(func() { docSets, docBank, docLogPath = nil, "", "" })
	docSets = []string{"remarks=Good condition"}
	docBank = "HDFC"
	docLogPath = logPath

	doc, err := openWorkingDocument(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Good condition", doc.fields.Value(fields.KeyRemarks))
	assert.Equal(t, "HDFC", doc.fields.Value(fields.KeyBankCode))
	assert.Equal(t, "bL", doc.originals[fields.KeyBankCode])
	assert.Equal(t, "10000", doc.fields.Value(fields.KeyFileNumber), "placeholder number is regenerated")

	docSets = []string{"referenceCode=X"}
	_, err = openWorkingDocument(context.Background(), path)
	assert.ErrorIs(t, err, fields.ErrReadOnlyField)

	docSets = []string{"novalue"}
	_, err = openWorkingDocument(context.Background(), path)
	assert.Error(t, err)
}
