package processor

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"SPX-VAL/internal/fields"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	contentTypes = `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`
	stylesXML    = `<?xml version="1.0" encoding="UTF-8"?><w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`
)

func wrapBody(inner string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		inner +
		`</w:body></w:document>`
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	return buildArchive(t, map[string]string{
		"[Content_Types].xml": contentTypes,
		"word/document.xml":   wrapBody(body),
		"word/styles.xml":     stylesXML,
	}, []string{"[Content_Types].xml", "word/document.xml", "word/styles.xml"})
}

func buildArchive(t *testing.T, entries map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readEntry(t *testing.T, data []byte, name string) string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range reader.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(content)
	}
	t.Fatalf("entry %s not found", name)
	return ""
}

func paragraph(runs ...string) string {
	out := "<w:p>"
	for _, r := range runs {
		out += r
	}
	return out + "</w:p>"
}

func run(text string) string {
	return `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

func boldRun(text string) string {
	return `<w:r><w:rPr><w:b/><w:sz w:val="24"/></w:rPr><w:t>` + text + `</w:t></w:r>`
}

func values(pairs ...string) *fields.ValueMap {
	m := fields.NewValueMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

func mergedText(t *testing.T, data []byte) string {
	t.Helper()
	text, err := PlainText(data)
	require.NoError(t, err)
	return text
}

func TestMerge_BankCode(t *testing.T) {
	src := buildDocx(t, paragraph(run("10300 - HFI - Plot 7 - Karmala - Laljibhai Gupta - [bL]")))

	result, err := NewDocxProcessor(nil).Merge(src,
		values("Bank Code", "HDFC", "bankCode", "HDFC"),
		map[string]string{fields.KeyBankCode: "bL"})
	require.NoError(t, err)

	text := mergedText(t, result.Data)
	assert.Contains(t, text, "[HDFC]")
	assert.NotContains(t, text, "[bL]")
	assert.Equal(t, DocxMimeType, result.MimeType)
	assert.Equal(t, []string{"Bank Code"}, result.Applied)
}

func TestMerge_BankCodeUnbracketedFallback(t *testing.T) {
	src := buildDocx(t, paragraph(run("Issued for SH by the panel")))

	result, err := NewDocxProcessor(nil).Merge(src,
		values("bankCode", "ICICI"),
		map[string]string{fields.KeyBankCode: "SH"})
	require.NoError(t, err)
	assert.Equal(t, "Issued for ICICI by the panel", mergedText(t, result.Data))
}

func TestMerge_BankCodeUnchanged(t *testing.T) {
	src := buildDocx(t, paragraph(run("[SH]")))

	result, err := NewDocxProcessor(nil).Merge(src,
		values("bankCode", "SH"),
		map[string]string{fields.KeyBankCode: "SH"})
	require.NoError(t, err)
	assert.Equal(t, "[SH]", mergedText(t, result.Data))
	assert.Empty(t, result.Applied)
}

func TestMerge_NoChangesKeepsContent(t *testing.T) {
	body := paragraph(run("Valuation report")) + paragraph(run("10300 - [SH]"))
	src := buildDocx(t, body)

	result, err := NewDocxProcessor(nil).Merge(src,
		values("File Number", "10300", "fileNumber", "10300", "bankCode", "SH"),
		map[string]string{fields.KeyBankCode: "SH", fields.KeyFileNumber: "10300"})
	require.NoError(t, err)

	assert.Equal(t, mergedText(t, src), mergedText(t, result.Data))
	assert.Equal(t, wrapBody(body), readEntry(t, result.Data, "word/document.xml"))
	assert.Equal(t, stylesXML, readEntry(t, result.Data, "word/styles.xml"))
	assert.Equal(t, contentTypes, readEntry(t, result.Data, "[Content_Types].xml"))
}

func TestMerge_LabeledValueInNextRun(t *testing.T) {
	src := buildDocx(t, paragraph(run("Remarks:"), boldRun("pending")))

	result, err := NewDocxProcessor(nil).Merge(src, values("Remarks", "Good condition"), nil)
	require.NoError(t, err)

	body := readEntry(t, result.Data, "word/document.xml")
	assert.Contains(t, body, `<w:rPr><w:b/><w:sz w:val="24"/></w:rPr><w:t>Good condition</w:t>`)
	assert.Equal(t, "Remarks:Good condition", mergedText(t, result.Data))
}

func TestMerge_LabeledValueSameRun(t *testing.T) {
	src := buildDocx(t, paragraph(`<w:r><w:t>Valuer Name: </w:t><w:t>TBD</w:t></w:r>`))

	result, err := NewDocxProcessor(nil).Merge(src, values("valuerName", "R. Kulkarni"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Valuer Name: R. Kulkarni", mergedText(t, result.Data))
}

func TestMerge_EscapesValues(t *testing.T) {
	src := buildDocx(t, paragraph(run("Remarks:"), run("-")))

	result, err := NewDocxProcessor(nil).Merge(src, values("remarks", `Roof & walls <ok> $1`), nil)
	require.NoError(t, err)

	body := readEntry(t, result.Data, "word/document.xml")
	assert.Contains(t, body, "Roof &amp; walls &lt;ok&gt; $1")
	assert.Equal(t, "Remarks:Roof & walls <ok> $1", mergedText(t, result.Data))
}

func TestMerge_SplitPlaceholder(t *testing.T) {
	src := buildDocx(t, paragraph(run("Customer: "), run("{{cust"), boldRun("omerName}}")))

	placeholders, err := ExtractPlaceholders(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"{{customerName}}"}, placeholders)

	result, err := NewDocxProcessor(nil).Merge(src, values("customerName", "Laljibhai Gupta"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Customer: Laljibhai Gupta", mergedText(t, result.Data))
}

func TestMerge_NormalizedNamesProcessedOnce(t *testing.T) {
	src := buildDocx(t, paragraph(run("Remarks:"), run("-")))

	result, err := NewDocxProcessor(nil).Merge(src,
		values("Remarks", "first", "remarks", "second", " REMARKS ", "third"), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Remarks"}, result.Applied)
	assert.Equal(t, "Remarks:first", mergedText(t, result.Data))
}

func TestMerge_UnlocatedFieldIsSkipped(t *testing.T) {
	src := buildDocx(t, paragraph(run("Nothing to see")))

	result, err := NewDocxProcessor(nil).Merge(src, values("propertyValue", "4500000", "Unknown", "x"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Nothing to see", mergedText(t, result.Data))
}

func TestMerge_Idempotent(t *testing.T) {
	src := buildDocx(t, paragraph(run("Property Value:"), run("0")) + paragraph(run("[bL]")))
	vals := values("Property Value", "4500000", "bankCode", "SH")
	originals := map[string]string{fields.KeyBankCode: "bL"}

	dp := NewDocxProcessor(nil)
	once, err := dp.Merge(src, vals, originals)
	require.NoError(t, err)
	twice, err := dp.Merge(once.Data, vals, originals)
	require.NoError(t, err)

	assert.Equal(t, mergedText(t, once.Data), mergedText(t, twice.Data))
}

func TestMerge_Errors(t *testing.T) {
	dp := NewDocxProcessor(nil)

	_, err := dp.Merge([]byte("not a zip archive"), values("remarks", "x"), nil)
	assert.ErrorIs(t, err, ErrUnreadablePackage)

	noBody := buildArchive(t, map[string]string{"word/styles.xml": stylesXML}, []string{"word/styles.xml"})
	_, err = dp.Merge(noBody, values("remarks", "x"), nil)
	assert.ErrorIs(t, err, ErrMissingDocumentBody)
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	src := buildDocx(t, paragraph(run("Remarks:"), run("-")))
	original := append([]byte(nil), src...)

	_, err := NewDocxProcessor(nil).Merge(src, values("remarks", "changed"), nil)
	require.NoError(t, err)
	assert.Equal(t, original, src)
}

func TestDetectOrientation(t *testing.T) {
	landscape := buildDocx(t, paragraph(run("x"))+`<w:sectPr><w:pgSz w:w="16838" w:h="11906" w:orient="landscape"/></w:sectPr>`)
	isLandscape, err := DetectOrientation(landscape)
	require.NoError(t, err)
	assert.True(t, isLandscape)

	portrait := buildDocx(t, paragraph(run("x"))+`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1440" w:left="720"/></w:sectPr>`)
	isLandscape, err = DetectOrientation(portrait)
	require.NoError(t, err)
	assert.False(t, isLandscape)

	layout := ParseLayout(wrapBody(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1440" w:left="720"/></w:sectPr>`))
	assert.InDelta(t, 595.3, layout.PageWidth, 0.01)
	assert.InDelta(t, 36, layout.LeftMargin, 0.01)
}

func TestBodyText(t *testing.T) {
	text, err := BodyText(wrapBody(paragraph(run("a"), `<w:r><w:tab/></w:r>`, run("b")) + paragraph(run("c &amp; d"))))
	require.NoError(t, err)
	assert.Equal(t, "a\tb\nc & d", text)
}

func TestMerge_LabeledValueStaysInItsParagraph(t *testing.T) {
	tabRun := `<w:r><w:rPr><w:b/></w:rPr><w:tab/></w:r>`
	body := paragraph(run("Remarks:"), tabRun, run("pending")) +
		paragraph(run("Clause 4: "), boldRun("The bank holds first charge"))
	src := buildDocx(t, body)

	result, err := NewDocxProcessor(nil).Merge(src, values("remarks", "Good condition"), nil)
	require.NoError(t, err)

	assert.Equal(t, "Remarks:\tpending\nClause 4: The bank holds first charge", mergedText(t, result.Data))
	assert.Equal(t, wrapBody(body), readEntry(t, result.Data, "word/document.xml"))
	assert.Empty(t, result.Applied)
}

func TestMerge_LabeledValueSkipsOtherRunLayouts(t *testing.T) {
	tests := []struct {
		name    string
		between string
	}{
		{"tab run", `<w:r><w:tab/></w:r>`},
		{"tab run with properties", `<w:r><w:rPr><w:b/><w:sz w:val="24"/></w:rPr><w:tab/></w:r>`},
		{"proofing mark", `<w:proofErr w:type="spellStart"/>`},
		{"bookmark", `<w:bookmarkStart w:id="0" w:name="remarks"/><w:bookmarkEnd w:id="0"/>`},
		{"empty text run", `<w:r><w:t/></w:r>`},
		{"empty preserved text run", `<w:r><w:t xml:space="preserve"/></w:r>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := paragraph(run("Remarks:"), tt.between, boldRun("pending")) +
				paragraph(run("Note: "), boldRun("unrelated"))
			src := buildDocx(t, body)

			result, err := NewDocxProcessor(nil).Merge(src, values("Remarks", "Good condition"), nil)
			require.NoError(t, err)
			assert.Equal(t, wrapBody(body), readEntry(t, result.Data, "word/document.xml"))
			assert.Equal(t, mergedText(t, src), mergedText(t, result.Data))
		})
	}
}

func TestMerge_RunPropertiesWithNestedValues(t *testing.T) {
	valueRun := `<w:r><w:rPr><w:rFonts w:ascii="Arial"/><w:lang w:val="en-IN"/></w:rPr><w:t>pending</w:t></w:r>`
	src := buildDocx(t, paragraph(run("Remarks:"), valueRun))

	result, err := NewDocxProcessor(nil).Merge(src, values("Remarks", "Good condition"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Remarks:Good condition", mergedText(t, result.Data))
}

func TestMerge_EmptyValuesAreNoOp(t *testing.T) {
	body := paragraph(run("File Number: "), run("10216")) +
		paragraph(run("Remarks:"), boldRun("pending")) +
		paragraph(run("Customer: {{customerName}} [bL]"))
	src := buildDocx(t, body)
	originals := map[string]string{fields.KeyBankCode: "bL"}

	for name, vals := range map[string]*fields.ValueMap{
		"no entries":   values(),
		"empty values": values("File Number", "", "fileNumber", "", "Remarks", "", "customerName", "", "bankCode", ""),
	} {
		t.Run(name, func(t *testing.T) {
			result, err := NewDocxProcessor(nil).Merge(src, vals, originals)
			require.NoError(t, err)
			assert.Empty(t, result.Applied)
			assert.Equal(t, mergedText(t, src), mergedText(t, result.Data))
			assert.Equal(t, wrapBody(body), readEntry(t, result.Data, "word/document.xml"))
		})
	}
}
