package processor

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"SPX-VAL/internal/fields"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

const (
	DocxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	documentPart = "word/document.xml"
)

var (
	ErrUnreadablePackage   = errors.New("unreadable document package")
	ErrMissingDocumentBody = errors.New("document body entry missing")
)

// Package is a decoded copy of a .docx archive. The caller's bytes are
// never touched; Repack produces a new buffer.
type Package struct {
	files []*zip.File
	body  string
	entry *zip.File
}

func OpenPackage(data []byte) (*Package, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadablePackage, err)
	}

	pkg := &Package{files: reader.File}
	for _, file := range reader.File {
		if file.Name == documentPart {
			pkg.entry = file
			break
		}
	}
	if pkg.entry == nil {
		return nil, ErrMissingDocumentBody
	}

	rc, err := pkg.entry.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnreadablePackage, documentPart, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnreadablePackage, documentPart, err)
	}
	pkg.body = string(content)

	return pkg, nil
}

// Body returns the raw XML of word/document.xml.
func (p *Package) Body() string {
	return p.body
}

// Repack writes a new archive with body in place of the document part.
// Every other entry is copied without recompression.
func (p *Package) Repack(body string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, file := range p.files {
		if file != p.entry {
			if err := zw.Copy(file); err != nil {
				return nil, fmt.Errorf("failed to copy %s: %w", file.Name, err)
			}
			continue
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     file.Name,
			Method:   zip.Deflate,
			Modified: file.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", file.Name, err)
		}
		if _, err := io.WriteString(w, body); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

type MergeResult struct {
	Data     []byte   `json:"-"`
	MimeType string   `json:"mime_type"`
	Applied  []string `json:"applied"`
}

type DocxProcessor struct {
	logger *zap.Logger
	fold   cases.Caser
}

func NewDocxProcessor(logger *zap.Logger) *DocxProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocxProcessor{
		logger: logger.With(zap.String("component", "docx")),
		fold:   cases.Fold(),
	}
}

// Merge rewrites the visible text of the document so it reflects values.
// Values are applied in map order against one evolving XML string, so an
// earlier substitution can feed a later one. Fields whose text cannot be
// located are skipped; only an unreadable package or a missing body fails.
//
// originals supplies the values captured when the document was opened; the
// bank code is replaced by looking for the original code in the text.
func (dp *DocxProcessor) Merge(data []byte, values *fields.ValueMap, originals map[string]string) (*MergeResult, error) {
	pkg, err := OpenPackage(data)
	if err != nil {
		return nil, err
	}

	body := pkg.Body()
	placeholders := placeholdersIn(body)
	seen := make(map[string]bool)
	var applied []string

	dp.logger.Debug("merging fields",
		zap.Int("values", values.Len()),
		zap.Int("placeholders", len(placeholders)),
		zap.Int("body_bytes", len(body)))

	values.Range(func(name, value string) bool {
		if value == "" {
			return true
		}
		norm := dp.normalize(name)
		if norm == "" || seen[norm] {
			return true
		}
		seen[norm] = true

		next := dp.mergeField(body, name, norm, value, originals, placeholders)
		if next != body {
			applied = append(applied, name)
			body = next
		}
		return true
	})

	out, err := pkg.Repack(body)
	if err != nil {
		return nil, err
	}

	dp.logger.Debug("merge completed", zap.Strings("applied", applied))

	return &MergeResult{
		Data:     out,
		MimeType: DocxMimeType,
		Applied:  applied,
	}, nil
}

// mergeField applies every substitution strategy for one field. A failure
// inside one field leaves the body as it was and the merge carries on.
func (dp *DocxProcessor) mergeField(body, name, norm, value string, originals map[string]string, placeholders []string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			dp.logger.Warn("field substitution failed",
				zap.String("field", name),
				zap.Any("panic", r))
			out = body
		}
	}()

	out = body
	escaped := escapeXMLText(value)

	// Placeholders go first so a label match cannot eat half of a split one.
	for _, placeholder := range placeholders {
		if dp.normalize(strings.Trim(placeholder, "{}")) != norm {
			continue
		}
		out = replaceXMLSafe(out, placeholder, escaped)
	}

	for _, label := range labelCatalog {
		if !strings.Contains(norm, dp.compact(label)) {
			continue
		}
		out = replaceLabeledValue(out, label, escaped)
	}

	if norm == dp.compact(fields.KeyBankCode) {
		out = replaceBankCode(out, originals[fields.KeyBankCode], value)
	}

	return out
}

// normalize folds case and drops whitespace, so "File Number" and
// "fileNumber" name the same field.
func (dp *DocxProcessor) normalize(name string) string {
	return dp.compact(name)
}

func (dp *DocxProcessor) compact(s string) string {
	return strings.Join(strings.Fields(dp.fold.String(s)), "")
}

// ExtractPlaceholders lists the distinct {{placeholder}} tokens in a package.
func ExtractPlaceholders(data []byte) ([]string, error) {
	pkg, err := OpenPackage(data)
	if err != nil {
		return nil, err
	}
	return placeholdersIn(pkg.Body()), nil
}

var xmlTextEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeXMLText(s string) string {
	return xmlTextEscaper.Replace(s)
}
