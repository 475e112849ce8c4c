package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"SPX-VAL/internal/fields"
	"SPX-VAL/internal/filename"
	"SPX-VAL/internal/models"
	"SPX-VAL/internal/preview"
	"SPX-VAL/internal/processor"
	"SPX-VAL/internal/session"
	"SPX-VAL/internal/storage"
	"SPX-VAL/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotDocx          = errors.New("only .docx files are supported")
	ErrBankNotSelected  = errors.New("no bank selected")
	ErrPDFNotConfigured = errors.New("pdf conversion is not configured")
)

// fileNumberLookupTime bounds the background file number regeneration.
const fileNumberLookupTime = 10 * time.Second

// DocumentService runs the open → edit → preview → save cycle for the
// document held in a session.
type DocumentService struct {
	extractor *fields.Extractor
	processor *processor.DocxProcessor
	previewer *preview.Previewer
	store     storage.ObjectStore
	audit     *store.AuditLog
	records   *RecordService
	pdf       PDFConverter
	logger    *zap.Logger
	now       func() time.Time
}

type DocumentServiceOptions struct {
	Extractor *fields.Extractor
	Processor *processor.DocxProcessor
	Previewer *preview.Previewer
	Store     storage.ObjectStore
	Audit     *store.AuditLog
	// Records and PDF are optional.
	Records *RecordService
	PDF     PDFConverter
	Logger  *zap.Logger
}

func NewDocumentService(opts DocumentServiceOptions) *DocumentService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		extractor: opts.Extractor,
		processor: opts.Processor,
		previewer: opts.Previewer,
		store:     opts.Store,
		audit:     opts.Audit,
		records:   opts.Records,
		pdf:       opts.PDF,
		logger:    logger.With(zap.String("component", "documents")),
		now:       time.Now,
	}
}

// WithClock overrides the save timestamp source.
func (s *DocumentService) WithClock(now func() time.Time) *DocumentService {
	s.now = now
	return s
}

// Open validates the uploaded package, extracts its fields from the file
// name and makes it the session's document. A regenerated file number is
// applied in the background if the session still holds this document when
// it arrives.
func (s *DocumentService) Open(ctx context.Context, sess *session.Session, name string, data []byte) (*session.Document, error) {
	if !strings.EqualFold(filepath.Ext(name), ".docx") {
		return nil, ErrNotDocx
	}
	if _, err := processor.OpenPackage(data); err != nil {
		return nil, err
	}

	id := filename.Parse(name)
	lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fileNumberLookupTime)
	fs, updates := s.extractor.Extract(lookupCtx, id)

	doc := &session.Document{
		ID:        uuid.New().String(),
		FileName:  name,
		Identity:  id,
		Package:   data,
		Fields:    fs,
		Originals: fs.Snapshot(),
		OpenedAt:  s.now(),
	}

	s.previewer.Cancel(sess.ViewKey())
	sess.OpenDocument(doc)

	go func() {
		defer cancel()
		for u := range updates {
			if sess.ApplyUpdate(doc.ID, u) {
				s.logger.Info("file number assigned",
					zap.String("session_id", sess.ID),
					zap.String("document_id", doc.ID),
					zap.String("file_number", u.Value))
			}
		}
	}()

	s.logger.Info("document opened",
		zap.String("session_id", sess.ID),
		zap.String("document_id", doc.ID),
		zap.String("filename", name),
		zap.String("bank_code", id.BankCode))

	return sess.Document()
}

func (s *DocumentService) Fields(sess *session.Session) (fields.Fields, error) {
	doc, err := sess.Document()
	if err != nil {
		return nil, err
	}
	return doc.Fields, nil
}

// UpdateField edits one field. A preview still rendering for the document
// is abandoned since its change set is now out of date.
func (s *DocumentService) UpdateField(sess *session.Session, key, value string) (fields.DocumentField, error) {
	f, err := sess.SetField(key, value)
	if err != nil {
		return f, err
	}
	s.previewer.Cancel(sess.ViewKey())
	return f, nil
}

func (s *DocumentService) Changes(sess *session.Session) (fields.ChangeSet, error) {
	return sess.Changes()
}

// Preview renders the document as uploaded with every pending change marked.
func (s *DocumentService) Preview(ctx context.Context, sess *session.Session) ([]byte, error) {
	doc, err := sess.Document()
	if err != nil {
		return nil, err
	}
	changes := fields.Changes(doc.Fields, doc.Originals)

	result, err := s.previewer.Preview(ctx, sess.ViewKey(), doc.Package, changes, nil)
	if err != nil {
		return nil, err
	}

	// Bank selection and the late file number change the set without going
	// through UpdateField.
	current, err := sess.Changes()
	if err != nil {
		return nil, preview.ErrSuperseded
	}
	if !current.Equal(changes) {
		s.logger.Debug("preview discarded, changes moved on", zap.String("session_id", sess.ID))
		return nil, preview.ErrSuperseded
	}
	return preview.Page(doc.FileName, result)
}

// Merge applies the session's current field values to its document.
func (s *DocumentService) Merge(sess *session.Session) (*session.Document, *processor.MergeResult, error) {
	doc, err := sess.Document()
	if err != nil {
		return nil, nil, err
	}
	result, err := s.processor.Merge(doc.Package, doc.Fields.ValueMap(), doc.Originals)
	if err != nil {
		return nil, nil, err
	}
	return doc, result, nil
}

type SaveResult struct {
	FileName   string             `json:"fileName"`
	ObjectName string             `json:"objectName"`
	URL        string             `json:"url"`
	Size       int64              `json:"size"`
	Applied    []string           `json:"applied"`
	Log        models.DocumentLog `json:"log"`
	RecordID   string             `json:"recordId,omitempty"`
}

// Save merges, uploads the result under its generated name and appends the
// audit row. Nothing is logged when the upload fails. The database record
// is best effort.
func (s *DocumentService) Save(ctx context.Context, sess *session.Session) (*SaveResult, error) {
	if sess.Bank() == nil {
		return nil, ErrBankNotSelected
	}

	doc, merged, err := s.Merge(sess)
	if err != nil {
		return nil, err
	}
	photos := sess.Photos()
	f := doc.Fields

	newName := filename.Build(
		f.Value(fields.KeyFileNumber),
		f.Value(fields.KeyPropertyType),
		f.Value(fields.KeyLocation),
		f.Value(fields.KeyCustomerName),
		f.Value(fields.KeyBankCode),
	)
	objectName := storage.DocumentObjectName(f.Value(fields.KeyFileNumber), sess.ID, newName)

	uploaded, err := s.store.UploadFile(ctx, bytes.NewReader(merged.Data), objectName, merged.MimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	now := s.now().UTC()
	entry := buildLog(now, sess.User.Username, f, newName, photos)
	if err := s.audit.Append(entry); err != nil {
		return nil, fmt.Errorf("failed to write audit log: %w", err)
	}
	sess.MarkSaved(doc.ID, objectName, now)

	res := &SaveResult{
		FileName:   newName,
		ObjectName: objectName,
		URL:        uploaded.PublicURL,
		Size:       uploaded.Size,
		Applied:    merged.Applied,
		Log:        entry,
	}

	if s.records != nil {
		record := s.buildRecord(sess, doc, res, photos, merged.MimeType)
		if err := s.records.Create(record); err != nil {
			s.logger.Warn("failed to record saved document",
				zap.String("document", newName),
				zap.Error(err))
		} else {
			res.RecordID = record.ID
		}
	}

	s.logger.Info("document saved",
		zap.String("session_id", sess.ID),
		zap.String("username", sess.User.Username),
		zap.String("object", objectName),
		zap.Int("photos", len(photos)),
		zap.Strings("applied", merged.Applied))

	return res, nil
}

// buildLog takes GPS from the first photo only; photo paths are the photos
// that reached storage.
func buildLog(now time.Time, username string, f fields.Fields, docName string, photos []models.PhotoMetadata) models.DocumentLog {
	entry := models.DocumentLog{
		Timestamp:      now,
		Username:       username,
		FileNumber:     f.Value(fields.KeyFileNumber),
		PropertyType:   f.Value(fields.KeyPropertyType),
		Location:       f.Value(fields.KeyLocation),
		CustomerName:   f.Value(fields.KeyCustomerName),
		BankCode:       f.Value(fields.KeyBankCode),
		ReferenceCode:  f.Value(fields.KeyReferenceCode),
		InspectionDate: f.Value(fields.KeyInspectionDate),
		InspectionTime: f.Value(fields.KeyInspectionTime),
		ValuerName:     f.Value(fields.KeyValuerName),
		PropertyValue:  f.Value(fields.KeyPropertyValue),
		Remarks:        f.Value(fields.KeyRemarks),
		DocumentPath:   docName,
		PhotoCount:     len(photos),
	}

	if len(photos) > 0 && photos[0].Location != nil {
		entry.GPSLatitude = fmt.Sprintf("%.6f", photos[0].Location.Latitude)
		entry.GPSLongitude = fmt.Sprintf("%.6f", photos[0].Location.Longitude)
	}
	for _, p := range photos {
		if p.ObjectPath != "" {
			entry.PhotoPaths = append(entry.PhotoPaths, p.ObjectPath)
		}
	}
	return entry
}

func (s *DocumentService) buildRecord(sess *session.Session, doc *session.Document, res *SaveResult, photos []models.PhotoMetadata, mimeType string) *models.ValuationDocument {
	values, _ := json.Marshal(doc.Fields.Snapshot())

	valuationType := ""
	if vt := sess.ValuationType(); vt != nil {
		valuationType = vt.ID
	}

	record := &models.ValuationDocument{
		ID:            uuid.New().String(),
		SessionID:     sess.ID,
		Username:      sess.User.Username,
		FileNumber:    doc.Fields.Value(fields.KeyFileNumber),
		ReferenceCode: doc.Fields.Value(fields.KeyReferenceCode),
		BankCode:      doc.Fields.Value(fields.KeyBankCode),
		ValuationType: valuationType,
		Filename:      res.FileName,
		DocumentPath:  res.ObjectName,
		FileSize:      res.Size,
		MimeType:      mimeType,
		Fields:        string(values),
	}

	for _, p := range photos {
		photo := models.Photo{
			ID:         p.ID,
			DocumentID: record.ID,
			Filename:   p.Filename,
			ObjectPath: p.ObjectPath,
			URL:        p.URL,
			BlurHash:   p.BlurHash,
			Heading:    p.Compass,
			TakenAt:    p.Timestamp,
		}
		if p.Location != nil {
			lat, lon := p.Location.Latitude, p.Location.Longitude
			photo.Latitude, photo.Longitude = &lat, &lon
			photo.Address = p.Location.Address
		}
		record.Photos = append(record.Photos, photo)
	}
	return record
}

type PDFResult struct {
	FileName   string
	Data       []byte
	ObjectName string
}

// ExportPDF converts the merged document, keeping the orientation of its
// section properties. A saved document also gets the PDF stored next to it.
func (s *DocumentService) ExportPDF(ctx context.Context, sess *session.Session) (*PDFResult, error) {
	if s.pdf == nil {
		return nil, ErrPDFNotConfigured
	}

	doc, merged, err := s.Merge(sess)
	if err != nil {
		return nil, err
	}

	landscape, err := processor.DetectOrientation(merged.Data)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))
	out, err := s.pdf.ConvertDocxToPDF(ctx, merged.Data, base+".docx", landscape)
	if err != nil {
		return nil, err
	}

	res := &PDFResult{FileName: base + ".pdf", Data: out}
	if doc.SavedAs != "" {
		objectName := strings.TrimSuffix(doc.SavedAs, ".docx") + ".pdf"
		if _, err := s.store.UploadFile(ctx, bytes.NewReader(out), objectName, "application/pdf"); err != nil {
			s.logger.Warn("failed to store pdf", zap.String("object", objectName), zap.Error(err))
		} else {
			res.ObjectName = objectName
			if s.records != nil {
				if err := s.records.SetPDFPath(doc.SavedAs, objectName); err != nil {
					s.logger.Warn("failed to record pdf path", zap.String("object", objectName), zap.Error(err))
				}
			}
		}
	}
	return res, nil
}

// Close discards the session's document. Photos of a document that was
// never saved are removed from storage.
func (s *DocumentService) Close(ctx context.Context, sess *session.Session) error {
	s.previewer.Cancel(sess.ViewKey())
	doc, photos := sess.CloseDocument()
	if doc == nil {
		return session.ErrNoDocument
	}
	if doc.SavedAt != nil {
		return nil
	}
	for _, p := range photos {
		if p.ObjectPath == "" {
			continue
		}
		if err := s.store.DeleteFile(ctx, p.ObjectPath); err != nil {
			s.logger.Warn("failed to delete photo of discarded document",
				zap.String("object", p.ObjectPath),
				zap.Error(err))
		}
	}
	return nil
}
