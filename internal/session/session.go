// Package session holds the per-agent working context: who is signed in,
// which bank and valuation type they picked, the open document with its
// field list, and the photos captured for it.
package session

import (
	"errors"
	"sync"
	"time"

	"SPX-VAL/internal/fields"
	"SPX-VAL/internal/filename"
	"SPX-VAL/internal/models"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrNoDocument    = errors.New("no document open")
	ErrPhotoNotFound = errors.New("photo not found")
)

// Document is the opened .docx and its editing state. Package holds the
// bytes as uploaded; edits live in Fields until the document is saved.
type Document struct {
	ID        string            `json:"id"`
	FileName  string            `json:"fileName"`
	Identity  filename.Identity `json:"identity"`
	Package   []byte            `json:"-"`
	Fields    fields.Fields     `json:"fields"`
	Originals map[string]string `json:"-"`
	OpenedAt  time.Time         `json:"openedAt"`
	SavedAs   string            `json:"savedAs,omitempty"`
	SavedAt   *time.Time        `json:"savedAt,omitempty"`
}

// clone copies the mutable parts; Package is shared because nothing
// writes to it.
func (d *Document) clone() *Document {
	out := *d
	out.Fields = d.Fields.Clone()
	if d.SavedAt != nil {
		at := *d.SavedAt
		out.SavedAt = &at
	}
	out.Originals = make(map[string]string, len(d.Originals))
	for k, v := range d.Originals {
		out.Originals[k] = v
	}
	return &out
}

type Session struct {
	ID        string
	User      models.User
	CreatedAt time.Time

	mu            sync.Mutex
	lastSeen      time.Time
	bank          *models.Bank
	valuationType *models.ValuationType
	document      *Document
	photos        []models.PhotoMetadata
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) Bank() *models.Bank {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bank == nil {
		return nil
	}
	b := *s.bank
	return &b
}

// SelectBank stores the chosen bank. An open document takes the new bank
// code; that field is read-only to the agent but follows the selection.
func (s *Session) SelectBank(bank models.Bank) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bank = &bank
	if s.document != nil {
		s.document.Fields.Assign(fields.KeyBankCode, bank.Code)
	}
}

func (s *Session) ValuationType() *models.ValuationType {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.valuationType == nil {
		return nil
	}
	v := *s.valuationType
	return &v
}

func (s *Session) SelectValuationType(vt models.ValuationType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.valuationType = &vt
}

// OpenDocument replaces the current document. Photos belong to a document,
// so they are cleared too.
func (s *Session) OpenDocument(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = doc
	s.photos = nil
}

// Document returns a copy of the open document.
func (s *Session) Document() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.document == nil {
		return nil, ErrNoDocument
	}
	return s.document.clone(), nil
}

// CloseDocument discards the document and its photos, returning what was
// removed so the caller can release stored objects.
func (s *Session) CloseDocument() (*Document, []models.PhotoMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, photos := s.document, s.photos
	s.document, s.photos = nil, nil
	return doc, photos
}

// SetField edits one field of the open document.
func (s *Session) SetField(key, value string) (fields.DocumentField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.document == nil {
		return fields.DocumentField{}, ErrNoDocument
	}
	if err := s.document.Fields.Set(key, value); err != nil {
		return fields.DocumentField{}, err
	}
	f, _ := s.document.Fields.Get(key)
	return f, nil
}

// Changes computes the change set of the open document.
func (s *Session) Changes() (fields.ChangeSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.document == nil {
		return fields.ChangeSet{}, ErrNoDocument
	}
	return fields.Changes(s.document.Fields, s.document.Originals), nil
}

// ApplyUpdate stores a value produced after extraction. It is dropped when
// documentID is no longer the open document. Originals are left alone, so
// a regenerated file number shows up as a change.
func (s *Session) ApplyUpdate(documentID string, u fields.Update) bool {
	if u.Err != nil || u.Value == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.document == nil || s.document.ID != documentID {
		return false
	}
	return s.document.Fields.Assign(u.Key, u.Value)
}

// MarkSaved records where documentID was last saved. Photos of a saved
// document are kept in storage when it is closed.
func (s *Session) MarkSaved(documentID, objectName string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.document == nil || s.document.ID != documentID {
		return false
	}
	s.document.SavedAs = objectName
	s.document.SavedAt = &at
	return true
}

func (s *Session) AddPhoto(photo models.PhotoMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.document == nil {
		return ErrNoDocument
	}
	s.photos = append(s.photos, photo)
	return nil
}

func (s *Session) RemovePhoto(id string) (models.PhotoMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.photos {
		if p.ID == id {
			s.photos = append(s.photos[:i:i], s.photos[i+1:]...)
			return p, nil
		}
	}
	return models.PhotoMetadata{}, ErrPhotoNotFound
}

func (s *Session) Photos() []models.PhotoMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PhotoMetadata(nil), s.photos...)
}

// ViewKey identifies the rendered view of the open document, used to
// supersede in-flight previews.
func (s *Session) ViewKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.document == nil {
		return s.ID
	}
	return s.ID + ":" + s.document.ID
}
