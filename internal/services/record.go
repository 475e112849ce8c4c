package services

import (
	"errors"
	"fmt"
	"strings"

	"SPX-VAL/internal/models"

	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("valuation record not found")

// RecordService keeps the database copy of saved valuation documents.
type RecordService struct {
	db *gorm.DB
}

func NewRecordService(db *gorm.DB) *RecordService {
	return &RecordService{db: db}
}

// Create stores a document together with its photos in one transaction.
func (s *RecordService) Create(doc *models.ValuationDocument) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return fmt.Errorf("failed to save valuation document: %w", err)
		}
		return nil
	})
}

func (s *RecordService) Get(id string) (*models.ValuationDocument, error) {
	var doc models.ValuationDocument
	err := s.db.Preload("Photos").First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load valuation document: %w", err)
	}
	return &doc, nil
}

// SetPDFPath records where the exported PDF of the document stored at
// documentPath was written.
func (s *RecordService) SetPDFPath(documentPath, objectName string) error {
	res := s.db.Model(&models.ValuationDocument{}).Where("document_path = ?", documentPath).Update("pdf_path", objectName)
	if res.Error != nil {
		return fmt.Errorf("failed to update pdf path: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, documentPath)
	}
	return nil
}

// RecordFilter narrows List. Empty fields match everything.
type RecordFilter struct {
	Username   string
	BankCode   string
	FileNumber string
}

// List returns records newest first with the total matching count.
func (s *RecordService) List(filter RecordFilter, limit, offset int) ([]models.ValuationDocument, int64, error) {
	var docs []models.ValuationDocument
	var total int64

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Username != "" {
			db = db.Where("username = ?", filter.Username)
		}
		if filter.BankCode != "" {
			db = db.Where("bank_code = ?", filter.BankCode)
		}
		if filter.FileNumber != "" {
			db = db.Where("file_number LIKE ?", strings.TrimSpace(filter.FileNumber)+"%")
		}
		return db
	}

	if err := s.db.Model(&models.ValuationDocument{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	query := s.db.Scopes(scope)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Preload("Photos").Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch records: %w", err)
	}

	return docs, total, nil
}
