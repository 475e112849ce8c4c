package models

import (
	"time"

	"gorm.io/gorm"
)

// ValuationDocument records one saved report and where its files live.
type ValuationDocument struct {
	ID            string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	SessionID     string         `gorm:"type:varchar(36);index" json:"session_id"`
	Username      string         `gorm:"type:varchar(191);index" json:"username"`
	FileNumber    string         `gorm:"type:varchar(32);index" json:"file_number"`
	ReferenceCode string         `gorm:"type:varchar(64)" json:"reference_code"`
	BankCode      string         `gorm:"type:varchar(32);index" json:"bank_code"`
	ValuationType string         `gorm:"type:varchar(64)" json:"valuation_type"`
	Filename      string         `gorm:"not null" json:"filename"`
	DocumentPath  string         `gorm:"not null" json:"document_path"`
	PDFPath       string         `json:"pdf_path,omitempty"`
	FileSize      int64          `json:"file_size"`
	MimeType      string         `json:"mime_type"`
	Fields        string         `gorm:"type:json" json:"fields"` // JSON object of key → value at save time
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Photos []Photo `gorm:"foreignKey:DocumentID" json:"photos,omitempty"`
}

func (ValuationDocument) TableName() string {
	return "valuation_documents"
}

type Photo struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	DocumentID string         `gorm:"type:varchar(36);not null;index" json:"document_id"`
	Filename   string         `gorm:"not null" json:"filename"`
	ObjectPath string         `gorm:"not null" json:"object_path"`
	URL        string         `json:"url"`
	BlurHash   string         `gorm:"type:varchar(64)" json:"blur_hash,omitempty"`
	Latitude   *float64       `json:"latitude,omitempty"`
	Longitude  *float64       `json:"longitude,omitempty"`
	Heading    *float64       `json:"heading,omitempty"`
	Address    string         `json:"address,omitempty"`
	TakenAt    time.Time      `json:"taken_at"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Photo) TableName() string {
	return "valuation_photos"
}
