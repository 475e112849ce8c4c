package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"SPX-VAL/internal/models"

	"go.uber.org/zap"
)

// TimestampLayout is how audit rows record the save time (UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var logHeader = []string{
	"timestamp", "username", "fileNumber", "propertyType", "location", "customerName",
	"bankCode", "referenceCode", "inspectionDate", "inspectionTime", "valuerName",
	"propertyValue", "remarks", "documentPath", "gpsLatitude", "gpsLongitude",
	"photoCount", "photoPaths",
}

// fileNumberColumn is the index of fileNumber in logHeader.
const fileNumberColumn = 2

// AuditLog is the append-only CSV of saved documents.
type AuditLog struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

func NewAuditLog(path string, logger *zap.Logger) (*AuditLog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ensureFile(path, logHeader); err != nil {
		return nil, err
	}
	return &AuditLog{path: path, logger: logger.With(zap.String("component", "audit"))}, nil
}

func (l *AuditLog) Path() string {
	return l.path
}

// Append writes one row.
func (l *AuditLog) Append(entry models.DocumentLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := appendRecord(l.path, encodeLog(entry)); err != nil {
		return err
	}
	l.logger.Info("document logged",
		zap.String("username", entry.Username),
		zap.String("file_number", entry.FileNumber),
		zap.Int("photos", entry.PhotoCount))
	return nil
}

// Entries returns all rows, oldest first.
func (l *AuditLog) Entries() ([]models.DocumentLog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := readRecords(l.path)
	if err != nil {
		return nil, err
	}

	entries := make([]models.DocumentLog, 0, len(records))
	for _, rec := range records {
		entries = append(entries, decodeLog(rec))
	}
	return entries, nil
}

func encodeLog(e models.DocumentLog) []string {
	return []string{
		e.Timestamp.UTC().Format(TimestampLayout),
		e.Username,
		e.FileNumber,
		e.PropertyType,
		e.Location,
		e.CustomerName,
		e.BankCode,
		e.ReferenceCode,
		e.InspectionDate,
		e.InspectionTime,
		e.ValuerName,
		e.PropertyValue,
		e.Remarks,
		e.DocumentPath,
		e.GPSLatitude,
		e.GPSLongitude,
		strconv.Itoa(e.PhotoCount),
		strings.Join(e.PhotoPaths, ";"),
	}
}

func decodeLog(rec []string) models.DocumentLog {
	col := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}

	e := models.DocumentLog{
		Username:       col(1),
		FileNumber:     col(2),
		PropertyType:   col(3),
		Location:       col(4),
		CustomerName:   col(5),
		BankCode:       col(6),
		ReferenceCode:  col(7),
		InspectionDate: col(8),
		InspectionTime: col(9),
		ValuerName:     col(10),
		PropertyValue:  col(11),
		Remarks:        col(12),
		DocumentPath:   col(13),
		GPSLatitude:    col(14),
		GPSLongitude:   col(15),
	}
	if ts, err := time.Parse(TimestampLayout, col(0)); err == nil {
		e.Timestamp = ts
	}
	e.PhotoCount, _ = strconv.Atoi(col(16))
	if paths := col(17); paths != "" {
		e.PhotoPaths = strings.Split(paths, ";")
	}
	return e
}

// readRecords returns the data rows of a CSV file, header excluded.
func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == logHeader[0] {
				continue
			}
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
