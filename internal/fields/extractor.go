package fields

import (
	"context"
	"fmt"
	"time"

	"SPX-VAL/internal/filename"

	"go.uber.org/zap"
)

// PlaceholderFileNumber is the file number carried by the blank template.
// Documents opened with it get a freshly sequenced number.
const PlaceholderFileNumber = "10216"

// Sequencer hands out the next sequential file number.
type Sequencer interface {
	NextFileNumber(ctx context.Context) (string, error)
}

// Update is a value produced after extraction returned.
type Update struct {
	Key   string
	Value string
	Err   error
}

type Extractor struct {
	sequencer Sequencer
	now       func() time.Time
	logger    *zap.Logger
}

func NewExtractor(sequencer Sequencer, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		sequencer: sequencer,
		now:       time.Now,
		logger:    logger.With(zap.String("component", "extractor")),
	}
}

// WithClock overrides the time source. Tests use it to pin the reference
// code and inspection timestamp.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract builds the field list for an opened document. It returns without
// waiting on the network: when the file number has to be regenerated the
// result arrives later on the returned channel, which is closed once the
// lookup finishes (or immediately when nothing is pending).
func (e *Extractor) Extract(ctx context.Context, id filename.Identity) (Fields, <-chan Update) {
	now := e.now()

	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	referenceCode := "REF-" + id.FileNumber + "-" + millis

	fields := Fields{
		{Label: "File Number", Key: KeyFileNumber, Value: id.FileNumber, Editable: true},
		{Label: "Reference Code", Key: KeyReferenceCode, Value: referenceCode, Editable: false, Automated: true},
		{Label: "Property Type", Key: KeyPropertyType, Value: id.PropertyType, Editable: true},
		{Label: "Location", Key: KeyLocation, Value: id.Location, Editable: true},
		{Label: "Customer Name", Key: KeyCustomerName, Value: id.CustomerName, Editable: true},
		{Label: "Bank Code", Key: KeyBankCode, Value: id.BankCode, Editable: false},
		{Label: "Inspection Date", Key: KeyInspectionDate, Value: FormatDate(now), Editable: true, Automated: true},
		{Label: "Inspection Time", Key: KeyInspectionTime, Value: FormatTime(now), Editable: true, Automated: true},
		{Label: "Valuer Name", Key: KeyValuerName, Value: "", Editable: true},
		{Label: "Property Value", Key: KeyPropertyValue, Value: "", Editable: true},
		{Label: "Remarks", Key: KeyRemarks, Value: "", Editable: true},
	}

	updates := make(chan Update, 1)
	if e.sequencer == nil || !NeedsFileNumber(id.FileNumber) {
		close(updates)
		return fields, updates
	}

	go func() {
		defer close(updates)
		next, err := e.sequencer.NextFileNumber(ctx)
		if err != nil {
			e.logger.Warn("file number regeneration failed",
				zap.String("file_number", id.FileNumber),
				zap.Error(err))
			updates <- Update{Key: KeyFileNumber, Err: err}
			return
		}
		e.logger.Debug("file number regenerated",
			zap.String("previous", id.FileNumber),
			zap.String("next", next))
		updates <- Update{Key: KeyFileNumber, Value: next}
	}()

	return fields, updates
}

// NeedsFileNumber reports whether a parsed file number must be replaced by
// the next sequential one.
func NeedsFileNumber(fileNumber string) bool {
	return fileNumber == "" || fileNumber == PlaceholderFileNumber
}

// FormatDate renders a date the way the field agents' devices do (en-IN).
func FormatDate(t time.Time) string {
	return t.Format("2/1/2006")
}

// FormatTime renders a clock time in en-IN style.
func FormatTime(t time.Time) string {
	return t.Format("3:04:05 pm")
}
