package store

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// FirstFileNumber is handed out when the log holds no file numbers.
const FirstFileNumber = "10000"

// Sequence derives the next file number from the audit log.
type Sequence struct {
	path   string
	now    func() time.Time
	logger *zap.Logger
}

func NewSequence(path string, logger *zap.Logger) *Sequence {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequence{path: path, now: time.Now, logger: logger.With(zap.String("component", "sequence"))}
}

// WithClock pins the time used for the fallback number.
func (s *Sequence) WithClock(now func() time.Time) *Sequence {
	s.now = now
	return s
}

// NextFileNumber returns max(file numbers in the log)+1. When the log
// cannot be read it falls back to the last five digits of the current
// epoch milliseconds rather than failing.
func (s *Sequence) NextFileNumber(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	records, err := readRecords(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FirstFileNumber, nil
		}
		fallback := strconv.FormatInt(s.now().UnixMilli(), 10)
		fallback = fallback[len(fallback)-5:]
		s.logger.Warn("file number log unreadable, using timestamp",
			zap.String("path", s.path),
			zap.String("file_number", fallback),
			zap.Error(err))
		return fallback, nil
	}

	found := false
	var highest int64
	for _, rec := range records {
		if len(rec) <= fileNumberColumn {
			continue
		}
		n, ok := leadingInt(rec[fileNumberColumn])
		if !ok {
			continue
		}
		if !found || n > highest {
			highest = n
			found = true
		}
	}

	if !found {
		return FirstFileNumber, nil
	}
	return strconv.FormatInt(highest+1, 10), nil
}

// leadingInt parses the leading decimal digits of s, so "10300A" is 10300.
func leadingInt(s string) (int64, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[start:i], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
