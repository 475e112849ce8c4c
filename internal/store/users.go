// Package store keeps the CSV-backed records shared by all field agents:
// accounts, the saved-document audit log and the file-number sequence
// derived from it.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"SPX-VAL/internal/models"

	"go.uber.org/zap"
)

const DefaultRole = "valuer"

var (
	ErrUserExists         = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingFields      = errors.New("username, password and full name are required")
)

var userHeader = []string{"username", "password", "fullName", "role"}

// UserStore is a CSV file of username,password,fullName,role.
type UserStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

func NewUserStore(path string, logger *zap.Logger) (*UserStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &UserStore{path: path, logger: logger.With(zap.String("component", "users"))}
	if err := ensureFile(path, userHeader); err != nil {
		return nil, err
	}
	return s, nil
}

type userRow struct {
	models.User
	stored string
}

func (s *UserStore) read() ([]userRow, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows []userRow
	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read users file: %w", err)
		}
		if first {
			first = false
			if len(rec) > 0 && rec[0] == userHeader[0] {
				continue
			}
		}
		if len(rec) < 2 || strings.TrimSpace(rec[0]) == "" {
			continue
		}

		row := userRow{User: models.User{Username: strings.TrimSpace(rec[0])}, stored: rec[1]}
		if len(rec) > 2 {
			row.FullName = rec[2]
		}
		if len(rec) > 3 {
			row.Role = rec[3]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Authenticate returns the user when username and password match a row.
func (s *UserStore) Authenticate(username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrInvalidCredentials
	}

	s.mu.Lock()
	rows, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if row.Username != username {
			continue
		}
		if !VerifyPassword(row.stored, password) {
			break
		}
		user := row.User
		return &user, nil
	}
	return nil, ErrInvalidCredentials
}

// Register appends a new account. An existing username leaves the file
// untouched and returns ErrUserExists.
func (s *UserStore) Register(username, password, fullName, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	fullName = strings.TrimSpace(fullName)
	if username == "" || password == "" || fullName == "" {
		return nil, ErrMissingFields
	}
	if role == "" {
		role = DefaultRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.read()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if row.Username == username {
			return nil, ErrUserExists
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := appendRecord(s.path, []string{username, hash, fullName, role}); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("username", username), zap.String("role", role))
	return &models.User{Username: username, FullName: fullName, Role: role}, nil
}

// Users lists every account without its password.
func (s *UserStore) Users() ([]models.User, error) {
	s.mu.Lock()
	rows, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.User)
	}
	return users, nil
}

// ensureFile creates path with a header row when it does not exist yet.
func ensureFile(path string, header []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return appendRecord(path, header)
}

func appendRecord(path string, record []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
