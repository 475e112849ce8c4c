package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"SPX-VAL/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Count(string(data), "\n")
}

func TestUserStore_Register(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	users, err := NewUserStore(path, nil)
	require.NoError(t, err)

	user, err := users.Register("asha", "s3cret", "Asha Patil", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultRole, user.Role)
	assert.Equal(t, 2, countLines(t, path))

	t.Run("duplicate username", func(t *testing.T) {
		_, err := users.Register("asha", "other", "Someone Else", "admin")
		assert.ErrorIs(t, err, ErrUserExists)
		assert.Equal(t, 2, countLines(t, path), "no row appended")
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := users.Register("ravi", "", "Ravi", "")
		assert.ErrorIs(t, err, ErrMissingFields)
		_, err = users.Register("ravi", "pw", "  ", "")
		assert.ErrorIs(t, err, ErrMissingFields)
	})

	t.Run("password is not stored in clear", func(t *testing.T) {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "s3cret")
		assert.Contains(t, string(data), hashPrefix)
	})
}

func TestUserStore_Authenticate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("username,password,fullName,role\nlegacy,plain123,Legacy User,admin\n"), 0o644))

	users, err := NewUserStore(path, nil)
	require.NoError(t, err)
	_, err = users.Register("asha", "s3cret", "Asha Patil", "valuer")
	require.NoError(t, err)

	user, err := users.Authenticate("asha", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Asha Patil", user.FullName)

	user, err = users.Authenticate("legacy", "plain123")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Role)

	user, err = users.Authenticate("  asha ", "s3cret")
	require.NoError(t, err, "username is trimmed like at registration")
	assert.Equal(t, "asha", user.Username)

	_, err = users.Authenticate("   ", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Authenticate("asha", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = users.Authenticate("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	all, err := users.Users()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "pw"))
	assert.False(t, VerifyPassword(hash, "pW"))
	assert.False(t, VerifyPassword("$argon2id$broken", "pw"))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func sampleLog(fileNumber string) models.DocumentLog {
	return models.DocumentLog{
		Timestamp:      time.Date(2026, time.March, 5, 8, 37, 9, 0, time.UTC),
		Username:       "asha",
		FileNumber:     fileNumber,
		PropertyType:   "HFI",
		Location:       "Plot 7, Karmala",
		CustomerName:   "Laljibhai Gupta",
		BankCode:       "bL",
		ReferenceCode:  "REF-" + fileNumber + "-123456",
		InspectionDate: "5/3/2026",
		InspectionTime: "2:07:09 pm",
		ValuerName:     "R. Kulkarni",
		PropertyValue:  "4500000",
		Remarks:        `Roof "needs" repair, walls ok`,
		DocumentPath:   "valuations/p/s/documents/" + fileNumber + ".docx",
		GPSLatitude:    "18.520430",
		GPSLongitude:   "73.856744",
		PhotoCount:     2,
		PhotoPaths:     []string{"a.jpg", "b.jpg"},
	}
}

func TestAuditLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "document_logs.csv")
	log, err := NewAuditLog(path, nil)
	require.NoError(t, err)

	require.NoError(t, log.Append(sampleLog("10300")))
	require.NoError(t, log.Append(sampleLog("10301")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(logHeader, ","), lines[0])
	assert.Contains(t, lines[1], `"Roof ""needs"" repair, walls ok"`)
	assert.True(t, strings.HasSuffix(lines[1], ",2,a.jpg;b.jpg"))
	assert.True(t, strings.HasPrefix(lines[1], "2026-03-05T08:37:09.000Z,asha,10300,"))

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, sampleLog("10300"), entries[0])
	assert.Equal(t, "10301", entries[1].FileNumber)
}

func TestSequence_NextFileNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("max plus one", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs.csv")
		log, err := NewAuditLog(path, nil)
		require.NoError(t, err)
		for _, n := range []string{"10299", "10300", "abc", "10050"} {
			require.NoError(t, log.Append(sampleLog(n)))
		}

		next, err := NewSequence(path, nil).NextFileNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, "10301", next)
	})

	t.Run("empty log", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs.csv")
		_, err := NewAuditLog(path, nil)
		require.NoError(t, err)

		next, err := NewSequence(path, nil).NextFileNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, FirstFileNumber, next)
	})

	t.Run("missing log", func(t *testing.T) {
		next, err := NewSequence(filepath.Join(t.TempDir(), "none.csv"), nil).NextFileNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, "10000", next)
	})

	t.Run("unreadable log falls back to clock", func(t *testing.T) {
		dir := t.TempDir()
		clock := func() time.Time { return time.UnixMilli(1741234567891) }

		next, err := NewSequence(dir, nil).WithClock(clock).NextFileNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, "67891", next)
	})
}

func TestLeadingInt(t *testing.T) {
	n, ok := leadingInt("10300A")
	assert.True(t, ok)
	assert.Equal(t, int64(10300), n)

	_, ok = leadingInt("A10300")
	assert.False(t, ok)
	_, ok = leadingInt("")
	assert.False(t, ok)
}
