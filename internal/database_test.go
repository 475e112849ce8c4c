package internal

import (
	"path/filepath"
	"testing"

	"SPX-VAL/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestOpenDB_Migrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spx.db")
	db, err := OpenDB(sqlite.Open(path), nil)
	require.NoError(t, err)

	for _, table := range []string{"valuation_documents", "valuation_photos", "activity_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasColumn(&models.ValuationDocument{}, "pdf_path"))
	require.NoError(t, CloseDB(db))

	again, err := OpenDB(sqlite.Open(path), nil)
	require.NoError(t, err, "migrating an existing schema")
	require.NoError(t, CloseDB(again))
}

func TestCloseDB_Nil(t *testing.T) {
	assert.NoError(t, CloseDB(nil))
}
