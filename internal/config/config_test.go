package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("requires a bucket", func(t *testing.T) {
		t.Setenv("GCS_BUCKET_NAME", "")

		cfg, err := Load()
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("local storage needs no bucket", func(t *testing.T) {
		t.Setenv("GCS_BUCKET_NAME", "")
		t.Setenv("STORAGE_DRIVER", "local")
		t.Setenv("DATA_DIR", "/srv/data")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "/srv/data/objects", cfg.Storage.LocalDir)
	})

	t.Run("rejects unknown storage driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "s3")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("GCS_BUCKET_NAME", "valuations")
		t.Setenv("DATA_DIR", "/srv/data")
		t.Setenv("DB_HOST", "")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, "/srv/data/users.csv", cfg.Data.UsersCSV)
		assert.Equal(t, "/srv/data/document_logs.csv", cfg.Data.LogsCSV)
		assert.Equal(t, 15*time.Minute, cfg.GCS.SignedURLExpiry)
		assert.False(t, cfg.Database.Enabled())
	})

	t.Run("parses overrides", func(t *testing.T) {
		t.Setenv("GCS_BUCKET_NAME", "valuations")
		t.Setenv("SESSION_TTL", "30m")
		t.Setenv("ALLOW_ORIGINS", "https://a.example, https://b.example ,")
		t.Setenv("MAX_UPLOAD_MB", "nope")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowOrigins)
		assert.Equal(t, int64(32), cfg.Data.MaxUploadMB)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tcp := DatabaseConfig{Host: "db", Port: "3306", User: "u", Password: "p", DBName: "n"}
	assert.Equal(t, "u:p@tcp(db:3306)/n?charset=utf8mb4&parseTime=True&loc=Local", tcp.DSN())

	socket := DatabaseConfig{Host: "/cloudsql/x", User: "u", Password: "p", DBName: "n"}
	assert.Equal(t, "u:p@unix(/cloudsql/x)/n?charset=utf8mb4&parseTime=True&loc=Local", socket.DSN())
}
