package internal

import (
	"fmt"

	"SPX-VAL/internal/config"
	"SPX-VAL/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDB connects to MySQL and migrates the valuation tables.
func InitDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	return OpenDB(mysql.Open(cfg.Database.DSN()), logger)
}

// OpenDB opens any gorm dialector and migrates it. Tests pass sqlite.
func OpenDB(dialector gorm.Dialector, logger *zap.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := autoMigrate(db, logger); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("database connected and migrated", zap.String("dialect", db.Dialector.Name()))
	return db, nil
}

func autoMigrate(db *gorm.DB, logger *zap.Logger) error {
	for _, model := range []any{&models.ValuationDocument{}, &models.Photo{}, &models.ActivityLog{}} {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("failed to parse model: %w", err)
		}
		table := stmt.Schema.Table

		if !db.Migrator().HasTable(table) {
			logger.Info("creating table", zap.String("table", table))
		}
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", table, err)
		}
	}
	return nil
}

func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
