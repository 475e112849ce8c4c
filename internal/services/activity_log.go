package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"SPX-VAL/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Context keys set by the session middleware and read when logging.
const (
	ContextUsername  = "username"
	ContextSessionID = "session_id"
)

type ActivityLogService struct {
	db     *gorm.DB
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewActivityLogService(db *gorm.DB, logger *zap.Logger) *ActivityLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityLogService{
		db:     db,
		logger: logger.With(zap.String("component", "activity_log")),
	}
}

func (s *ActivityLogService) LogRequest(c *gin.Context, statusCode int, responseTime time.Duration) {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}

	queryParams := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 && key != "token" {
			queryParams[key] = values[0]
		}
	}
	queryParamsJSON, _ := json.Marshal(queryParams)

	activityLog := &models.ActivityLog{
		ID:           uuid.New().String(),
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		Username:     c.GetString(ContextUsername),
		SessionID:    c.GetString(ContextSessionID),
		UserAgent:    c.Request.UserAgent(),
		IPAddress:    clientIP,
		QueryParams:  string(queryParamsJSON),
		StatusCode:   statusCode,
		ResponseTime: responseTime.Milliseconds(),
		CreatedAt:    time.Now(),
	}

	// Don't block the request on the insert.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.Create(activityLog).Error; err != nil {
			s.logger.Warn("failed to save activity log", zap.Error(err))
		}
	}()
}

// Flush waits for pending inserts. Called on shutdown.
func (s *ActivityLogService) Flush() {
	s.wg.Wait()
}

func (s *ActivityLogService) GetAllLogs(limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(func(db *gorm.DB) *gorm.DB { return db }, limit, offset)
}

func (s *ActivityLogService) GetLogsByMethod(method string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(func(db *gorm.DB) *gorm.DB {
		return db.Where("method = ?", strings.ToUpper(method))
	}, limit, offset)
}

func (s *ActivityLogService) GetLogsByPath(path string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(func(db *gorm.DB) *gorm.DB {
		return db.Where("path LIKE ?", "%"+path+"%")
	}, limit, offset)
}

func (s *ActivityLogService) GetLogsByUser(username string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(func(db *gorm.DB) *gorm.DB {
		return db.Where("username = ?", username)
	}, limit, offset)
}

func (s *ActivityLogService) find(filter func(*gorm.DB) *gorm.DB, limit, offset int) ([]models.ActivityLog, int64, error) {
	var logs []models.ActivityLog
	var total int64

	if err := s.db.Model(&models.ActivityLog{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	query := s.db.Scopes(filter).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch logs: %w", err)
	}

	return logs, total, nil
}

// LoggingMiddleware records every request after it is handled.
func (s *ActivityLogService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.LogRequest(c, c.Writer.Status(), time.Since(start))
	}
}
