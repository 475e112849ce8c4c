package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"SPX-VAL/internal/models"
	"SPX-VAL/internal/services"
	"SPX-VAL/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LogsHandler reads the saved-document audit log and, when a database is
// configured, request activity and document records.
type LogsHandler struct {
	audit    *store.AuditLog
	activity *services.ActivityLogService
	records  *services.RecordService
	logger   *zap.Logger
}

func NewLogsHandler(audit *store.AuditLog, activity *services.ActivityLogService, records *services.RecordService, logger *zap.Logger) *LogsHandler {
	return &LogsHandler{
		audit:    audit,
		activity: activity,
		records:  records,
		logger:   logger,
	}
}

type LogsResponse struct {
	Logs       interface{} `json:"logs"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

type pagination struct {
	limit, page, offset int
}

func parsePagination(c *gin.Context) pagination {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 1000 { // Prevent too large requests
		limit = 1000
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}

	return pagination{limit: limit, page: page, offset: (page - 1) * limit}
}

func (p pagination) response(logs interface{}, total int64) LogsResponse {
	return LogsResponse{
		Logs:       logs,
		Total:      total,
		Page:       p.page,
		Limit:      p.limit,
		TotalPages: int((total + int64(p.limit) - 1) / int64(p.limit)),
	}
}

// GetDocumentLogs returns saved-document audit rows, newest first. username,
// fileNumber and bankCode narrow the result.
func (h *LogsHandler) GetDocumentLogs(c *gin.Context) {
	p := parsePagination(c)
	username := c.Query("username")
	fileNumber := c.Query("fileNumber")
	bankCode := c.Query("bankCode")

	entries, err := h.audit.Entries()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	matched := make([]models.DocumentLog, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if username != "" && !strings.EqualFold(e.Username, username) {
			continue
		}
		if fileNumber != "" && e.FileNumber != fileNumber {
			continue
		}
		if bankCode != "" && e.BankCode != bankCode {
			continue
		}
		matched = append(matched, e)
	}

	total := int64(len(matched))
	start := min(p.offset, len(matched))
	end := min(start+p.limit, len(matched))

	c.JSON(http.StatusOK, p.response(matched[start:end], total))
}

// GetActivityLogs returns request activity with pagination. One of method,
// path or username filters the list.
func (h *LogsHandler) GetActivityLogs(c *gin.Context) {
	if h.activity == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "activity logging is not enabled"})
		return
	}
	p := parsePagination(c)

	var (
		logs  []models.ActivityLog
		total int64
		err   error
	)
	switch {
	case c.Query("method") != "":
		logs, total, err = h.activity.GetLogsByMethod(c.Query("method"), p.limit, p.offset)
	case c.Query("path") != "":
		logs, total, err = h.activity.GetLogsByPath(c.Query("path"), p.limit, p.offset)
	case c.Query("username") != "":
		logs, total, err = h.activity.GetLogsByUser(c.Query("username"), p.limit, p.offset)
	default:
		logs, total, err = h.activity.GetAllLogs(p.limit, p.offset)
	}
	if err != nil {
		h.logger.Error("failed to fetch activity logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, p.response(logs, total))
}

// GetActivityStats counts requests by method, path and status.
func (h *LogsHandler) GetActivityStats(c *gin.Context) {
	if h.activity == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "activity logging is not enabled"})
		return
	}

	logs, total, err := h.activity.GetAllLogs(0, 0)
	if err != nil {
		h.logger.Error("failed to fetch activity logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch log stats"})
		return
	}

	methodCounts := make(map[string]int)
	pathCounts := make(map[string]int)
	statusCounts := make(map[int]int)
	for _, log := range logs {
		methodCounts[log.Method]++
		pathCounts[log.Path]++
		statusCounts[log.StatusCode]++
	}

	c.JSON(http.StatusOK, gin.H{
		"total_requests": total,
		"methods":        methodCounts,
		"paths":          pathCounts,
		"status_codes":   statusCounts,
	})
}

func (h *LogsHandler) GetRecords(c *gin.Context) {
	if h.records == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document records are not enabled"})
		return
	}
	p := parsePagination(c)

	records, total, err := h.records.List(services.RecordFilter{
		Username:   c.Query("username"),
		BankCode:   c.Query("bankCode"),
		FileNumber: c.Query("fileNumber"),
	}, p.limit, p.offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, p.response(records, total))
}

func (h *LogsHandler) GetRecord(c *gin.Context) {
	if h.records == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document records are not enabled"})
		return
	}
	record, err := h.records.Get(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": record})
}
