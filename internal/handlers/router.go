package handlers

import (
	"net/http"
	"time"

	"SPX-VAL/internal/catalog"
	"SPX-VAL/internal/services"
	"SPX-VAL/internal/session"
	"SPX-VAL/internal/storage"
	"SPX-VAL/internal/store"
	"SPX-VAL/internal/upload"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the services the API is built on. Activity, Records and
// Objects are nil when their backing store is not configured.
type Dependencies struct {
	Sessions  *session.Manager
	Auth      *services.AuthService
	Catalog   *catalog.Catalog
	Documents *services.DocumentService
	Photos    *services.PhotoService
	Signer    upload.Signer
	Sequence  FileNumberSource
	Audit     *store.AuditLog
	Activity  *services.ActivityLogService
	Records   *services.RecordService
	Objects   *storage.LocalStore

	AllowOrigins   []string
	MaxUploadBytes int64
	Logger         *zap.Logger
}

func NewRouter(d Dependencies) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := d.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := gin.New()
	r.Use(RecoverPanic(logger))
	r.Use(RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", SessionHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", SessionHeader, RequestHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if d.Activity != nil {
		r.Use(d.Activity.LoggingMiddleware())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := NewAuthHandler(d.Auth, logger)
	cat := NewCatalogHandler(d.Catalog, logger)
	docs := NewDocumentHandler(d.Documents, d.MaxUploadBytes, logger)
	photos := NewPhotoHandler(d.Photos, d.MaxUploadBytes, logger)
	uploads := NewUploadHandler(d.Signer, d.Sequence, logger)
	logs := NewLogsHandler(d.Audit, d.Activity, d.Records, logger)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", auth.Login)
		v1.POST("/auth/register", auth.Register)
		v1.GET("/banks", cat.Banks)
		v1.GET("/valuation-types", cat.ValuationTypes)

		if d.Objects != nil {
			objects := NewObjectHandler(d.Objects, d.MaxUploadBytes, logger)
			v1.PUT("/objects/*name", objects.Put)
			v1.GET("/objects/*name", objects.Get)
		}

		authed := v1.Group("", RequireSession(d.Sessions))
		{
			authed.POST("/auth/logout", auth.Logout)
			authed.GET("/auth/me", auth.Me)

			authed.POST("/sessions/bank", cat.SelectBank)
			authed.POST("/sessions/valuation-type", cat.SelectValuationType)

			authed.POST("/documents/open", docs.Open)
			authed.GET("/documents/fields", docs.Fields)
			authed.PATCH("/documents/fields/:key", docs.UpdateField)
			authed.GET("/documents/changes", docs.Changes)
			authed.GET("/documents/preview", docs.Preview)
			authed.GET("/documents/download", docs.Download)
			authed.POST("/documents/save", docs.Save)
			authed.GET("/documents/pdf", docs.PDF)
			authed.DELETE("/documents", docs.Close)

			authed.GET("/photos", photos.List)
			authed.POST("/photos", photos.Add)
			authed.DELETE("/photos/:id", photos.Remove)

			authed.POST("/uploads/sign", uploads.Sign)
			authed.GET("/file-numbers/next", uploads.NextFileNumber)

			authed.GET("/logs", logs.GetDocumentLogs)
			authed.GET("/logs/activity", logs.GetActivityLogs)
			authed.GET("/logs/activity/stats", logs.GetActivityStats)
			authed.GET("/records", logs.GetRecords)
			authed.GET("/records/:id", logs.GetRecord)
		}
	}

	return r
}
