package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/harumcare/harumcare-backend/internal/http/handlers"
	httpMW "github.com/harumcare/harumcare-backend/internal/http/middleware"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
)

type RouterConfig struct {
	ServiceName string
	Log         *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	AuthHandler     *httpH.AuthHandler
	CampaignHandler *httpH.CampaignHandler
	DonationHandler *httpH.DonationHandler
	ContentHandler  *httpH.ContentHandler
	UploadHandler   *httpH.UploadHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	// Public
	if cfg.AuthHandler != nil {
		api.POST("/auth/register", cfg.AuthHandler.Register)
		api.POST("/auth/login", cfg.AuthHandler.Login)
	}
	if cfg.CampaignHandler != nil {
		public := api.Group("/")
		if cfg.AuthMiddleware != nil {
			public.Use(cfg.AuthMiddleware.OptionalAuth())
		}
		public.GET("/campaigns", cfg.CampaignHandler.List)
		public.GET("/campaigns/stats", cfg.CampaignHandler.Stats)
		public.GET("/campaigns/:id", cfg.CampaignHandler.Get)
		public.GET("/campaigns/:id/donations", cfg.CampaignHandler.ListDonations)
		if cfg.ContentHandler != nil {
			public.GET("/news", cfg.ContentHandler.ListNews)
			public.GET("/news/:slug", cfg.ContentHandler.GetNews)
			public.GET("/blogs", cfg.ContentHandler.ListBlogs)
			public.GET("/blogs/:slug", cfg.ContentHandler.GetBlog)
		}
	}
	if cfg.DonationHandler != nil {
		// Payment gateway callback; authenticated by transaction ID lookup.
		api.POST("/donations/webhook", cfg.DonationHandler.Webhook)
	}

	// Authenticated
	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	if cfg.AuthHandler != nil {
		protected.GET("/auth/profile", cfg.AuthHandler.GetProfile)
		protected.PUT("/auth/profile", cfg.AuthHandler.UpdateProfile)
		protected.POST("/auth/avatar", cfg.AuthHandler.UploadAvatar)
	}
	if cfg.DonationHandler != nil {
		protected.POST("/donations", cfg.DonationHandler.Create)
		protected.GET("/donations/me", cfg.DonationHandler.ListMine)
		protected.GET("/donations/transaction/:trx_id", cfg.DonationHandler.GetByTransactionID)
		protected.POST("/donations/:id/proof", cfg.DonationHandler.UploadProof)
	}

	// Admin
	admin := protected.Group("/")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
	}
	if cfg.AuthHandler != nil {
		admin.POST("/auth/register-admin", cfg.AuthHandler.RegisterAdmin)
	}
	if cfg.CampaignHandler != nil {
		admin.POST("/campaigns", cfg.CampaignHandler.Create)
		admin.PUT("/campaigns/:id", cfg.CampaignHandler.Update)
		admin.DELETE("/campaigns/:id", cfg.CampaignHandler.Delete)
	}
	if cfg.DonationHandler != nil {
		admin.POST("/donations/admin", cfg.DonationHandler.CreateByAdmin)
		admin.GET("/donations", cfg.DonationHandler.List)
		admin.PUT("/donations/:id/status", cfg.DonationHandler.UpdateStatus)
		admin.DELETE("/donations/:id", cfg.DonationHandler.Delete)
	}
	if cfg.ContentHandler != nil {
		admin.POST("/news", cfg.ContentHandler.CreateNews)
		admin.PUT("/news/:id", cfg.ContentHandler.UpdateNews)
		admin.DELETE("/news/:id", cfg.ContentHandler.DeleteNews)
		admin.POST("/blogs", cfg.ContentHandler.CreateBlog)
		admin.PUT("/blogs/:id", cfg.ContentHandler.UpdateBlog)
		admin.DELETE("/blogs/:id", cfg.ContentHandler.DeleteBlog)
	}
	if cfg.UploadHandler != nil {
		admin.POST("/uploads/:category", cfg.UploadHandler.Upload)
	}

	return r
}
