// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/breakroom-backend/internal/config"
	"github.com/your-org/breakroom-backend/internal/domain/audit"
	"github.com/your-org/breakroom-backend/internal/domain/catalog"
	"github.com/your-org/breakroom-backend/internal/domain/inventory"
	"github.com/your-org/breakroom-backend/internal/domain/invoice"
	"github.com/your-org/breakroom-backend/internal/domain/issue"
	"github.com/your-org/breakroom-backend/internal/domain/order"
	"github.com/your-org/breakroom-backend/internal/domain/quote"
	"github.com/your-org/breakroom-backend/internal/domain/user"
	"github.com/your-org/breakroom-backend/internal/interfaces/http/handlers"
	"github.com/your-org/breakroom-backend/internal/interfaces/http/middleware"
	"github.com/your-org/breakroom-backend/internal/pkg/email"
	"github.com/your-org/breakroom-backend/internal/pkg/qr"
	"gorm.io/gorm"
)

// Deps bundles the shared infrastructure the route groups wire against
type Deps struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Config     *config.Config
	Logger     *logrus.Logger
	AuditStore *audit.Store
}

// Setup mounts every API route group under rg
func Setup(rg *gin.RouterGroup, deps Deps) {
	cfg := deps.Config

	mailer := email.NewSender(cfg)
	generator := qr.NewGenerator(cfg.QR.PublicBaseURL, cfg.QR.ImageSize)

	userService := user.NewService(deps.DB, cfg, deps.AuditStore)
	catalogService := catalog.NewService(deps.DB, cfg, deps.AuditStore)
	inventoryService := inventory.NewService(deps.DB, cfg, deps.AuditStore, generator)
	invoiceService := invoice.NewService(deps.DB, cfg, deps.AuditStore, mailer)
	orderService := order.NewService(deps.DB, cfg, deps.AuditStore, invoiceService)
	issueService := issue.NewService(deps.DB, cfg, deps.AuditStore)
	quoteService := quote.NewService(deps.DB, cfg, deps.AuditStore, mailer, deps.Logger)

	setupAuthRoutes(rg, cfg, deps.AuditStore, handlers.NewAuthHandler(userService))
	setupProductRoutes(rg, cfg, deps.AuditStore, handlers.NewProductHandler(catalogService))
	setupOrderRoutes(rg, cfg, deps.AuditStore, handlers.NewOrderHandler(orderService))
	setupInventoryRoutes(rg, cfg, deps.AuditStore, handlers.NewInventoryHandler(inventoryService))
	setupInvoiceRoutes(rg, cfg, deps.AuditStore, handlers.NewInvoiceHandler(invoiceService))
	setupIssueRoutes(rg, cfg, deps.AuditStore, handlers.NewIssueHandler(issueService))
	setupQuoteRoutes(rg, cfg, deps.AuditStore, handlers.NewQuoteHandler(quoteService))
	setupAuditRoutes(rg, cfg, deps.AuditStore, handlers.NewAuditHandler(deps.AuditStore))
}

func setupAuthRoutes(rg *gin.RouterGroup, cfg *config.Config, recorder audit.Recorder, h *handlers.AuthHandler) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			protected.GET("/profile", h.Profile)
			protected.PUT("/profile", h.UpdateProfile)
		}

		admin := auth.Group("")
		admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(recorder))
		{
			admin.GET("/customers", h.ListCustomers)
		}
	}
}

func setupProductRoutes(rg *gin.RouterGroup, cfg *config.Config, recorder audit.Recorder, h *handlers.ProductHandler) {
	products := rg.Group("/products")
	products.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		products.GET("", h.List)
		products.GET("/:id", h.Get)
	}

	admin := rg.Group("/products")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(recorder))
	{
		admin.POST("", h.Create)
		admin.PUT("/:id", h.Update)
		admin.PUT("/:id/stock", h.AdjustStock)
		admin.DELETE("/:id", h.Delete)
	}
}

func setupOrderRoutes(rg *gin.RouterGroup, cfg *config.Config, recorder audit.Recorder, h *handlers.OrderHandler) {
	orders := rg.Group("/orders")
	orders.Use(middleware.AuthMiddleware(cfg))
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
	}

	admin := rg.Group("/orders")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(recorder))
	{
		admin.PUT("/:id/status", h.SetStatus)
		admin.PUT("/:id/complete", h.Complete)
		admin.DELETE("/:id", h.Delete)
	}
}

func setupInventoryRoutes(rg *gin.RouterGroup, cfg *config.Config, recorder audit.Recorder, h *handlers.InventoryHandler) {
	// Public scan endpoint: QR labels resolve here, auth optional
	scan := rg.Group("/inventory")
	scan.Use(middleware.OptionalAuthMiddleware(cfg))
	{
		scan.GET("/scan/:itemCode", h.Scan)
	}

	admin := rg.Group("/inventory")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(recorder))
	{
		admin.POST("/item", h.CreateItem)
		admin.POST("/batch", h.CreateBatch)
		admin.GET("/item/:itemCode", h.GetByCode)
		admin.GET("/item/:itemCode/qr", h.QRCode)
		admin.PUT("/item/:itemCode/status", h.SetStatus)
		admin.DELETE("/item/:itemCode", h.Delete)
		admin.GET("/product/:productId", h.ListForProduct)
		admin.GET("/stats/:productId", h.Stats)
	}
}

func setupInvoiceRoutes(rg *gin.RouterGroup, cfg *config.Config, recorder audit.Recorder, h *handlers.InvoiceHandler) {
	invoices := rg.Group("/invoices")
	invoices.Use(middleware.AuthMiddleware(cfg))
	{
		invoices.GET("", h.List)
		invoices.GET("/:id", h.Get)
	}

	admin := rg.Group("/invoices")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(recorder))
	{
		admin.POST("/upload", h.Upload)
		admin.POST("/:id/send", h.Send)
		admin.DELETE("/:id", h.Delete)
	}
}

func setupIssueRoutes(rg *gin.RouterGroup, cfg *config.Config, recorder audit.Recorder, h *handlers.IssueHandler) {
	issues := rg.Group("/issues")
	issues.Use(middleware.AuthMiddleware(cfg))
	{
		issues.POST("", h.Create)
		issues.GET("", h.List)
	}

	admin := rg.Group("/issues")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(recorder))
	{
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}

func setupQuoteRoutes(rg *gin.RouterGroup, cfg *config.Config, recorder audit.Recorder, h *handlers.QuoteHandler) {
	quotes := rg.Group("/quotes")
	{
		// Public intake form
		quotes.POST("", h.Create)
	}

	admin := rg.Group("/quotes")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(recorder))
	{
		admin.GET("", h.List)
		admin.PUT("/:id", h.Update)
		admin.DELETE("/:id", h.Delete)
	}
}

func setupAuditRoutes(rg *gin.RouterGroup, cfg *config.Config, recorder audit.Recorder, h *handlers.AuditHandler) {
	admin := rg.Group("/audit")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(recorder))
	{
		admin.GET("", h.List)
	}
}
