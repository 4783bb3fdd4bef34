// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/truckzone/truckzone-backend/internal/config"
	"github.com/truckzone/truckzone-backend/internal/handlers"
	"github.com/truckzone/truckzone-backend/internal/middleware"
	"github.com/truckzone/truckzone-backend/internal/services"
	"github.com/truckzone/truckzone-backend/internal/utils"
)

const version = "1.0.0"

// Dependencies are built once by the caller and shared by every request.
type Dependencies struct {
	DB        *gorm.DB
	Config    *config.Config
	Gateway   services.PaymentGateway // nil when Stripe is not configured
	Publisher services.EventPublisher
	Storage   *services.StorageService
	Limiters  *middleware.Limiters // required; the caller starts and stops their janitors
	Logger    *logrus.Logger
}

func Initialize(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	db := deps.DB

	if deps.Storage == nil {
		deps.Storage = services.NewStorageServiceWithClient(nil, cfg.AWS)
	}
	if deps.Limiters == nil {
		panic("router: Limiters is required; the caller owns their Run lifecycle")
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL)

	// Initialize services
	catalogService := services.NewCatalogService(db)
	userService := services.NewUserService(db, deps.Publisher)
	productService := services.NewProductService(db, catalogService, userService)
	bookingService := services.NewBookingService(db, productService, deps.Publisher)
	paymentService := services.NewPaymentService(db, deps.Gateway, deps.Publisher, cfg.Payment)
	authService := services.NewAuthService(jwtManager)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService, deps.Storage)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, cfg.Payment.StripeWebhookSecret)

	authRequired := middleware.AuthRequired(jwtManager)
	adminRequired := middleware.AdminRequired(userService)
	ownerRequired := middleware.OwnerRequired()

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(deps.Limiters.General.Middleware())

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "TruckZone server running")
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"version": version,
		})
	})

	// Token issuance
	r.POST("/jwt", deps.Limiters.Auth.Middleware(), authHandler.IssueToken)

	// Product routes
	r.GET("/products", productHandler.GetProducts)
	r.GET("/advertise-products", productHandler.GetAdvertisedProducts)
	r.GET("/reported-products", productHandler.GetReportedProducts)
	r.GET("/category/:slug", productHandler.GetProductsByCategory)
	r.GET("/brand/:slug", productHandler.GetProductsByBrand)
	r.GET("/my-products", authRequired, ownerRequired, productHandler.GetMyProducts)

	product := r.Group("/product")
	{
		product.GET("/:id", productHandler.GetProduct)
		product.PUT("/report-product/:id", productHandler.ReportProduct)

		protected := product.Group("")
		protected.Use(authRequired)
		{
			protected.POST("", productHandler.CreateProduct)
			protected.POST("/images", deps.Limiters.Upload.Middleware(), productHandler.UploadProductImages)
			protected.PUT("/get-ads/:id", productHandler.StartAds)
			protected.PUT("/remove-ads/:id", productHandler.StopAds)
			protected.PUT("/remove-report/:id", productHandler.RemoveReport)
			protected.DELETE("/:id", productHandler.DeleteProduct)
		}
	}

	// User routes
	r.GET("/users", userHandler.GetUsers)
	r.GET("/users/admin/:uid", userHandler.IsAdmin)
	r.GET("/users/seller/:uid", userHandler.IsSeller)

	user := r.Group("/user")
	{
		user.GET("/:uid", userHandler.GetUser)
		user.POST("", userHandler.CreateUser)

		admin := user.Group("")
		admin.Use(authRequired, adminRequired)
		{
			admin.PUT("/make-admin/:id", userHandler.MakeAdmin)
			admin.PUT("/verify-user/:id", userHandler.VerifyUser)
			admin.DELETE("/:id", userHandler.DeleteUser)
		}
	}

	// Catalog routes
	r.GET("/categories", catalogHandler.GetCategories)
	r.GET("/brands", catalogHandler.GetBrands)
	r.GET("/blogs", catalogHandler.GetBlogs)

	// Booking routes
	booking := r.Group("/booking")
	{
		booking.GET("", authRequired, ownerRequired, bookingHandler.GetBookings)
		booking.POST("", authRequired, bookingHandler.CreateBooking)
		booking.GET("/:id", bookingHandler.GetBooking)
		booking.DELETE("/:id", authRequired, bookingHandler.DeleteBooking)
	}

	// Payment routes
	r.POST("/create-payment-intent", paymentHandler.CreatePaymentIntent)
	r.POST("/payments", paymentHandler.ConfirmPayment)
	r.POST("/webhooks/stripe", paymentHandler.StripeWebhook)

	return r
}
