package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/safe-eats/api/internal/bus"
	"github.com/safe-eats/api/internal/config"
	"github.com/safe-eats/api/internal/handler"
	"github.com/safe-eats/api/internal/middleware"
	"github.com/safe-eats/api/internal/model"
	"github.com/safe-eats/api/internal/repository"
	"github.com/safe-eats/api/internal/service"
	"github.com/safe-eats/api/internal/ws"
	"github.com/safe-eats/api/migrations"
	"github.com/safe-eats/api/pkg/auth"
	"github.com/safe-eats/api/pkg/notification"
	"github.com/safe-eats/api/pkg/storage"
)

// @title           Safe Eats API
// @version         1.0
// @description     Smart-kitchen appliance backend: cooking sessions, QR-code recipe redemption, realtime telemetry, push notifications.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@safeeats.local

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("🚀 Starting Safe Eats API Server [env=%s]", cfg.App.Env)

	// ==================== Database (PostgreSQL) ====================
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.App.Env == "production" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	// ==================== Run Migrations ====================
	if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Printf("⚠️  Migration warning: %v", err)
		log.Println("📦 Falling back to GORM AutoMigrate...")
		// Fallback to AutoMigrate if migration files fail
		if err := db.AutoMigrate(
			&model.User{},
			&model.Recipe{},
			&model.QRCode{},
			&model.Appliance{},
		); err != nil {
			log.Fatalf("❌ Failed to migrate database: %v", err)
		}
	}
	log.Println("✅ Database migrated successfully")

	// ==================== Redis ====================
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// ==================== Push notifications (FCM) ====================
	dispatcher := notification.New(cfg.Firebase.CredentialsFile)

	// ==================== MinIO Storage ====================
	minioStorage, err := storage.NewMinIO(storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		PublicURL: cfg.MinIO.PublicURL,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		log.Printf("⚠️  MinIO not available: %v (image upload disabled)", err)
	}
	if minioStorage != nil {
		log.Println("✅ Connected to MinIO")
	}

	// ==================== Initialize Layers ====================
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	applianceRepo := repository.NewApplianceRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	qrCodeRepo := repository.NewQRCodeRepository(db)

	// Event bus (in-process fan-out to WebSocket subscribers)
	eventBus := bus.New()

	// Services
	authService := service.NewAuthService(userRepo, jwtManager, rdb, cfg.Google.ClientID)
	applianceService := service.NewApplianceService(applianceRepo, qrCodeRepo, eventBus, dispatcher)
	recipeService := service.NewRecipeService(recipeRepo, qrCodeRepo, minioStorage)

	// WebSocket subscription manager
	wsManager := ws.NewSubscriptionManager(eventBus)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	applianceHandler := handler.NewApplianceHandler(applianceService)
	recipeHandler := handler.NewRecipeHandler(recipeService)
	wsHandler := handler.NewWSHandler(wsManager, jwtManager)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Swagger configuration
	// Serve swagger.json at /docs/swagger.json to avoid conflict with /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")

	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "safe-eats-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		// Auth routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/google", authHandler.GoogleAuth)
		}

		// Device routes (public: appliances authenticate out-of-band by
		// possession of their provisioned id)
		deviceGroup := api.Group("/appliances")
		{
			deviceGroup.POST("/register", applianceHandler.Register)
			deviceGroup.GET("/:id/exists", applianceHandler.Exists)
			deviceGroup.PUT("/:id/temperature", applianceHandler.UpdateTemperature)
			deviceGroup.POST("/:id/recipe", applianceHandler.RedeemQRCode)
			deviceGroup.POST("/:id/cooking/start", applianceHandler.StartCooking)
			deviceGroup.POST("/:id/cooking/stop", applianceHandler.StopCooking)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, rdb))
		{
			// Auth
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/auth/profile", authHandler.GetProfile)
			protected.PUT("/auth/profile", authHandler.UpdateProfile)
			protected.DELETE("/auth/profile", authHandler.DeleteAccount)
			protected.PUT("/users/push-token", authHandler.SetPushToken)

			// Appliances
			protected.POST("/appliances", applianceHandler.Add)
			protected.GET("/appliances", applianceHandler.List)
			protected.GET("/appliances/:id", applianceHandler.Get)
			protected.PUT("/appliances/:id", applianceHandler.Update)
			protected.DELETE("/appliances/:id", applianceHandler.Delete)

			// Recipes
			protected.POST("/recipes", recipeHandler.Create)
			protected.GET("/recipes", recipeHandler.List)
			protected.GET("/recipes/:id", recipeHandler.Get)
			protected.PUT("/recipes/:id", recipeHandler.Update)
			protected.DELETE("/recipes/:id", recipeHandler.Delete)
			protected.POST("/recipes/:id/image", recipeHandler.UploadImage)

			// QR codes
			protected.POST("/qrcodes", recipeHandler.AddQRCode)
			protected.GET("/qrcodes/:id", recipeHandler.GetQRCode)
			protected.DELETE("/qrcodes/:id", recipeHandler.DeleteQRCode)
		}
	}

	// WebSocket endpoint (auth via query parameter)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 Safe Eats API running on http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)
	log.Printf("🔌 WebSocket: ws://0.0.0.0:%s/ws?token=<jwt>", cfg.App.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server exited gracefully")
}
