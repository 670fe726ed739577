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
	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/config"
	"github.com/nextbenchapp/nextbench/internal/events"
	"github.com/nextbenchapp/nextbench/internal/handler"
	"github.com/nextbenchapp/nextbench/internal/middleware"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/internal/repository"
	"github.com/nextbenchapp/nextbench/internal/service"
	"github.com/nextbenchapp/nextbench/internal/ws"
	"github.com/nextbenchapp/nextbench/migrations"
	"github.com/nextbenchapp/nextbench/pkg/auth"
	"github.com/nextbenchapp/nextbench/pkg/mailer"
	"github.com/nextbenchapp/nextbench/pkg/push"
	"github.com/nextbenchapp/nextbench/pkg/storage"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// @title           NextBench API
// @version         1.0
// @description     Campus marketplace with real-time chat. Students trade products, services, skills and study sessions; everything meets in the chat.

// @contact.name   API Support
// @contact.email  support@nextbench.local

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
	log.Printf("🚀 Starting NextBench API Server [env=%s]", cfg.App.Env)

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
		if err := db.AutoMigrate(
			&model.User{},
			&model.UserDevice{},
			&model.OTPCode{},
			&model.Conversation{},
			&model.ConversationMember{},
			&model.Message{},
			&model.Product{},
			&model.Service{},
			&model.Favorite{},
			&model.Rating{},
			&model.Event{},
			&model.SkillSwap{},
			&model.SkillSwapRequest{},
			&model.StudyGroup{},
			&model.StudyGroupMember{},
			&model.Notification{},
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

	// ==================== Email (SMTP / Mailpit) ====================
	mailClient := mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	log.Printf("📧 SMTP configured: %s:%s", cfg.SMTP.Host, cfg.SMTP.Port)

	// ==================== Initialize Layers ====================
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOTPRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	listingRepo := repository.NewListingRepository(db)
	eventRepo := repository.NewEventRepository(db)
	swapRepo := repository.NewSkillSwapRepository(db)
	groupRepo := repository.NewStudyGroupRepository(db)
	notifRepo := repository.NewNotificationRepository(db)

	// Event bus carries gamification and notification side effects
	bus := events.NewBus()

	// Services
	authService := service.NewAuthService(userRepo, otpRepo, jwtManager, mailClient, rdb, bus, cfg.Google.ClientID)
	chatService := service.NewChatService(convRepo, msgRepo, bus)
	gameService := service.NewGamificationService(userRepo, listingRepo)
	listingService := service.NewListingService(listingRepo, userRepo, bus)
	eventService := service.NewEventService(eventRepo, bus)
	swapService := service.NewSkillSwapService(swapRepo, bus)
	groupService := service.NewStudyGroupService(groupRepo, chatService, bus)
	notifService := service.NewNotificationService(notifRepo)

	// WebSocket Hub (with Redis Pub/Sub for horizontal scaling)
	hub := ws.NewHub(rdb, func(userID uuid.UUID, online bool) {
		if !online {
			_ = userRepo.TouchLastSeen(userID)
		}
		log.Printf("👤 User %s is now %s", userID, map[bool]string{true: "ONLINE", false: "OFFLINE"}[online])
	})

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// Firebase push (optional)
	pusher, err := push.NewPusher(cfg.Firebase.CredentialsFile, userRepo)
	if err != nil {
		log.Printf("⚠️  Firebase not available: %v (push disabled)", err)
	}

	// Observers: XP awards, trust score updates, in-app and push notifications
	service.WireObservers(bus, gameService, notifService, pusher, hub)
	go bus.Run(hubCtx)

	// MinIO Storage
	minioStorage, err := storage.NewMinIO(storage.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		PublicURL: cfg.MinIO.PublicURL,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		log.Printf("⚠️  MinIO not available: %v (file upload disabled)", err)
	}
	if minioStorage != nil {
		log.Println("✅ Connected to MinIO")
	}

	// Handlers
	authHandler := handler.NewAuthHandler(authService, gameService)
	chatHandler := handler.NewChatHandler(chatService)
	wsHandler := handler.NewWSHandler(hub, chatService, jwtManager)
	listingHandler := handler.NewListingHandler(listingService)
	eventHandler := handler.NewEventHandler(eventService)
	swapHandler := handler.NewSkillSwapHandler(swapService)
	groupHandler := handler.NewStudyGroupHandler(groupService)
	notifHandler := handler.NewNotificationHandler(notifService)
	uploadHandler := handler.NewUploadHandler(minioStorage)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

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
			"service": "nextbench-api",
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
			authGroup.POST("/verify-otp", authHandler.VerifyOTP)
			authGroup.POST("/resend-otp", authHandler.ResendOTP)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/google", authHandler.GoogleLogin)
			authGroup.POST("/forgot-password", authHandler.ForgotPassword)
			authGroup.POST("/reset-password", authHandler.ResetPassword)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, rdb))
		{
			// Auth & profile
			protected.POST("/auth/logout", authHandler.Logout)
			protected.GET("/users/me", authHandler.GetProfile)
			protected.PUT("/users/me", authHandler.UpdateProfile)
			protected.POST("/users/me/heartbeat", authHandler.Heartbeat)
			protected.POST("/users/me/devices", authHandler.RegisterDevice)
			protected.GET("/users/search", authHandler.SearchUsers)
			protected.GET("/users/leaderboard", authHandler.Leaderboard)
			protected.GET("/users/:id", authHandler.GetUser)

			// Chat
			protected.GET("/conversations", chatHandler.GetConversations)
			protected.POST("/conversations/direct", chatHandler.GetOrCreateDirect)
			protected.GET("/conversations/:id/messages", chatHandler.GetMessages)
			protected.POST("/conversations/:id/messages", chatHandler.SendMessage)
			protected.POST("/conversations/:id/read", chatHandler.MarkRead)
			protected.DELETE("/conversations/:id", chatHandler.LeaveConversation)
			protected.DELETE("/messages/:id", chatHandler.DeleteMessage)

			// Marketplace: products
			protected.POST("/products", listingHandler.CreateProduct)
			protected.GET("/products", listingHandler.ListProducts)
			protected.GET("/products/mine", listingHandler.ListMyProducts)
			protected.GET("/products/:id", listingHandler.GetProduct)
			protected.PUT("/products/:id", listingHandler.UpdateProduct)
			protected.POST("/products/:id/sold", listingHandler.MarkSold)
			protected.POST("/products/:id/favorite", listingHandler.ToggleFavorite)
			protected.DELETE("/products/:id", listingHandler.DeleteProduct)
			protected.GET("/favorites", listingHandler.ListFavorites)

			// Marketplace: services
			protected.POST("/services", listingHandler.CreateService)
			protected.GET("/services", listingHandler.ListServices)
			protected.GET("/services/mine", listingHandler.ListMyServices)
			protected.GET("/services/:id", listingHandler.GetService)
			protected.PUT("/services/:id", listingHandler.UpdateService)
			protected.DELETE("/services/:id", listingHandler.DeleteService)

			// Ratings
			protected.POST("/ratings", listingHandler.SubmitRating)

			// Events
			protected.POST("/events", eventHandler.Create)
			protected.GET("/events", eventHandler.List)
			protected.GET("/events/mine", eventHandler.ListMine)
			protected.GET("/events/:id", eventHandler.Get)
			protected.PUT("/events/:id", eventHandler.Update)
			protected.POST("/events/:id/register", eventHandler.Register)
			protected.DELETE("/events/:id", eventHandler.Delete)

			// Skill swaps
			protected.POST("/skill-swaps", swapHandler.Create)
			protected.GET("/skill-swaps", swapHandler.List)
			protected.GET("/skill-swaps/:id", swapHandler.Get)
			protected.PUT("/skill-swaps/:id", swapHandler.Update)
			protected.POST("/skill-swaps/requests", swapHandler.Propose)
			protected.GET("/skill-swaps/requests", swapHandler.ListIncoming)
			protected.PATCH("/skill-swaps/requests/:id", swapHandler.Respond)
			protected.DELETE("/skill-swaps/requests/:id", swapHandler.CancelRequest)
			protected.DELETE("/skill-swaps/:id", swapHandler.Delete)

			// Study groups
			protected.POST("/study-groups", groupHandler.Create)
			protected.GET("/study-groups", groupHandler.List)
			protected.GET("/study-groups/:id", groupHandler.Get)
			protected.PUT("/study-groups/:id", groupHandler.Update)
			protected.GET("/study-groups/:id/members", groupHandler.Members)
			protected.POST("/study-groups/:id/join", groupHandler.Join)
			protected.POST("/study-groups/:id/leave", groupHandler.Leave)
			protected.DELETE("/study-groups/:id/members/:userId", groupHandler.Kick)
			protected.DELETE("/study-groups/:id", groupHandler.Delete)

			// Notifications
			protected.GET("/notifications", notifHandler.List)
			protected.POST("/notifications/:id/read", notifHandler.MarkRead)

			// Upload
			protected.POST("/upload", uploadHandler.UploadFile)
			protected.POST("/upload/multiple", uploadHandler.UploadMultiple)
		}
	}

	// WebSocket endpoint (auth via query parameter)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 NextBench API running on http://0.0.0.0:%s", cfg.App.Port)
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

	hubCancel()
	log.Println("✅ Server exited gracefully")
}
