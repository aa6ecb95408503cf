package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"collabhub/internal/config"
	"collabhub/internal/database"
	"collabhub/internal/handlers"
	"collabhub/internal/jobs"
	"collabhub/internal/logging"
	"collabhub/internal/memstore"
	"collabhub/internal/middleware"
	"collabhub/internal/preflight"
	"collabhub/internal/services"
	"collabhub/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting CollabHub Server...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("📋 Configuration loaded (Port: %s, Store: %s, Env: %s)", cfg.Port, cfg.StoreBackend, cfg.Environment)

	// Persistence
	var (
		stores  *services.Stores
		mongoDB *database.MongoDB
	)
	switch cfg.StoreBackend {
	case config.StoreMongo:
		log.Println("🔗 Connecting to MongoDB...")
		var err error
		mongoDB, err = database.NewMongoDB(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTransactions)
		if err != nil {
			log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
		}
		defer mongoDB.Close(context.Background())

		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = mongoDB.Initialize(initCtx)
		cancel()
		if err != nil {
			log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
		}
		stores = services.NewMongoStores(mongoDB)
		log.Println("✅ MongoDB connected successfully")
	case config.StoreMemory:
		stores = memstore.New()
		log.Println("⚠️  Using in-memory store - data is lost on restart")
	}

	// Credentials
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = uuid.NewString() + uuid.NewString()
		log.Println("⚠️  JWT_SECRET not set - using an ephemeral secret (development mode)")
	}
	jwtAuth, err := auth.NewLocalJWTAuth(jwtSecret, cfg.JWTExpiry)
	if err != nil {
		log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
	}

	// Realtime fan-out
	connManager := services.NewConnectionManager()
	services.InitMetrics(connManager)

	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		log.Println("🔗 Connecting to Redis...")
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (single-instance notifications)", err)
			redisService = nil
		} else {
			defer redisService.Close()
			log.Println("✅ Redis connected successfully")
		}
	}

	hostname, _ := os.Hostname()
	instanceID := fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])

	var notifier services.Notifier = connManager
	var pubsubService *services.PubSubService
	if redisService != nil {
		pubsubService = services.NewPubSubService(redisService, connManager, instanceID)
		if err := pubsubService.Start(); err != nil {
			log.Printf("⚠️ Failed to start PubSub: %v (single-instance notifications)", err)
			pubsubService = nil
		} else {
			notifier = pubsubService
			log.Printf("✅ PubSub service initialized (instance: %s)", instanceID)
		}
	}

	var storePinger, redisPinger handlers.Pinger
	if mongoDB != nil {
		storePinger = mongoDB
	}
	if redisService != nil {
		redisPinger = redisService
	}

	checks := preflight.NewChecker(cfg, storePinger, redisPinger, stores.Admins).RunAll(context.Background())
	if preflight.HasFailures(checks) {
		log.Fatal("❌ Pre-flight checks failed, refusing to start")
	}

	// Services
	identity := services.NewIdentityService(stores.Users, stores.Admins, cfg.IdentityCacheTTL)
	authService := services.NewAuthService(stores, jwtAuth, services.NewLogMailer(), identity, cfg.OTPTTL)
	projectService := services.NewProjectService(stores)
	statisticsService := services.NewStatisticsService(stores)
	taskService := services.NewTaskService(stores, projectService, statisticsService)
	notificationService := services.NewNotificationService(stores, projectService, notifier)
	commentService := services.NewCommentService(stores, projectService, notificationService, int64(cfg.MaxUploadBytes))
	adminService := services.NewAdminService(stores, identity)

	if cfg.AdminSeedEmail != "" {
		seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		created, err := authService.SeedAdmin(seedCtx, cfg.AdminSeedName, cfg.AdminSeedEmail, cfg.AdminSeedPassword)
		cancel()
		switch {
		case err != nil:
			log.Printf("⚠️ Failed to seed admin: %v", err)
		case created:
			log.Printf("🎉 Seeded admin account: %s", cfg.AdminSeedEmail)
		}
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "CollabHub v1.0",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		// multipart framing on top of the largest accepted attachment
		BodyLimit: cfg.MaxUploadBytes + 1024*1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("collabhub")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Credentials=%d/15min, Uploads=%d/min, WS=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.CredentialMax,
		rateLimitConfig.UploadMax,
		rateLimitConfig.WebSocketMax,
	)

	// Fiber's CORS middleware does not allow AllowCredentials with wildcard origins
	allowCredentials := cfg.AllowedOrigins != "*"
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowCredentials,
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	app.Use(middleware.GlobalAPIRateLimiter(rateLimitConfig))

	handlers.RegisterRoutes(app, middleware.NewAuthGuard(jwtAuth, identity), &handlers.Handlers{
		Health:   handlers.NewHealthHandler(connManager, cfg.StoreBackend, storePinger, redisPinger),
		Auth:     handlers.NewAuthHandler(authService),
		User:     handlers.NewUserHandler(authService),
		Project:  handlers.NewProjectHandler(projectService),
		Task:     handlers.NewTaskHandler(taskService),
		Comment:  handlers.NewCommentHandler(commentService, notificationService),
		Admin:    handlers.NewAdminHandler(adminService, projectService),
		Socket:   handlers.NewNotificationSocketHandler(connManager, notificationService),
		WSOrigin: strings.Split(cfg.AllowedOrigins, ","),
	}, rateLimitConfig)

	// Initialize background jobs
	jobScheduler, err := jobs.NewJobScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create job scheduler: %v", err)
	}
	var locker jobs.Locker
	if redisService != nil {
		locker = redisService
	}
	refreshJob := jobs.NewStatisticsRefreshJob(statisticsService, locker, instanceID, cfg.StatisticsRefreshInterval)
	if err := jobScheduler.Register("statistics_refresh", refreshJob); err != nil {
		log.Fatalf("❌ %v", err)
	}
	jobScheduler.Start()

	// Start server
	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("🔗 Notification socket: ws://localhost:%s/ws/notifications", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("🕐 Background jobs: statistics refresh (every %v)", cfg.StatisticsRefreshInterval)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Shutting down server...")

		if err := jobScheduler.Stop(); err != nil {
			log.Printf("⚠️ Error stopping job scheduler: %v", err)
		}

		if pubsubService != nil {
			if err := pubsubService.Stop(); err != nil {
				log.Printf("⚠️ Error stopping PubSub: %v", err)
			}
		}

		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
