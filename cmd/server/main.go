package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/config"
	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/handlers"
	"github.com/lagiexpress/booking-backend/internal/middleware"
	"github.com/lagiexpress/booking-backend/internal/services"
	"github.com/lagiexpress/booking-backend/internal/services/providers"
	"github.com/lagiexpress/booking-backend/pkg/jwt"
	"github.com/lagiexpress/booking-backend/pkg/mailer"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting LaGi Express Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize repositories
	tripRepo := database.NewTripRepository(db)
	holdRepo := database.NewHoldRepository(db, tripRepo)
	bookingRepo := database.NewBookingRepository(db)
	intentRepo := database.NewPaymentIntentRepository(db)
	auditRepo := database.NewPaymentAuditRepository(db)
	adminRepo := database.NewAdminRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	mailClient := mailer.NewClient(mailer.Config{
		Mode:      cfg.Mail.Mode,
		APIURL:    cfg.Mail.APIURL,
		APIKey:    cfg.Mail.APIKey,
		FromName:  cfg.Mail.FromName,
		FromEmail: cfg.Mail.FromEmail,
	}, logger)

	rateLimitService := services.NewRateLimitService(db, cfg.RateLimit)
	inventoryService := services.NewInventoryService(tripRepo, holdRepo, logger)
	holdService := services.NewHoldService(tripRepo, holdRepo, rateLimitService, cfg.Booking.HoldTTL, logger)
	reservationService := services.NewReservationService(
		tripRepo,
		holdRepo,
		bookingRepo,
		inventoryService,
		time.Duration(cfg.Booking.CancelBeforeHours)*time.Hour,
		logger,
	)
	auditService := services.NewAuditService(auditRepo, logger)
	providerFactory := providers.NewFactory(cfg)
	paymentService := services.NewPaymentService(
		bookingRepo,
		intentRepo,
		tripRepo,
		holdRepo,
		inventoryService,
		providerFactory,
		auditService,
		mailClient,
		cfg.Booking.IntentTTL,
		cfg.Server.Environment,
		logger,
	)
	adminAuthService := services.NewAdminAuthService(
		adminRepo,
		jwtService,
		cfg.JWT.AccessTokenExpiry,
		cfg.Security.BcryptCost,
		logger,
	)

	// Seed the operations account before the admin surfaces come up
	if err := adminAuthService.SeedAdmin(cfg.Security.AdminUsername, cfg.Security.AdminPassword); err != nil {
		logger.Fatalf("Failed to seed admin user: %v", err)
	}

	// Background workers
	sweeper := services.NewExpirationSweeper(holdRepo, intentRepo, cfg.Booking.SweepInterval, logger)
	sweeper.Start()

	tripGenerator := services.NewTripGeneratorService(tripRepo, cfg.Booking.TripHorizonDays, logger)
	reminderService := services.NewReminderService(
		bookingRepo,
		tripRepo,
		mailClient,
		time.Duration(cfg.Booking.ReminderWindowHours)*time.Hour,
		logger,
	)

	cronService := services.NewCronService(tripGenerator, reminderService, rateLimitService)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	// Fill the trip horizon immediately instead of waiting for the 2 AM job
	go func() {
		if _, err := tripGenerator.GenerateTrips(); err != nil {
			logger.WithError(err).Error("Startup trip generation failed")
		}
		if _, err := tripGenerator.DeactivateDeparted(); err != nil {
			logger.WithError(err).Error("Startup departed-trip cleanup failed")
		}
	}()

	logger.Info("Services initialized")

	// Initialize handlers
	tripHandler := handlers.NewTripHandler(inventoryService, logger)
	holdHandler := handlers.NewHoldHandler(holdService, logger)
	bookingHandler := handlers.NewBookingHandler(reservationService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	adminHandler := handlers.NewAdminHandler(
		adminAuthService,
		reservationService,
		paymentService,
		sweeper,
		cronService,
		logger,
	)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check and metrics endpoints
	router.GET("/health", healthCheckHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Catalog and inventory (public)
		v1.GET("/routes", tripHandler.ListRoutes)
		v1.GET("/trips", tripHandler.SearchTrips)
		v1.GET("/trips/:id/seats", tripHandler.SeatMap)

		// Seat holds (public)
		holds := v1.Group("/holds")
		{
			holds.POST("", holdHandler.CreateHold)
			holds.GET("/:id", holdHandler.GetHold)
			holds.DELETE("/:id", holdHandler.CancelHold)
		}

		// Bookings (public)
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.ConfirmBooking)
			bookings.GET("", bookingHandler.LookupByPhone)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.GET("/reference/:ref", bookingHandler.LookupByReference)
			bookings.POST("/:id/cancel", bookingHandler.CancelBooking)
		}

		// Payments (public; gateway callbacks answer in gateway formats)
		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.CreateIntent)
			payments.GET("/:id", paymentHandler.GetIntentStatus)
			payments.POST("/:id/simulate", paymentHandler.SimulateOutcome)
			payments.GET("/vnpay/return", paymentHandler.VNPayReturn)
			payments.GET("/vnpay/ipn", paymentHandler.VNPayIPN)
			payments.POST("/momo/ipn", paymentHandler.MoMoIPN)
		}

		// Admin surfaces
		admin := v1.Group("/admin")
		{
			admin.POST("/login", adminHandler.Login)
			admin.POST("/refresh", adminHandler.RefreshToken)

			protected := admin.Group("")
			protected.Use(middleware.AdminAuth(jwtService))
			{
				protected.POST("/bookings/:id/checkin", adminHandler.CheckIn)
				protected.POST("/bookings/:id/confirm-payment", adminHandler.ConfirmPayment)
				protected.POST("/sweep", adminHandler.RunSweep)
				protected.POST("/trips/generate", adminHandler.GenerateTrips)
				protected.GET("/jobs", adminHandler.JobStatus)
			}
		}
	}

	// HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cronService.Stop()
	sweeper.Stop()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
