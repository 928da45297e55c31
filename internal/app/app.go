package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"medbook_backend/internal/cache"
	"medbook_backend/internal/calendar"
	"medbook_backend/internal/config"
	"medbook_backend/internal/email"
	"medbook_backend/internal/handlers"
	"medbook_backend/internal/logger"
	"medbook_backend/internal/middleware"
	"medbook_backend/internal/models"
	"medbook_backend/internal/repositories"
	"medbook_backend/internal/routes"
	"medbook_backend/internal/services"
	"medbook_backend/internal/storage"
	"medbook_backend/internal/validator"
	"medbook_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := migrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB, sqlDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB, sqlDB *sql.DB) *gin.Engine {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	// Redis is optional: without it slot caching and rate limiting are off
	var redisCache *cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err = cache.New(cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Failed to connect to Redis", "error", err)
		}
		logger.Info("Redis connected", "addr", cfg.Redis.Addr)
	} else {
		logger.Warn("Redis is not configured; slot caching and rate limiting are disabled")
	}

	serviceContainer := initializeServices(cfg, gormDB, storageInstance, redisCache)

	appHandlers := initializeHandlers(cfg, serviceContainer, redisCache)

	startWorkers(context.Background(), gormDB, serviceContainer)

	ginRouter := initializeGinRouter(cfg, gormDB, redisCache)

	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB, storageInstance storage.Storage, redisCache *cache.Cache) *services.ServiceContainer {
	templates := email.NewTemplateManager()
	if cfg.Email.TemplatesDir != "" {
		if err := templates.LoadTemplates(cfg.Email.TemplatesDir); err != nil {
			logger.Warn("Failed to load email templates from disk, using built-ins", "dir", cfg.Email.TemplatesDir, "error", err)
		}
	}
	var emailService email.Provider = email.NewSMTPProvider(&email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		UseTLS:    cfg.Email.UseTLS,
	}, templates)

	calendarProvider := calendar.NewHTTPProvider(calendar.Config{
		BaseURL: cfg.Calendar.BaseURL,
		APIKey:  cfg.Calendar.APIKey,
		Timeout: time.Duration(cfg.Calendar.TimeoutSec) * time.Second,
	})

	userRepo := repositories.NewUserRepository(gormDB)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(gormDB)
	organizationRepo := repositories.NewOrganizationRepository(gormDB)
	referrerRepo := repositories.NewReferrerRepository(gormDB)
	examineeRepo := repositories.NewExamineeRepository(gormDB)
	specialistRepo := repositories.NewSpecialistRepository(gormDB)
	bookingRepo := repositories.NewBookingRepository(gormDB)
	documentRepo := repositories.NewDocumentRepository(gormDB)
	webhookEventRepo := repositories.NewWebhookEventRepository(gormDB)

	var slotCache services.SlotCache
	if redisCache != nil {
		slotCache = redisCache
	}
	availabilityService := services.NewAvailabilityService(
		specialistRepo,
		bookingRepo,
		calendarProvider,
		slotCache,
		time.Duration(cfg.Availability.SlotCacheTTLSec)*time.Second,
		cfg.Availability.MaxRangeDays,
	)

	authService := services.NewAuthService(userRepo, refreshTokenRepo, referrerRepo, examineeRepo, organizationRepo, emailService)
	organizationService := services.NewOrganizationService(organizationRepo, referrerRepo)
	examineeService := services.NewExamineeService(examineeRepo)
	specialistService := services.NewSpecialistService(specialistRepo, userRepo, availabilityService)
	bookingService := services.NewBookingService(bookingRepo, examineeRepo, referrerRepo, specialistRepo, availabilityService, emailService)
	documentService := services.NewDocumentService(documentRepo, bookingRepo, referrerRepo, specialistRepo, examineeRepo, storageInstance)
	webhookService := services.NewWebhookService(webhookEventRepo, bookingRepo, availabilityService, cfg.Calendar.WebhookSecret)

	return &services.ServiceContainer{
		AuthService:         authService,
		OrganizationService: organizationService,
		ExamineeService:     examineeService,
		SpecialistService:   specialistService,
		AvailabilityService: availabilityService,
		BookingService:      bookingService,
		DocumentService:     documentService,
		WebhookService:      webhookService,
		EmailService:        emailService,
	}
}

func initializeHandlers(cfg *config.Config, container *services.ServiceContainer, redisCache *cache.Cache) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	var authLimiter, webhookLimiter gin.HandlerFunc
	if redisCache != nil && cfg.RateLimit.Enabled {
		authLimiter = middleware.RateLimitMiddleware(redisCache, "auth", cfg.RateLimit.AuthMax)
		webhookLimiter = middleware.RateLimitMiddleware(redisCache, "webhook", cfg.RateLimit.WebhookMax)
	}

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, container.AuthService, authLimiter),
		OrganizationHandler: handlers.NewOrganizationHandler(baseHandler, container.OrganizationService),
		ExamineeHandler:     handlers.NewExamineeHandler(baseHandler, container.ExamineeService),
		SpecialistHandler:   handlers.NewSpecialistHandler(baseHandler, container.SpecialistService, container.AvailabilityService),
		BookingHandler:      handlers.NewBookingHandler(baseHandler, container.BookingService),
		DocumentHandler:     handlers.NewDocumentHandler(baseHandler, container.DocumentService),
		WebhookHandler:      handlers.NewWebhookHandler(baseHandler, container.WebhookService, webhookLimiter),
		HealthHandler:       handlers.NewHealthHandler(baseHandler),
	}
}

func startWorkers(ctx context.Context, gormDB *gorm.DB, container *services.ServiceContainer) {
	bookingRepo := repositories.NewBookingRepository(gormDB)
	webhookEventRepo := repositories.NewWebhookEventRepository(gormDB)

	workers.NewBookingWorker(bookingRepo, container.EmailService).Start(ctx)
	workers.NewWebhookWorker(webhookEventRepo, container.WebhookService).Start(ctx)
	logger.Info("Background workers started")
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB, redisCache *cache.Cache) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	if redisCache != nil && cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimitMiddleware(redisCache, "api", cfg.RateLimit.MaxRequests))
	}
	return router
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Organization{},
		&models.Referrer{},
		&models.Examinee{},
		&models.Specialist{},
		&models.Booking{},
		&models.Document{},
		&models.WebhookEvent{},
	)
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	var adminUser models.User
	result := tx.Where("email = ?", adminEmail).First(&adminUser)

	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		tx.Rollback()
		return nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        adminEmail,
		PasswordHash: string(hashedPassword),
		Name:         "Portal Administrator",
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
		IsVerified:   true,
	}

	if err := tx.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user in database: %w", err)
	}

	logger.Info("Successfully created first admin user", "email", adminEmail)

	return tx.Commit().Error
}
