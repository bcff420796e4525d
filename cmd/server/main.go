package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/config"
	"github.com/travelbooking/catalog-api/internal/database"
	"github.com/travelbooking/catalog-api/internal/events"
	"github.com/travelbooking/catalog-api/internal/services"
	"github.com/travelbooking/catalog-api/pkg/jwt"
	"github.com/travelbooking/catalog-api/pkg/media"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting travel booking catalog API")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.Migrate(migrateCtx, db)
		cancel()
		if err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database schema is up to date")
	}

	rdb, err := database.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		// Rate limiting and caching are optional; the API keeps serving without them.
		logger.WithError(err).Warn("Redis unavailable, rate limiting and response cache disabled")
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
		logger.Infof("Redis connected at %s", cfg.Redis.Addr)
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQ.URL != "" {
		publisher = events.NewAMQPPublisher(cfg.RabbitMQ.URL, logger)
		logger.Info("Booking events will be published to RabbitMQ")
	}

	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	countryRepo := database.NewCountryRepository(db)
	provinceRepo := database.NewProvinceRepository(db)
	cityRepo := database.NewCityRepository(db)
	attractionRepo := database.NewAttractionRepository(db)
	packageRepo := database.NewPackageRepository(db)
	reviewRepo := database.NewReviewRepository(db)
	userRepo := database.NewUserRepository(db)
	bookingRepo := database.NewBookingRepository(db)

	svc := &serviceSet{
		countries:   services.NewCountryService(countryRepo, logger),
		provinces:   services.NewProvinceService(provinceRepo, countryRepo, logger),
		cities:      services.NewCityService(cityRepo, provinceRepo, countryRepo, logger),
		attractions: services.NewAttractionService(attractionRepo, cityRepo, provinceRepo, countryRepo, logger),
		packages:    services.NewPackageService(packageRepo, cityRepo, countryRepo, logger),
		reviews:     services.NewReviewService(reviewRepo, userRepo, packageRepo, attractionRepo, logger),
		users: services.NewUserService(
			userRepo,
			database.NewRefreshTokenRepository(db),
			jwtService,
			cfg.Security.BcryptCost,
			logger,
		),
		bookings: services.NewBookingService(bookingRepo, packageRepo, publisher, logger),
	}

	cronService := services.NewCronService(svc.users, svc.packages, logger)
	if cfg.Cron.Enabled {
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
		logger.Info("Cron service started")
	}

	var mediaStore *media.Client
	if cfg.CloudinaryEnabled() {
		mediaStore, err = media.NewClient(media.Config{
			CloudName: cfg.Cloudinary.CloudName,
			APIKey:    cfg.Cloudinary.APIKey,
			APISecret: cfg.Cloudinary.APISecret,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize media storage: %v", err)
		}
	} else {
		logger.Warn("Cloudinary credentials missing, image upload disabled")
	}

	logger.Info("Services initialized")

	router := newRouter(routerDeps{
		cfg:        cfg,
		logger:     logger,
		jwtService: jwtService,
		services:   svc,
		media:      mediaStore,
		redis:      rdb,
		health:     healthChecks(db, rdb),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cfg.Cron.Enabled {
		logger.Info("Stopping cron service...")
		cronService.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}
