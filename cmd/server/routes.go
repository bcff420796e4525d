package main

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/travelbooking/catalog-api/internal/config"
	"github.com/travelbooking/catalog-api/internal/database"
	"github.com/travelbooking/catalog-api/internal/handlers"
	"github.com/travelbooking/catalog-api/internal/middleware"
	"github.com/travelbooking/catalog-api/internal/models"
	"github.com/travelbooking/catalog-api/internal/services"
	"github.com/travelbooking/catalog-api/pkg/jwt"
)

type serviceSet struct {
	countries   *services.CountryService
	provinces   *services.ProvinceService
	cities      *services.CityService
	attractions *services.AttractionService
	packages    *services.PackageService
	reviews     *services.ReviewService
	users       *services.UserService
	bookings    *services.BookingService
}

type routerDeps struct {
	cfg        *config.Config
	logger     *logrus.Logger
	jwtService *jwt.Service
	services   *serviceSet
	media      handlers.MediaStore
	redis      *redis.Client
	health     map[string]handlers.Pinger
}

// healthChecks pings postgres and, when connected, redis
func healthChecks(db database.DB, rdb *redis.Client) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{"database": db}
	if rdb != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	return checks
}

func newRouter(d routerDeps) *gin.Engine {
	cfg := d.cfg

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(middleware.RequestLogger(d.logger))
	}
	router.Use(middleware.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Cache"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", handlers.NewHealthHandler(version, d.health).Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	svc := d.services
	auth := middleware.AuthMiddleware(d.jwtService, d.logger)
	cache := middleware.NewResponseCache(cfg.Cache, d.redis, d.logger).Handler()
	limit := middleware.RateLimit(cfg.RateLimit, d.redis, d.logger)

	userHandler := handlers.NewUserHandler(svc.users)
	user := router.Group("/user")
	userHandler.RegisterPublicRoutes(user, limit)
	userHandler.RegisterRoutes(user.Group("", auth))

	catalog := []struct {
		prefix   string
		register func(*gin.RouterGroup)
	}{
		{"/country", handlers.NewCountryHandler(svc.countries).RegisterRoutes},
		{"/province", handlers.NewProvinceHandler(svc.provinces).RegisterRoutes},
		{"/city", handlers.NewCityHandler(svc.cities).RegisterRoutes},
		{"/attraction", handlers.NewAttractionHandler(svc.attractions).RegisterRoutes},
		{"/package", handlers.NewPackageHandler(svc.packages).RegisterRoutes},
		{"/review", handlers.NewReviewHandler(svc.reviews).RegisterRoutes},
	}
	for _, group := range catalog {
		group.register(router.Group(group.prefix, auth, cache))
	}

	handlers.NewBookingHandler(svc.bookings).RegisterRoutes(
		router.Group("/booking", auth),
		middleware.RequireRole(models.RoleAdmin, models.RoleStaff),
	)

	handlers.NewMediaHandler(d.media, cfg.Cloudinary.Folder).RegisterRoutes(router.Group("/media", auth))

	return router
}
