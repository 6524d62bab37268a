package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yashrajoria/materials-storefront/config"
	"github.com/yashrajoria/materials-storefront/database"
	"github.com/yashrajoria/materials-storefront/logger"
	"github.com/yashrajoria/materials-storefront/metrics"
	"github.com/yashrajoria/materials-storefront/middleware"
	"github.com/yashrajoria/materials-storefront/notifier"
	aws_pkg "github.com/yashrajoria/materials-storefront/pkg/aws"
	"github.com/yashrajoria/materials-storefront/providers"
	"github.com/yashrajoria/materials-storefront/repository"
	"github.com/yashrajoria/materials-storefront/routes"
	"github.com/yashrajoria/materials-storefront/services"
	"github.com/yashrajoria/materials-storefront/workspace"
)

func main() {
	ctx := context.Background()

	// Load environment configuration
	cfg := config.Load()

	logger.Initialize(cfg.Env)
	defer logger.Sync()
	log := logger.Log

	var snsClient *aws_pkg.SNSClient
	if cfg.UseAWSSecrets || cfg.SNSTopicARN != "" {
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Fatal("failed to load AWS config", zap.Error(err))
		}
		if cfg.UseAWSSecrets {
			cfg.ApplySecrets(ctx, aws_pkg.NewSecretsClient(awsCfg))
		}
		if cfg.SNSTopicARN != "" {
			snsClient = aws_pkg.NewSNSClient(awsCfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()

	// Redis backs the search cache and scrape tokens when configured
	var (
		redisClient *redis.Client
		credentials repository.CredentialStore = repository.NewMemoryCredentialStore()
	)
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, keeping search state in memory", zap.Error(err))
		} else {
			redisClient = client
			credentials = repository.NewRedisCredentialStore(client, cfg.ScrapeKeyTTL)
			defer redisClient.Close()
		}
	}
	cache := repository.NewSearchCache(redisClient, cfg.SearchCacheTTL)

	var profiles repository.ProfileRepository = repository.NewMemoryProfileRepository()
	if cfg.DatabaseURL != "" {
		db, err := database.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		profiles = repository.NewGormProfileRepository(db)
	}

	var provider providers.IdentityProvider
	switch cfg.AuthProvider {
	case "gotrue":
		provider = providers.NewGoTrueIdentityProvider(cfg.GoTrueURL, cfg.GoTrueAnon, cfg.OAuthRedirectURL)
	default:
		provider = providers.NewLocalIdentityProvider(cfg.JWTSecret, profiles)
	}

	shared := notifier.Multi{notifier.LogNotifier{}}
	if snsClient != nil {
		shared = append(shared, notifier.NewSNSNotifier(snsClient, cfg.SNSTopicARN))
	}

	catalog := services.NewCatalogService(cfg.StoreName)
	online := services.NewOnlineSearchService(
		providers.NewScrapeClient(cfg.ScrapeAPIURL),
		nil,
		credentials,
		cache,
		m,
		services.OnlineSearchOptions{
			DefaultAPIKey: cfg.ScrapeAPIKey,
			MockDelay:     cfg.MockSearchDelay,
		},
	)

	registry := workspace.NewRegistry(workspace.Dependencies{
		Provider: provider,
		Profiles: profiles,
		Search:   services.NewSearchService(catalog, online, cfg.INRPerUSD),
		Notifier: shared,
		Metrics:  m,
	}, cfg.WorkspaceTTL)
	defer registry.Close()

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 10*time.Minute)
	defer limiter.Close()

	router := routes.NewRouter(routes.Dependencies{
		Catalog:        catalog,
		Registry:       registry,
		Metrics:        m,
		Limiter:        limiter,
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("storefront is running", zap.String("port", cfg.Port), zap.String("auth_provider", cfg.AuthProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
		return
	}
	log.Info("server shutdown complete")
}
