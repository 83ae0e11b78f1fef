package container

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jordanlanch/salescrm/config"
	"github.com/jordanlanch/salescrm/pkg/api/handlers"
	"github.com/jordanlanch/salescrm/pkg/cache"
	"github.com/jordanlanch/salescrm/pkg/dashboard"
	"github.com/jordanlanch/salescrm/pkg/database"
	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/email"
	"github.com/jordanlanch/salescrm/pkg/jobs"
	"github.com/jordanlanch/salescrm/pkg/logger"
	"github.com/jordanlanch/salescrm/pkg/metrics"
	custommiddleware "github.com/jordanlanch/salescrm/pkg/middleware"
	"github.com/jordanlanch/salescrm/pkg/models"
	"github.com/jordanlanch/salescrm/pkg/phone"
	"github.com/jordanlanch/salescrm/pkg/secrets"
	"github.com/jordanlanch/salescrm/pkg/store"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  logger.Logger
	Metrics *metrics.Metrics

	// Infrastructure. DB is nil in demo mode, Cache is nil when Redis is
	// unavailable.
	DB     *database.Client
	Cache  *cache.Client
	Memory *store.Memory
	Phones *phone.Normalizer

	Collections store.Collections
	Dashboard   *dashboard.Service
	Cron        *jobs.CronManager
	RateLimiter *custommiddleware.RateLimiter

	// Handlers
	LeadHandler      *handlers.CollectionHandler[models.Lead, models.LeadPatch]
	DealHandler      *handlers.CollectionHandler[models.Deal, models.DealPatch]
	ActivityHandler  *handlers.CollectionHandler[models.Activity, models.ActivityPatch]
	EventHandler     *handlers.CollectionHandler[models.CalendarEvent, models.EventPatch]
	DashboardHandler *handlers.DashboardHandler
	HealthHandler    *handlers.HealthHandler
	AuthHandler      *handlers.AuthHandler
	PhoneHandler     *handlers.PhoneHandler
}

// New creates and initializes all application dependencies
func New(cfg *config.Config) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  logger.NewWithWriter(os.Stdout, cfg.LogLevel, cfg.LogFormat),
		Metrics: metrics.New(),
		Phones:  phone.NewNormalizer(cfg.DefaultPhoneRegion),
	}

	if err := c.loadSecrets(); err != nil {
		return nil, err
	}
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}
	if err := c.initServices(); err != nil {
		c.Close()
		return nil, err
	}
	c.initHandlers()

	c.Logger.Info("Container initialized successfully",
		"environment", cfg.APIEnvironment,
		"store", cfg.StoreMode,
		"list_cache", c.Cache != nil)

	return c, nil
}

// loadSecrets overlays credentials from an external secrets backend. The env
// backend is a no-op since config.Load already read the environment.
func (c *Container) loadSecrets() error {
	if c.Config.SecretsBackend == "" || c.Config.SecretsBackend == "env" {
		return nil
	}

	src, err := secrets.NewSource(secrets.Config{
		Backend:   c.Config.SecretsBackend,
		AWSRegion: c.Config.AWSRegion,
		Prefix:    c.Config.SecretsPrefix,
	})
	if err != nil {
		return fmt.Errorf("failed to create secrets source: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := secrets.Apply(ctx, src, c.Config); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	c.Logger.Info("🔐 Secrets loaded", "backend", c.Config.SecretsBackend)
	return nil
}

// initInfrastructure opens the store and the optional list cache
func (c *Container) initInfrastructure() error {
	opts := store.Options{Logger: c.Logger}

	if c.Config.IsDemo() {
		c.Memory = store.NewMemoryStore(c.Phones, opts)
		c.Memory.Load(store.DemoUserID, store.DemoData())
		c.Collections = c.Memory.Collections()
		c.Logger.Info("Demo store loaded", "owner", store.DemoUserID)
	} else {
		db, err := database.OpenWithPool(c.Config.DBDriver, c.Config.DatabaseURL, database.DefaultPoolConfig(), nil)
		if err != nil {
			c.Logger.Error("Failed to connect to database", "error", err)
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Migrate(ctx, db); err != nil {
			db.Close()
			c.Logger.Error("Failed to migrate database", "error", err)
			return err
		}

		c.DB = db
		c.Collections = store.NewSQLCollections(db, c.Phones, opts)
	}

	if c.Config.RedisURL != "" {
		rc, err := cache.NewClient(c.Config.RedisURL)
		if err != nil {
			c.Logger.Warn("Redis unavailable, list cache disabled", "error", err)
		} else {
			c.Cache = rc.WithLogger(c.Logger)
			c.Collections = store.WithListCache(c.Collections, c.Cache, store.CacheConfig{
				TTL:      time.Duration(c.Config.ListCacheTTLSeconds) * time.Second,
				Observer: c.Metrics,
				Logger:   c.Logger,
			})
		}
	}

	return nil
}

// initServices initializes the dashboard, rate limiter and scheduled jobs
func (c *Container) initServices() error {
	c.Dashboard = dashboard.NewService(dashboard.Sources{
		Leads:      c.Collections.Leads,
		Deals:      c.Collections.Deals,
		Activities: c.Collections.Activities,
		Events:     c.Collections.Events,
	}, c.Logger)

	c.RateLimiter = custommiddleware.NewRateLimiter(c.Config.RateLimitRequestsPerMinute, c.Config.RateLimitBurst)

	var lists domain.ListCache
	if c.Cache != nil {
		lists = c.Cache
	}
	monitor := jobs.NewMonitor(c.Collections.Activities, lists)

	digestOwners := c.Config.DigestOwners
	if len(digestOwners) == 0 && c.Memory != nil {
		digestOwners = []string{store.DemoUserID}
	}

	var notifier jobs.Notifier
	if c.Config.DigestEmail != "" {
		mailer := email.NewService(c.Config.EmailFrom, c.Config.EmailFromName, c.Config.SendGridAPIKey, c.Logger)
		notifier = email.NewDigestMailer(mailer, c.Config.DigestEmail)
	}

	c.Cron = jobs.NewCronManager(monitor, c.Metrics, c.Logger)
	if err := c.Cron.SetupJobs(jobs.Schedules{
		DemoReset:    c.Config.DemoResetSchedule,
		Digest:       c.Config.DigestSchedule,
		Demo:         c.Memory,
		DemoOwner:    store.DemoUserID,
		DigestOwners: digestOwners,
		Notifier:     notifier,
	}); err != nil {
		return fmt.Errorf("failed to set up jobs: %w", err)
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (c *Container) initHandlers() {
	c.LeadHandler = handlers.NewCollectionHandler(store.LeadsName, c.Collections.Leads, c.Logger)
	c.DealHandler = handlers.NewCollectionHandler(store.DealsName, c.Collections.Deals, c.Logger)
	c.ActivityHandler = handlers.NewCollectionHandler(store.ActivitiesName, c.Collections.Activities, c.Logger)
	c.EventHandler = handlers.NewCollectionHandler(store.EventsName, c.Collections.Events, c.Logger)
	c.DashboardHandler = handlers.NewDashboardHandler(c.Dashboard)
	c.PhoneHandler = handlers.NewPhoneHandler(c.Config.DefaultPhoneRegion)

	checks := map[string]handlers.Pinger{}
	if c.DB != nil {
		checks["database"] = c.DB
	}
	if c.Cache != nil {
		checks["cache"] = c.Cache
	}
	c.HealthHandler = handlers.NewHealthHandler(Version, checks)

	devUser := ""
	if c.Memory != nil {
		devUser = store.DemoUserID
	}
	c.AuthHandler = handlers.NewAuthHandler(
		c.Config.JWTSecret,
		c.Config.JWTExpirationHours,
		devUser,
		c.Config.APIEnvironment != "production",
	)

	c.Logger.Info("Handlers initialized")
}

// RecordPoolStats copies the database pool size into the metrics gauge.
func (c *Container) RecordPoolStats() {
	if c.DB != nil {
		c.Metrics.UpdateDBConnections(c.DB.Stats().InUse)
	}
}

// Close closes all resources (database, cache connections)
func (c *Container) Close() error {
	c.Logger.Info("Shutting down container...")

	if c.RateLimiter != nil {
		c.RateLimiter.Stop()
	}

	var firstErr error
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Error("Failed to close database", "error", err)
			firstErr = err
		}
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Error("Failed to close cache", "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	c.Logger.Info("Container shutdown complete")
	return firstErr
}
