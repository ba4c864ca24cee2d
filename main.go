package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialhub/domain/repository"
	"socialhub/infrastructure/cache"
	oauthclient "socialhub/infrastructure/clients/oauth"
	youtubeclient "socialhub/infrastructure/clients/youtube"
	"socialhub/infrastructure/configuration"
	"socialhub/infrastructure/events"
	"socialhub/infrastructure/logger"
	"socialhub/infrastructure/persistence"
	"socialhub/infrastructure/pubsub"
	"socialhub/infrastructure/realtime"
	"socialhub/infrastructure/servicebus"
	httpHandler "socialhub/interfaces/http"
	"socialhub/server"
	"socialhub/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)
	app := configuration.C.App

	db, err := InitiateDatabase(ctx)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Database initialization failed")
	}
	defer db.Close()
	accounts, configs := newRepositories(db)

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Redis is required for authorization state")
	}
	defer redisClient.Close()

	var profiles repository.IProfile
	if gormDb, err := persistence.NewRepositories(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Profile database not available - using session identity only")
	} else {
		profiles = persistence.NewProfileRepository(gormDb)
	}

	registry, err := oauthclient.NewRegistry(
		app.BaseURL,
		configuration.PlatformCredentials(),
		oauthclient.WithPKCEMethod(configuration.C.OAuth.PKCEMethod),
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Fatal("Invalid platform registry")
	}
	for _, key := range registry.Keys() {
		logger.GetLogger().WithField("platform", key).WithField("configured", registry.IsConfigured(key)).Info("Platform registered")
	}
	providerHTTP := &http.Client{Timeout: 15 * time.Second}
	oauth := oauthclient.NewClient(registry, providerHTTP).
		WithEnricher("youtube", youtubeclient.NewChannelStatsEnricher(providerHTTP))

	hub := realtime.NewAccountHub()
	fanout := events.NewFanout().Add("sse", hub)
	addEventSinks(ctx, fanout)

	locker := cache.NewLocker(redisClient)
	view := usecase.NewAccountView(
		profiles,
		accounts,
		configs,
		cache.NewViewGenerations(redisClient),
		configuration.C.AccountView.CacheSize,
		time.Duration(configuration.C.AccountView.CacheTTLSeconds)*time.Second,
	)
	tokens := usecase.NewTokenLifecycle(accounts, oauth, locker, configuration.LockTTL())
	linking := usecase.NewAccountLinking(usecase.LinkingDependencies{
		Registry: registry,
		Codec:    oauthclient.NewStateCodec(),
		OAuth:    oauth,
		Accounts: accounts,
		Configs:  configs,
		Store:    cache.NewAuthorizationStore(redisClient),
		Locker:   locker,
		Tokens:   tokens,
		Events:   fanout,
		View:     view,
		StateTTL: configuration.StateTTL(),
		LockTTL:  configuration.LockTTL(),
	})

	sessionEvents := usecase.NewSessionEvents()
	sessionEvents.Subscribe(view.HandleSessionChange)

	router := server.InitiateRouter(
		server.RouterConfig{SecretKey: app.SecretKey, AllowedOrigins: app.AllowedOrigins},
		httpHandler.NewAccountHandler(linking, view, registry, hub),
		httpHandler.NewOAuthCallbackHandler(linking, app.FrontendURL),
		httpHandler.NewSessionHandler(sessionEvents, app.SecretKey, time.Duration(app.SessionTTLHrs)*time.Hour),
		httpHandler.NewHealthHandler(map[string]httpHandler.Pinger{
			"database": db.PingContext,
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		}),
	)

	g.Go(func() error {
		return sweepOrphanedConfigs(ctx, configs, time.Duration(configuration.C.Events.OrphanSweepMinutes)*time.Minute)
	})

	logger.GetLogger().WithFields(map[string]interface{}{"port": app.Port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", app.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		var err error
		if app.TLSEnabled && app.TLSCertFile != "" && app.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile)
		} else {
			if app.TLSEnabled {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			}
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase opens the account database for the configured vendor and
// brings its schema up to date.
func InitiateDatabase(ctx context.Context) (*sql.DB, error) {
	switch configuration.C.Database.Vendor {
	case "mssql":
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			return nil, fmt.Errorf("connect mssql: %w", err)
		}
		if err := persistence.EnsureSchemaMSSQL(ctx, db); err != nil {
			return nil, fmt.Errorf("ensure mssql schema: %w", err)
		}
		return db, nil
	default:
		db, err := persistence.NewPostgreSQLDB()
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := persistence.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return db, nil
	}
}

func newRepositories(db *sql.DB) (repository.ISocialAccount, repository.IPlatformConfig) {
	if configuration.C.Database.Vendor == "mssql" {
		return persistence.NewSocialAccountRepositoryMSSQL(db), persistence.NewPlatformConfigRepositoryMSSQL(db)
	}
	return persistence.NewSocialAccountRepository(db), persistence.NewPlatformConfigRepository(db)
}

// addEventSinks attaches every optional sink that is configured and reachable.
func addEventSinks(ctx context.Context, fanout *events.Fanout) {
	mongoCfg := configuration.C.Database.Mongo
	if mongoCfg.Host != "" {
		client, err := persistence.NewMongoDb(mongoCfg.Host, mongoCfg.Port, mongoCfg.User, mongoCfg.Password, mongoCfg.Name)
		if err == nil {
			err = client.Ping(ctx, nil)
		}
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("MongoDB not available - account audit disabled")
		} else {
			fanout.Add("mongo", persistence.NewLinkAuditRepository(client, mongoCfg.Name, configuration.C.Events.MongoCollection))
		}
	}

	if projectID := configuration.C.Pubsub.ProjectID; projectID != "" {
		client, err := pubsub.NewPubSub(ctx, projectID)
		if err == nil {
			var publisher *pubsub.AccountPublisher
			publisher, err = pubsub.NewAccountPublisher(ctx, client, configuration.C.Pubsub.TopicID)
			if err == nil {
				fanout.Add("pubsub", publisher)
			}
		}
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("PubSub not available - continuing without it")
		}
	}

	if namespace := configuration.C.ServiceBus.Namespace; namespace != "" {
		client, err := servicebus.NewServiceBus(ctx, namespace)
		if err == nil {
			var sender *servicebus.AccountSender
			sender, err = servicebus.NewAccountSender(client, configuration.C.ServiceBus.Queue)
			if err == nil {
				fanout.Add("servicebus", sender)
			}
		}
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without it")
		}
	}

	logger.GetLogger().WithField("sinks", fanout.Len()).Info("Account event sinks ready")
}

// sweepOrphanedConfigs removes configs left behind by partially failed disconnects.
func sweepOrphanedConfigs(ctx context.Context, configs repository.IPlatformConfig, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sweepCtx, cancelSweep := context.WithTimeout(ctx, 30*time.Second)
			n, err := configs.DeleteOrphaned(sweepCtx)
			cancelSweep()
			if err != nil {
				logger.GetLogger().WithField("error", err).Warn("Orphaned platform config sweep failed")
				continue
			}
			if n > 0 {
				logger.GetLogger().WithField("removed", n).Info("Removed orphaned platform configs")
			}
		}
	}
}
