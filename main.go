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

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/cache"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/oauthstate"
	"social-publisher/infrastructure/persistence"
	"social-publisher/infrastructure/platforms/catalog"
	"social-publisher/infrastructure/pubsub"
	"social-publisher/infrastructure/realtime"
	"social-publisher/infrastructure/servicebus"
	httpHandler "social-publisher/interfaces/http"
	"social-publisher/server"
	"social-publisher/usecase"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

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

	cfg, err := configuration.Load()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while loading configuration")
		os.Exit(1)
	}
	logger.Configure(cfg.Logger.Format, cfg.Logger.Level)

	db, err := InitiateDatabase(cfg.Database)
	if err != nil {
		logger.GetLogger().WithField("vendor", cfg.Database.Vendor).WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}
	defer db.Close()

	var connRepo repository.IPlatformConnection
	var resultRepo repository.IPublishResult
	if cfg.Database.Vendor == "mssql" {
		connRepo = persistence.NewConnectionRepositoryMSSQL(db)
		resultRepo = persistence.NewPublishResultRepositoryMSSQL(db)
	} else {
		connRepo = persistence.NewConnectionRepository(db)
		resultRepo = persistence.NewPublishResultRepository(db)
	}

	states := initiateStateStore(ctx, cfg.RedisClient)

	signer, err := oauthstate.NewSigner(cfg.OAuth.StateSecret, cfg.OAuth.StateTTL())
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("OAuth state signing is not configured")
		os.Exit(1)
	}

	// One client for every outbound platform call.
	platformClient := &http.Client{Timeout: cfg.HTTP.Timeout()}
	registry := catalog.New(cfg.OAuth, platformClient)
	logger.GetLogger().WithField("platforms", registry.IDs()).WithField("timeout", cfg.HTTP.Timeout().String()).Info("Platforms registered")

	hub := realtime.NewPublishHub()
	notifiers := []repository.IPublishNotifier{hub}

	var attemptLog repository.IPublishAttemptLog
	mongoClient, err := persistence.NewMongoDb(ctx, cfg.Database.Mongo)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without the attempt audit log")
	} else {
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		attempts := persistence.NewAttemptLogRepository(mongoClient, cfg.Database.Mongo.Name)
		notifiers = append(notifiers, attempts)
		attemptLog = attempts
		logger.GetLogger().Info("MongoDB connected successfully")
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - outcome events will not be published")
	} else {
		defer pubSubClient.Close()
		publisher := pubsub.NewOutcomePublisher(pubSubClient, cfg.Pubsub.TopicID)
		defer publisher.Stop()
		notifiers = append(notifiers, publisher)
	}

	azServiceBusClient, err := servicebus.NewServiceBus(cfg.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus features")
	} else {
		sender := servicebus.NewOutcomeSender(azServiceBusClient, cfg.ServiceBus.Queue)
		defer func() {
			_ = sender.Close(context.Background())
			_ = azServiceBusClient.Close(context.Background())
		}()
		notifiers = append(notifiers, sender)
	}

	tracker := usecase.NewStatusTracker(resultRepo, notifiers...)
	dispatcher := usecase.NewDispatcher(registry)
	publishUC := usecase.NewPublishUsecase(dispatcher, tracker, connRepo, resultRepo)
	if attemptLog != nil {
		publishUC = publishUC.WithAttemptLog(attemptLog)
	}
	connectionUC := usecase.NewConnectionUsecase(registry, connRepo, signer, states, cfg.OAuth.ExposeTokens)

	router := server.InitiateRouter(server.Handlers{
		Health:     httpHandler.NewHealthHandler(),
		Connection: httpHandler.NewConnectionHandler(connectionUC),
		Publish:    httpHandler.NewPublishHandler(publishUC),
		Stream:     hub.Serve,
	}, cfg.App.SecretKey, cfg.App.AllowedOrigins)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.GetLogger().WithField("port", cfg.App.Port).WithField("tls", cfg.App.TLSEnabled).Info("Starting application")
		return serve(httpServer, cfg.App)
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-gctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Graceful shutdown did not complete")
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

func serve(httpServer *http.Server, app configuration.App) error {
	var err error
	switch {
	case app.TLSEnabled && (app.TLSCertFile == "" || app.TLSKeyFile == ""):
		logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
		err = httpServer.ListenAndServe()
	case app.TLSEnabled:
		logger.GetLogger().WithField("cert", app.TLSCertFile).Info("Serving HTTPS")
		err = httpServer.ListenAndServeTLS(app.TLSCertFile, app.TLSKeyFile)
	default:
		err = httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// InitiateDatabase opens the credential and result store selected by
// database.vendor and makes sure its tables exist.
func InitiateDatabase(cfg configuration.Database) (*sql.DB, error) {
	if cfg.Vendor == "mssql" {
		db, err := persistence.NewMSSQLDB(cfg.Mssql)
		if err != nil {
			return nil, fmt.Errorf("connect mssql: %w", err)
		}
		if err := persistence.EnsureSchemaMSSQL(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure mssql schema: %w", err)
		}
		return db, nil
	}

	db, err := persistence.NewPostgreSQLDB(cfg.Psql)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := persistence.EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure postgres schema: %w", err)
	}
	return db, nil
}

// initiateStateStore prefers Redis so state tokens can be redeemed on any
// instance; a single instance deployment can run without it.
func initiateStateStore(ctx context.Context, cfg configuration.RedisClient) repository.IStateStore {
	if cfg.Host == "" {
		logger.GetLogger().Warn("Redis not configured - pending authorizations are kept in memory")
		return cache.NewMemoryStateStore()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	redisClient, err := cache.NewCache(pingCtx, fmt.Sprintf("%s:%s", cfg.Host, cfg.Port), cfg.Username, cfg.Password)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - pending authorizations are kept in memory")
		return cache.NewMemoryStateStore()
	}
	logger.GetLogger().Info("Redis client initialized successfully.")
	return cache.NewRedisStateStore(redisClient)
}
