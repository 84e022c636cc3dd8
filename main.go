package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"swapp/api/internal/api"
	"swapp/api/internal/cache"
	"swapp/api/internal/config"
	"swapp/api/internal/db"
	"swapp/api/internal/logging"
	"swapp/api/internal/push"
	"swapp/api/internal/recommender"
	"swapp/api/internal/services"
	"swapp/api/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

const workerConcurrency = 10

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			logging.Err(err).Msg("error disconnecting from MongoDB")
		}
	}()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx, mongoDb, services.Indexes()); err != nil {
		cancelIndexes()
		logging.Fatal().Err(err).Msg("failed to ensure indexes")
	}
	cancelIndexes()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			logging.Err(err).Msg("error disconnecting from Redis")
		}
	}()

	// Push senders
	var primarySender push.Sender
	switch {
	case cfg.MockServices:
		logging.Info().Msg("MOCK_SERVICES enabled: using Redis push sender")
		primarySender = push.NewRedisSender(redisClient)
	case cfg.PushGatewayURL != "":
		primarySender = push.NewGatewaySender(cfg.PushGatewayURL, cfg.PushGatewayKey)
	default:
		logging.Warn().Msg("PUSH_GATEWAY_URL not set: pushes are logged only")
		primarySender = push.LoggingSender{}
	}
	pushSender := push.NewCompositeSender(primarySender)
	if cfg.PushLogFile != "" {
		fileSender, err := push.NewFileSender(cfg.PushLogFile)
		if err != nil {
			logging.Warn().Err(err).Str("path", cfg.PushLogFile).Msg("failed to open push log file, continuing without it")
		} else {
			pushSender.AddSender(fileSender)
		}
	}

	// Recommender
	breakerSettings := recommender.DefaultBreakerSettings
	if cfg.RecommenderBreakerRequests > 0 {
		breakerSettings.MinRequests = uint32(cfg.RecommenderBreakerRequests)
	}
	recoClient := recommender.NewBreakerClient(recommender.NewHTTPClient(recommender.HTTPConfig{
		EngineURL: cfg.RecommenderEngineURL,
		EventURL:  cfg.RecommenderEventURL,
		AccessKeys: map[recommender.App]string{
			recommender.AppRecommendation: cfg.RecommenderAccessKey,
			recommender.AppSimilar:        cfg.RecommenderSimilarKey,
		},
		Timeout:  cfg.RecommenderTimeout,
		MinScore: cfg.RecommenderMinScore,
	}), breakerSettings)
	trainer := &recommender.CommandTrainer{Command: cfg.RecommenderTrainCmd}
	recoCache := cache.NewRecommendationCache(redisClient, cfg.RecommendationCacheTTL)

	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()
	effects := tasks.NewEnqueuer(taskClient)

	catalogService := services.NewCatalogService(mongoDb)
	profileService := services.NewProfileService(mongoDb, cfg, effects)
	preferenceService := services.NewPreferenceService(mongoDb, catalogService, effects)
	itemService := services.NewItemService(mongoDb, catalogService, effects)
	negotiationService := services.NewNegotiationService(mongoDb, cfg, effects)
	candidateService := services.NewCandidateService(mongoDb, cfg, itemService, recoClient, recoCache, negotiationService)
	conflictService := services.NewConflictService(mongoDb, cfg)
	notificationService := services.NewNotificationService(mongoDb)
	threadService := services.NewThreadService(mongoDb, effects)

	dispatcher := push.NewDispatcher(profileService, pushSender)
	taskProcessor := tasks.NewTaskProcessor(dispatcher, recoClient, trainer, recoCache)

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)

	// The service API always runs.
	serviceRouter := api.SetupServiceRouter(cfg, redisClient, profileService, shutdownChan)
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: serviceRouter,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		logging.Info().Str("port", cfg.ServiceApiPort).Msg("service API listening")
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("service API ListenAndServe error")
		}
		logging.Info().Msg("service API server stopped")
	}()

	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server

	logging.Info().Str("mode", cfg.RunMode).Msg("starting application")

	apiMode := func() {
		mainApiRouter := api.SetupRouter(cfg, &api.Services{
			Catalog:       catalogService,
			Items:         itemService,
			Candidates:    candidateService,
			Conflicts:     conflictService,
			Negotiation:   negotiationService,
			Notifications: notificationService,
			Threads:       threadService,
			Profiles:      profileService,
			Preferences:   preferenceService,
		})
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: mainApiRouter,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logging.Info().Str("port", cfg.ApiPort).Msg("main API listening")
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Fatal().Err(err).Msg("main API ListenAndServe error")
			}
			logging.Info().Msg("main API server stopped")
		}()
	}

	bgMode := func() {
		srv, mux := tasks.SetupServer(redisClient, taskProcessor, workerConcurrency)
		// Start rather than Run: signals are handled below, not by asynq.
		if err := srv.Start(mux); err != nil {
			logging.Fatal().Err(err).Msg("background task server error")
		}
		backgroundTaskSrv = srv
		logging.Info().Msg("background task server started")
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		logging.Fatal().Str("mode", cfg.RunMode).Msg("invalid run mode")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case <-shutdownChan:
		logging.Info().Msg("shutdown requested via service API")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		logging.Err(err).Msg("service API server shutdown error")
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			logging.Err(err).Msg("main API server shutdown error")
		}
	}
	if backgroundTaskSrv != nil {
		backgroundTaskSrv.Shutdown()
		logging.Info().Msg("background task server stopped")
	}

	wg.Wait()
	logging.Info().Msg("server gracefully stopped")
}
