package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/JaniM/variant-go-server/internal/adapters"
	"github.com/JaniM/variant-go-server/internal/bootstrap"
	"github.com/JaniM/variant-go-server/internal/coordinator"
	authDelivery "github.com/JaniM/variant-go-server/internal/delivery/auth"
	gameDelivery "github.com/JaniM/variant-go-server/internal/delivery/game"
	ownMiddleware "github.com/JaniM/variant-go-server/internal/middleware"
	repo "github.com/JaniM/variant-go-server/internal/repository"
	authUC "github.com/JaniM/variant-go-server/internal/usecase/auth"
	"github.com/JaniM/variant-go-server/internal/usecase/persist"
)

type mainDeliveryHandler struct {
	auth *authDelivery.AuthHandler
	game *gameDelivery.GameHandler
}

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("Failed to setup configuration", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
	defer databaseAdapters.mongoAdapter.Close(ctx)
	defer databaseAdapters.redisAdapter.Close(ctx)

	userRepo := repo.NewUserRepository(logger, databaseAdapters.mongoAdapter.Database)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		logger.Fatalw("Failed to ensure user indexes", "error", err)
	}
	recordRepo := repo.NewRecordRepository(logger, databaseAdapters.mongoAdapter.Database)
	replayCache := repo.NewReplayCacheRepository(
		databaseAdapters.redisAdapter.GetClient(),
		time.Duration(cfg.ReplayTTLSeconds)*time.Second,
	)

	authUsecase := authUC.NewUsecaseHandler(userRepo)
	gateway := persist.NewGateway(recordRepo, replayCache, logger)
	coord := coordinator.New(authUsecase, gateway, logger)

	go coord.Run(ctx,
		time.Duration(cfg.ReaperSeconds)*time.Second,
		time.Duration(cfg.DepartTimeoutSecs)*time.Second,
	)

	r := chi.NewRouter()
	handlers := &mainDeliveryHandler{
		auth: authDelivery.NewAuthHandler(authUsecase, logger),
		game: gameDelivery.NewGameHandler(coord, gateway, logger),
	}
	handlers.Router(r, cfg.IsLocalCors)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		logger.Infof("Server is running on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("Failed to start server", "error", err)
		}
	}()

	waitForShutdown(logger)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("Server shutdown failed", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)

	r.Post("/identify", h.auth.Identify)
	r.Post("/games", h.game.HandleNewGame)
	r.Get("/games", h.game.HandleListGames)
	r.Get("/archive", h.game.HandleArchive)
	r.Get("/archive/{id}/sgf", h.game.HandleSGF)
	r.Get("/play", h.game.HandlePlay)
}

func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	mongoAdapter := adapters.NewAdapterMongo(cfg)
	if err := mongoAdapter.Init(ctx); err != nil {
		log.Fatalw("Failed to initialize MongoDB", "error", err)
	}

	redisAdapter := adapters.NewAdapterRedis(cfg)
	if err := redisAdapter.Init(ctx); err != nil {
		log.Fatalw("Failed to initialize Redis", "error", err)
	}

	log.Info("Database adapters initialized")
	return &dataBaseAdapters{
		redisAdapter: redisAdapter,
		mongoAdapter: mongoAdapter,
	}
}

func waitForShutdown(log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
}
