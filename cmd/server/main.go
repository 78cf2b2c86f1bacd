package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/config"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/forecast"
	anaH "github.com/fekuna/omnipos-restaurant-service/internal/analytics/handler"
	anaListenerPkg "github.com/fekuna/omnipos-restaurant-service/internal/analytics/listener"
	anaLockPkg "github.com/fekuna/omnipos-restaurant-service/internal/analytics/lock"
	anaRepoPkg "github.com/fekuna/omnipos-restaurant-service/internal/analytics/repository"
	anaUCPkg "github.com/fekuna/omnipos-restaurant-service/internal/analytics/usecase"
	authH "github.com/fekuna/omnipos-restaurant-service/internal/auth/handler"
	authRepoPkg "github.com/fekuna/omnipos-restaurant-service/internal/auth/repository"
	authUCPkg "github.com/fekuna/omnipos-restaurant-service/internal/auth/usecase"
	invH "github.com/fekuna/omnipos-restaurant-service/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/omnipos-restaurant-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-restaurant-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-restaurant-service/internal/menu"
	menuCachePkg "github.com/fekuna/omnipos-restaurant-service/internal/menu/cache"
	menuH "github.com/fekuna/omnipos-restaurant-service/internal/menu/handler"
	menuRepoPkg "github.com/fekuna/omnipos-restaurant-service/internal/menu/repository"
	menuUCPkg "github.com/fekuna/omnipos-restaurant-service/internal/menu/usecase"
	"github.com/fekuna/omnipos-restaurant-service/internal/middleware"
	"github.com/fekuna/omnipos-restaurant-service/internal/order"
	orderEventsPkg "github.com/fekuna/omnipos-restaurant-service/internal/order/events"
	orderH "github.com/fekuna/omnipos-restaurant-service/internal/order/handler"
	orderRepoPkg "github.com/fekuna/omnipos-restaurant-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/omnipos-restaurant-service/internal/order/usecase"
	"github.com/fekuna/omnipos-restaurant-service/internal/seed"
	"github.com/fekuna/omnipos-restaurant-service/pkg/broker"
	"github.com/fekuna/omnipos-restaurant-service/pkg/cache"
	"github.com/fekuna/omnipos-restaurant-service/pkg/database"
	"github.com/fekuna/omnipos-restaurant-service/pkg/health"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/fekuna/omnipos-restaurant-service/pkg/observability"
	"github.com/fekuna/omnipos-restaurant-service/pkg/response"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

const catalogCacheTTL = 5 * time.Minute

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		appLogger.Fatal("Unknown restaurant timezone", zap.String("timezone", cfg.Server.Timezone), zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := observability.SetupTracing(ctx, &observability.TracingConfig{
		Endpoint:    cfg.Otel.Endpoint,
		ServiceName: cfg.Otel.ServiceName,
		Insecure:    cfg.Otel.Insecure,
	})
	if err != nil {
		appLogger.Fatal("Could not set up tracing", zap.Error(err))
	}

	// 4. Connect to Database
	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Database.ConnMaxIdleTime) * time.Second,
		SnapshotConns:   cfg.Database.SnapshotConns,
	}
	db, err := database.NewDB(dbConfig)
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		appLogger.Fatal("Could not migrate database", zap.Error(err))
	}
	snapshotDB, err := database.NewSnapshotDB(dbConfig)
	if err != nil {
		appLogger.Fatal("Could not open snapshot pool", zap.Error(err))
	}
	if snapshotDB != nil {
		defer snapshotDB.Close()
	}
	appLogger.Info("Connected to database",
		zap.String("driver", db.DriverName()),
		zap.Bool("snapshot_pool", snapshotDB != nil),
	)
	txm := database.NewTxManager(db, database.SnapshotPool(snapshotDB))

	// 5. Optional Redis
	var (
		redisClient  *cache.RedisClient
		catalogCache menu.CatalogCache = menuCachePkg.NewMemoryCatalogCache()
		trainLocker  analytics.Locker  = anaLockPkg.NewLocalLocker()
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		catalogCache = menuCachePkg.NewRedisCatalogCache(redisClient, catalogCacheTTL, appLogger)
		trainLocker = anaLockPkg.NewRedisLocker(redisClient, cfg.Analytics.LockTTL)
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 6. Optional Kafka producer
	kafkaCfg := &broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	}
	var events order.EventPublisher = orderEventsPkg.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(kafkaCfg)
		defer producer.Close()
		events = producer
		appLogger.Info("Kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// 7. Initialize Repositories
	authRepo := authRepoPkg.NewSQLRepository(db)
	menuRepo := menuRepoPkg.NewSQLRepository(db)
	invRepo := invRepoPkg.NewSQLRepository(db)
	orderRepo := orderRepoPkg.NewSQLRepository(db)
	anaRepo := anaRepoPkg.NewSQLRepository(db)

	// 8. Initialize UseCases
	authUC := authUCPkg.NewAuthUseCase(authRepo, cfg.JWT.SecretKey, cfg.JWT.TTL, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, txm, catalogCache, appLogger)
	menuUC := menuUCPkg.NewMenuUseCase(menuRepo, invUC, txm, catalogCache, appLogger)
	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, menuUC, invUC, txm, catalogCache, events, appLogger)
	trainer := forecast.NewForestTrainer(forecast.ForestConfig{
		Trees:    cfg.Analytics.Trees,
		MaxDepth: cfg.Analytics.MaxDepth,
		MinLeaf:  cfg.Analytics.MinLeaf,
		Seed:     cfg.Analytics.Seed,
	})
	anaUC := anaUCPkg.NewAnalyticsUseCase(anaRepo, txm, trainer, trainLocker, loc, anaUCPkg.Config{
		ModelPath:         cfg.Analytics.ModelPath,
		MinTrainingOrders: cfg.Analytics.MinTrainingOrders,
	}, appLogger)
	if err := anaUC.LoadModel(ctx); err != nil {
		appLogger.Warn("Could not load saved demand model", zap.Error(err))
	}

	// 9. Seed
	seedFile, err := seed.Load(cfg.Seed.MenuFile)
	if err != nil {
		appLogger.Fatal("Could not load seed data", zap.Error(err))
	}
	if err := seed.NewSeeder(menuUC, menuRepo, authUC, authRepo, appLogger).Run(ctx, seedFile); err != nil {
		appLogger.Fatal("Could not seed database", zap.Error(err))
	}

	// 10. Optional completion listener
	if len(cfg.Kafka.Brokers) > 0 {
		consumer := broker.NewConsumer(kafkaCfg)
		defer consumer.Close()
		listener := anaListenerPkg.NewCompletionListener(consumer, anaUC, cfg.Analytics.RetrainEvery, appLogger)
		go listener.Start(ctx)
	}

	// 11. HTTP router
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(appLogger))
	r.Use(middleware.Authenticate(authUC))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	var loginLimiter *middleware.RateLimiter
	if cfg.Server.LoginRPS > 0 {
		loginLimiter = middleware.NewRateLimiter(cfg.Server.LoginRPS, cfg.Server.LoginBurst, appLogger)
	}
	r.Route("/api/v1", func(r chi.Router) {
		authH.NewAuthHandler(authUC, loginLimiter, appLogger).Routes(r)
		menuH.NewMenuHandler(menuUC, appLogger).Routes(r)
		invH.NewInventoryHandler(invUC, appLogger).Routes(r)
		orderH.NewOrderHandler(orderUC, appLogger).Routes(r)
		anaH.NewAnalyticsHandler(anaUC, loc, cfg.Analytics.PeakLookbackDays, appLogger).Routes(r)
	})

	httpServer := &http.Server{
		Addr:         normalizePort(cfg.Server.HTTPPort),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// 12. gRPC health + reflection
	grpcPort := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", grpcPort), zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	checker := health.NewChecker(db, 10*time.Second, appLogger)
	checker.Register(grpcServer)
	reflection.Register(grpcServer)
	go checker.Start(ctx)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", grpcPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	checker.Shutdown()

	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Error("Tracing shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
