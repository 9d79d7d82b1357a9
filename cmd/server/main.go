package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/petstore-orders/internal/adapter/handler"
	"github.com/rl1809/petstore-orders/internal/adapter/messaging"
	"github.com/rl1809/petstore-orders/internal/adapter/storage"
	"github.com/rl1809/petstore-orders/internal/config"
	"github.com/rl1809/petstore-orders/internal/core/service"
	"github.com/rl1809/petstore-orders/internal/observability"
	"github.com/rl1809/petstore-orders/internal/port"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)
	checks := map[string]handler.HealthCheck{}

	// Initialize store
	store, closeStore := openStore(ctx, cfg, logger, checks)
	defer closeStore()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	redisAdapter := storage.NewRedisAdapter(rdb)
	checks["redis"] = redisAdapter.Ping

	// Initialize services
	guard := service.NewIdempotencyGuard(redisAdapter, cfg.IdempotencyTTL)
	orderService := service.NewOrderService(store, guard, cfg.EventQueueSize,
		service.WithLogger(logger),
		service.WithMetrics(metrics),
		service.WithOrderNumberPrefix(cfg.OrderNumberPrefix),
	)
	cartService := service.NewCartService(store, logger)

	// Start event workers
	publisher := newPublisher(cfg, logger)
	dispatcher := messaging.NewDispatcher(publisher, logger, metrics)
	dispatcher.Start(orderService.Events(), cfg.EventWorkers)

	// Initialize gRPC server
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(handler.UnaryLoggingInterceptor(logger)))
	handler.RegisterOrderServiceServer(grpcServer, handler.NewGRPCHandler(orderService, logger))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(orderService, cartService, logger, reg, checks)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpHandler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Handlers that outlived the HTTP shutdown timeout have their late events dropped.
	orderService.Close()
	dispatcher.Wait()
	if err := publisher.Close(); err != nil {
		logger.Warn("failed to close event publisher", zap.Error(err))
	}
	logger.Info("event workers stopped")

	rdb.Close()
	logger.Info("connections closed")
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, checks map[string]handler.HealthCheck) (port.DatabaseRepository, func()) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return storage.NewMemoryAdapter(), func() {}
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	if cfg.MySQL.RunMigrations {
		if err := storage.RunMigrations(db); err != nil {
			logger.Fatal("failed to migrate", zap.Error(err))
		}
		logger.Info("migrations applied")
	}

	adapter := storage.NewMySQLAdapter(db)
	checks["mysql"] = adapter.Ping
	return adapter, func() { db.Close() }
}

func newPublisher(cfg *config.Config, logger *zap.Logger) port.EventPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("no kafka brokers configured, order events go to the log")
		return messaging.NewLogPublisher(logger)
	}
	logger.Info("publishing order events to kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
	)
	return messaging.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}
