package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Leganyst/ordering-platform/internal/config"
	"github.com/Leganyst/ordering-platform/internal/db"
	"github.com/Leganyst/ordering-platform/internal/httpapi"
	"github.com/Leganyst/ordering-platform/internal/logging"
	"github.com/Leganyst/ordering-platform/internal/model"
	"github.com/Leganyst/ordering-platform/internal/repository"
	"github.com/Leganyst/ordering-platform/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Конфиг: дефолты -> config.yaml -> env.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// 2. БД и миграции.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		logging.Fatal().Err(err).Msg("init db")
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		logging.Fatal().Err(err).Msg("auto migrate")
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logging.Fatal().Err(err).Msg("sql DB")
	}
	defer sqlDB.Close()

	// 3. Сервисы.
	identitySvc := service.NewIdentityService(repository.NewGormUserRepository(gormDB), cfg.Auth)
	orderSvc := service.NewOrderService(gormDB)
	catalogSvc := service.NewCatalogService(gormDB, cfg.Auth)

	// 4. Первый запуск: создаём admin и один раз печатаем пароль.
	ctx := context.Background()
	password, created, err := identitySvc.SeedAdmin(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("seed admin")
	}
	if created {
		announceAdmin(os.Stderr, password)
	}

	// 5. HTTP API.
	router := httpapi.NewRouter(httpapi.NewHandler(orderSvc, catalogSvc, identitySvc), cfg)
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		logging.Info().Str("addr", cfg.HTTP.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("http serve")
		}
	}()

	// 6. gRPC: health + reflection для оркестратора.
	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		logging.Fatal().Err(err).Str("addr", cfg.GRPC.Addr).Msg("listen")
	}
	go func() {
		logging.Info().Str("addr", cfg.GRPC.Addr).Msg("grpc health server listening")
		if err := grpcServer.Serve(lis); err != nil {
			logging.Fatal().Err(err).Msg("grpc serve")
		}
	}()

	// 7. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logging.Info().Msg("shutting down...")
	healthSrv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("http shutdown")
	}
	grpcServer.GracefulStop()
}

// announceAdmin печатает пароль нового admin в w, мимо структурного логгера.
func announceAdmin(w io.Writer, password string) {
	logging.Warn().Str("username", config.AdminRole).Msg("admin user created, password printed to stderr")
	fmt.Fprintf(w, "\n  admin password: %s\n  change it with PUT /users\n\n", password)
}
