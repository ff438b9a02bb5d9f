package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"afa.directory/internal/audit"
	"afa.directory/internal/auth"
	"afa.directory/internal/cache"
	"afa.directory/internal/config"
	"afa.directory/internal/directory"
	"afa.directory/internal/httpapi"
	"afa.directory/internal/migrate"
	"afa.directory/internal/obs"
	"afa.directory/internal/store/memory"
	"afa.directory/internal/store/pg"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// backend is satisfied by both the PostgreSQL and the in-memory stores.
type backend interface {
	directory.Store
	auth.AccountStore
	audit.Store
	audit.QueryStore
}

func main() {
	var (
		bootstrap = flag.Bool("bootstrap", true, "apply migrations and seed defaults on start")
		inMemory  = flag.Bool("memory", false, "serve from a seeded in-memory store instead of PostgreSQL")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := obs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	obs.SetLogger(logger)
	obs.Init()
	storeKind := obs.StorePostgres
	if *inMemory {
		storeKind = obs.StoreMemory
	}
	obs.InitBuildInfo(version, commit, storeKind)

	if *inMemory {
		if cfg.JWTSecret == "" {
			logger.Fatal("invalid configuration", zap.Error(config.ErrMissingSecret))
		}
	} else if err := cfg.RequireServer(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store backend
		probe = httpapi.ReadyProbe{}
	)
	if *inMemory {
		mem := memory.New()
		if err := seedMemory(ctx, mem, cfg.BcryptCost); err != nil {
			logger.Fatal("seed in-memory store", zap.Error(err))
		}
		logger.Warn("serving from in-memory store; data is lost on exit")
		store = mem
	} else {
		pgStore, err := pg.Open(cfg.PGDSN)
		if err != nil {
			logger.Fatal("open database", zap.Error(err))
		}
		defer pgStore.Close()
		if *bootstrap {
			mgr := migrate.NewManager(pgStore.DB(), migrate.WithPasswordCost(cfg.BcryptCost), migrate.WithLogger(logger))
			bootCtx, cancel := context.WithTimeout(ctx, time.Minute)
			err := mgr.Bootstrap(bootCtx)
			cancel()
			if err != nil {
				logger.Fatal("bootstrap database", zap.Error(err))
			}
		}
		store = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	}

	recorder := audit.NewRecorder(store, audit.WithLogger(logger))
	dirOpts := []directory.Option{
		directory.WithRecorder(recorder),
		directory.WithLogger(logger),
		directory.WithPasswordCost(cfg.BcryptCost),
	}
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, public directory served uncached", zap.Error(err))
		} else {
			defer rdb.Close()
			dirOpts = append(dirOpts, directory.WithCache(cache.New(rdb, cache.WithTTL(cfg.CacheTTL), cache.WithLogger(logger))))
		}
	}
	dirSvc := directory.NewService(store, dirOpts...)
	authSvc, err := auth.NewService(store,
		auth.WithTokenSecret(cfg.JWTSecret),
		auth.WithAccessTTL(cfg.TokenTTL),
		auth.WithRecorder(recorder),
	)
	if err != nil {
		logger.Fatal("auth service", zap.Error(err))
	}
	activity := audit.NewService(store, time.Now)

	proxies, err := httpapi.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Fatal("trusted proxies", zap.Error(err))
	}

	api := httpapi.New(dirSvc, authSvc, activity,
		httpapi.WithReadyProbe(probe),
		httpapi.WithVersion(version),
		httpapi.WithLogger(logger),
		httpapi.WithLoginRateLimit(cfg.LoginRate, cfg.LoginBurst),
		httpapi.WithRequestTimeout(cfg.RequestTimeout),
		httpapi.WithAllowedOrigins(cfg.AllowedOrigins),
		httpapi.WithTrustedProxies(proxies),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http listen", zap.Error(err))
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatal("grpc listen", zap.Error(err))
		}
		grpcSrv = grpc.NewServer()
		httpapi.NewGRPCServer(probe, logger).Register(grpcSrv)
		go func() {
			logger.Info("grpc health listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				logger.Error("grpc serve", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	logger.Info("stopped")
}

// seedMemory installs the same default super admin and companies a fresh
// database receives.
func seedMemory(ctx context.Context, store *memory.InMemory, cost int) error {
	hash, err := auth.HashPassword(migrate.DefaultAdminPassword, cost)
	if err != nil {
		return err
	}
	email := migrate.DefaultAdminEmail
	if _, err := store.CreateAdmin(ctx, directory.NewAdmin{
		Username:     migrate.DefaultAdminUsername,
		PasswordHash: hash,
		Email:        &email,
		Role:         auth.RoleSuperAdmin,
	}); err != nil {
		return err
	}
	for _, c := range migrate.DefaultCompanies {
		if _, err := store.CreateCompany(ctx, directory.CompanyInput{NameEN: c.NameEN, NameFA: c.NameFA}); err != nil {
			return err
		}
	}
	return nil
}
