package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/config"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/engine"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/logging"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/metrics"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/store"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/transport"
)

// #region main
func main() {
	// .env is optional; real environment wins.
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("AMAS_CONFIG", ""), "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("engine stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := cfg.BuildCatalog()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithObserver(metrics.New(reg)),
	}

	st, closeStore, err := openStore(ctx, cfg.Store, &opts)
	if err != nil {
		return err
	}
	defer closeStore()

	eng, err := engine.New(cfg.Engine(), cat, st, opts...)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
	}
	gs := transport.NewGRPCServer(transport.NewServer(eng, logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("grpc listening", zap.String("addr", cfg.Server.GRPCAddr), zap.String("store", cfg.Store.Type), zap.Int("actions", cat.Len()))
		return gs.Serve(lis)
	})

	var ms *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		ms = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("metrics listening", zap.String("addr", cfg.Server.MetricsAddr))
			if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		gs.GracefulStop()
		if ms != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Shutdown(sctx)
		}
		return nil
	})

	return g.Wait()
}

// #endregion main

// #region store

// openStore builds the configured snapshot backend. The SQLite backend also
// records every decision to its decision_log.
func openStore(ctx context.Context, sc config.StoreConfig, opts *[]engine.Option) (store.Store, func(), error) {
	switch sc.Type {
	case config.StoreMemory:
		return store.NewMemoryStore(), func() {}, nil
	case config.StoreSQLite:
		st, err := store.NewSQLiteStore(sc.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		*opts = append(*opts, engine.WithRecorder(logging.NewRecorder(st.DB())))
		return st, func() { _ = st.Close() }, nil
	case config.StoreRedis:
		st, err := store.NewRedisStore(ctx, store.RedisOptions{
			Addr:     sc.RedisAddr,
			Password: os.Getenv("AMAS_REDIS_PASSWORD"),
			DB:       sc.RedisDB,
			Prefix:   sc.RedisPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return st, func() { _ = st.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store type %q", sc.Type)
	}
}

// #endregion store

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
