package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"crpt-client/client/submission"
	"crpt-client/client/submission/domain"
	"crpt-client/client/submission/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crpt-submit",
		Short:         "Submit a signed document to the CRPT registry under a request-rate ceiling",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return err
			}
			cfg, err := readConfig(v)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}
	bindFlags(cmd.Flags())
	return cmd
}

func run(parent context.Context, cfg config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log, err := newLogger(cfg.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	doc, err := loadDocument(cfg.documentPath)
	if err != nil {
		return err
	}
	signature, err := loadSignature(cfg)
	if err != nil {
		return err
	}
	format, err := submission.ParseDocumentFormat(cfg.format)
	if err != nil {
		return err
	}

	opts := submission.Options{
		Transport:      infra.NewHTTPTransport(infra.WithTimeout(cfg.timeout)),
		Logger:         log,
		BaseURL:        cfg.baseURL,
		Format:         format,
		MaxInFlight:    cfg.maxInFlight,
		AcquireTimeout: cfg.acquireTimeout,
	}

	if cfg.governorRedisAddr != "" {
		rdb, err := dialRedis(ctx, &redis.Options{Addr: cfg.governorRedisAddr})
		if err != nil {
			return fmt.Errorf("governor redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()

		window, err := domain.NewWindow(cfg.rateUnit, cfg.rateLimit)
		if err != nil {
			return err
		}
		gov, err := infra.NewRedisGovernor(rdb, window,
			infra.WithGovernorKey(cfg.governorKey),
			infra.WithGovernorLogger(log))
		if err != nil {
			return err
		}
		opts.Limiter = gov
	}

	stats := infra.NewMemoryStatsStore()
	opts.Stats = stats
	if cfg.statsRedisAddr != "" {
		rdb, err := dialRedis(ctx, &redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		if err != nil {
			return fmt.Errorf("stats redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()

		opts.Stats = teeStats{stats, infra.NewRedisStatsStore(rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL))}
	}

	reg := prometheus.NewRegistry()
	metrics, err := submission.NewMetrics(reg)
	if err != nil {
		return err
	}
	opts.Metrics = metrics
	if cfg.metricsAddr != "" {
		stop := serveMetrics(cfg.metricsAddr, reg, log)
		defer stop()
	}

	client, err := submission.New(cfg.rateUnit, cfg.rateLimit, opts)
	if err != nil {
		return err
	}

	log.Info("submitting",
		zap.String("url", client.URL()),
		zap.Int("repeat", cfg.repeat),
		zap.Int("rate_limit", cfg.rateLimit),
		zap.Duration("rate_unit", cfg.rateUnit),
		zap.Bool("shared_window", cfg.governorRedisAddr != ""))

	results := make([]submission.Result, cfg.repeat)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = client.Submit(ctx, doc, signature)
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		if res.OK() {
			fmt.Println(res.Body)
		}
	}
	for _, o := range domain.Outcomes {
		if n := stats.Count(o); n > 0 {
			log.Info("summary", zap.String("outcome", string(o)), zap.Int64("count", n))
		}
	}

	if stats.Count(domain.OutcomeSubmitted) == 0 {
		return errors.New("no document was submitted")
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func loadDocument(path string) (submission.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return submission.Document{}, fmt.Errorf("read document: %w", err)
	}
	var doc submission.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return submission.Document{}, fmt.Errorf("parse document %s: %w", path, err)
	}
	if doc.Description.ParticipantInn == "" {
		doc.Description.ParticipantInn = doc.ParticipantInn
	}
	return doc, nil
}

func loadSignature(cfg config) (string, error) {
	if cfg.signature != "" {
		return cfg.signature, nil
	}
	data, err := os.ReadFile(cfg.signaturePath)
	if err != nil {
		return "", fmt.Errorf("read signature: %w", err)
	}
	sig := strings.TrimSpace(string(data))
	if sig == "" {
		return "", fmt.Errorf("signature file %s is empty", cfg.signaturePath)
	}
	return sig, nil
}

func dialRedis(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", zap.Error(err))
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

// teeStats grava em vários stores; o primeiro erro é devolvido.
type teeStats []domain.StatsStore

func (t teeStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range t {
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
