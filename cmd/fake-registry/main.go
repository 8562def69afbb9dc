package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"crpt-client/internal/fakeregistry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fake-registry",
		Short:        "Run a local stand-in for the CRPT document registry",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.New()
			v.SetEnvPrefix("FAKE_REGISTRY")
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			return run(cmd.Context(), v)
		},
	}
	cmd.Flags().String("listen-addr", ":8081", "listen address")
	cmd.Flags().Float64("quota-rps", 0, "server-side quota in requests per second (0 = off)")
	cmd.Flags().Int("quota-burst", 1, "server-side quota burst")
	cmd.Flags().Duration("retry-after", time.Second, "Retry-After sent on quota rejection")
	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := fakeregistry.NewHandler(log)
	h := fakeregistry.QuotaMiddleware(fakeregistry.QuotaOptions{
		RPS:        v.GetFloat64("quota-rps"),
		Burst:      v.GetInt("quota-burst"),
		RetryAfter: v.GetDuration("retry-after"),
		Logger:     log,
	})(reg.Routes())

	addr := v.GetString("listen-addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("fake registry listening",
		zap.String("addr", addr),
		zap.String("path", fakeregistry.CreatePath),
		zap.Float64("quota_rps", v.GetFloat64("quota-rps")))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server error", zap.Error(err))
		return err
	}
	log.Info("fake registry stopped", zap.Int64("accepted", reg.Accepted()))
	return nil
}
