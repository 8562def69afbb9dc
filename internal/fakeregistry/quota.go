package fakeregistry

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type QuotaOptions struct {
	// RPS e Burst configuram o token bucket; RPS <= 0 desliga a cota.
	RPS          float64
	Burst        int
	RejectStatus int
	RetryAfter   time.Duration
	Logger       *zap.Logger
}

// QuotaMiddleware aplica uma cota global (não por cliente) ao estilo do registro real.
func QuotaMiddleware(opts QuotaOptions) func(next http.Handler) http.Handler {
	if opts.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	lim := rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst)
	retryAfter := retryAfterSeconds(opts.RetryAfter)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				opts.Logger.Warn("quota exceeded", zap.String("path", r.URL.Path))
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, http.StatusText(opts.RejectStatus), opts.RejectStatus)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds arredonda para cima: o header só aceita segundos inteiros e
// não pode sugerir voltar antes da hora. Mínimo 1.
func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
