package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crpt-client/client/submission/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fixedWindowScript incrementa o contador da janela e arma a expiração apenas
// na primeira chamada, de forma atômica no servidor.
var fixedWindowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisGovernor aplica a mesma janela fixa do Governor, mas compartilhada entre
// processos que apontam para o mesmo Redis e a mesma chave.
//
// Cada tentativa incrementa o contador (inclusive as negadas). Erro de Redis nega
// a chamada: é preferível perder um envio a estourar a cota do registro.
type RedisGovernor struct {
	rdb    redis.UniversalClient
	window domain.Window
	key    string
	// timeout de cada ida ao Redis; TryAcquire não recebe ctx.
	timeout time.Duration
	log     *zap.Logger
}

type RedisGovernorOption func(*RedisGovernor)

func WithGovernorKey(key string) RedisGovernorOption {
	return func(g *RedisGovernor) {
		if k := strings.Trim(key, ":"); k != "" {
			g.key = k
		}
	}
}

func WithGovernorTimeout(d time.Duration) RedisGovernorOption {
	return func(g *RedisGovernor) { g.timeout = d }
}

func WithGovernorLogger(l *zap.Logger) RedisGovernorOption {
	return func(g *RedisGovernor) {
		if l != nil {
			g.log = l
		}
	}
}

func NewRedisGovernor(rdb redis.UniversalClient, window domain.Window, opts ...RedisGovernorOption) (*RedisGovernor, error) {
	if rdb == nil {
		return nil, fmt.Errorf("%w: redis client is required", domain.ErrInvalidConfiguration)
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	g := &RedisGovernor{
		rdb:     rdb,
		window:  window,
		key:     "crpt:governor",
		timeout: 500 * time.Millisecond,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// TryAcquire implementa domain.Limiter.
func (g *RedisGovernor) TryAcquire() bool {
	ctx, cancel := g.context()
	defer cancel()

	ttl := g.window.Duration.Milliseconds()
	if ttl < 1 {
		ttl = 1
	}
	n, err := fixedWindowScript.Run(ctx, g.rdb, []string{g.key}, ttl).Int64()
	if err != nil {
		g.log.Error("shared governor unavailable, denying submission",
			zap.String("key", g.key),
			zap.Error(err))
		return false
	}
	return n <= int64(g.window.Capacity)
}

// ResetIn implementa domain.WindowInfo. Retorna 0 se não houver janela aberta
// ou se o Redis não responder.
func (g *RedisGovernor) ResetIn() time.Duration {
	ctx, cancel := g.context()
	defer cancel()

	ttl, err := g.rdb.PTTL(ctx, g.key).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

func (g *RedisGovernor) context() (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), g.timeout)
}
