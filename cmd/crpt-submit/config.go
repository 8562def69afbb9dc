package main

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type config struct {
	documentPath  string
	signature     string
	signaturePath string
	repeat        int

	baseURL        string
	format         string
	timeout        time.Duration
	rateLimit      int
	rateUnit       time.Duration
	maxInFlight    int
	acquireTimeout time.Duration

	governorRedisAddr string
	governorKey       string

	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration

	metricsAddr string
	logLevel    string
}

const envPrefix = "CRPT"

func bindFlags(fs *pflag.FlagSet) {
	fs.String("document", "", "path to the document JSON file")
	fs.String("signature", "", "document signature (base64)")
	fs.String("signature-file", "", "file holding the document signature")
	fs.Int("repeat", 1, "submit the document this many times concurrently")

	fs.String("base-url", "https://ismp.crpt.ru/api/v3", "registry API base URL")
	fs.String("format", "MANUAL", "document format: MANUAL, CSV or XML")
	fs.Duration("timeout", 30*time.Second, "HTTP timeout per request")
	fs.Int("rate-limit", 10, "maximum submissions per rate unit")
	fs.Duration("rate-unit", time.Second, "rate window length")
	fs.Int("max-inflight", 0, "maximum concurrent POSTs (0 = unlimited)")
	fs.Duration("acquire-timeout", 0, "wait for an in-flight slot at most this long")

	fs.String("governor-redis-addr", "", "share the rate window through this Redis")
	fs.String("governor-key", "crpt:governor", "Redis key of the shared rate window")

	fs.String("stats-redis-addr", "", "record submission stats in this Redis")
	fs.String("stats-redis-password", "", "password of the stats Redis")
	fs.Int("stats-redis-db", 0, "database of the stats Redis")
	fs.String("stats-prefix", "crpt:stats", "key prefix for submission stats")
	fs.Duration("stats-ttl", 24*time.Hour, "TTL of per-minute stats buckets")

	fs.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
}

// newViper liga flags e variáveis de ambiente (CRPT_RATE_LIMIT, CRPT_BASE_URL, ...).
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

func readConfig(v *viper.Viper) (config, error) {
	cfg := config{
		documentPath:  v.GetString("document"),
		signature:     v.GetString("signature"),
		signaturePath: v.GetString("signature-file"),
		repeat:        v.GetInt("repeat"),

		baseURL:        strings.TrimSpace(v.GetString("base-url")),
		format:         v.GetString("format"),
		timeout:        v.GetDuration("timeout"),
		rateLimit:      v.GetInt("rate-limit"),
		rateUnit:       v.GetDuration("rate-unit"),
		maxInFlight:    v.GetInt("max-inflight"),
		acquireTimeout: v.GetDuration("acquire-timeout"),

		governorRedisAddr: strings.TrimSpace(v.GetString("governor-redis-addr")),
		governorKey:       v.GetString("governor-key"),

		statsRedisAddr:     strings.TrimSpace(v.GetString("stats-redis-addr")),
		statsRedisPassword: v.GetString("stats-redis-password"),
		statsRedisDB:       v.GetInt("stats-redis-db"),
		statsPrefix:        v.GetString("stats-prefix"),
		statsTTL:           v.GetDuration("stats-ttl"),

		metricsAddr: strings.TrimSpace(v.GetString("metrics-addr")),
		logLevel:    v.GetString("log-level"),
	}

	if cfg.documentPath == "" {
		return config{}, errors.New("--document (CRPT_DOCUMENT) is required")
	}
	if cfg.signature == "" && cfg.signaturePath == "" {
		return config{}, errors.New("one of --signature or --signature-file is required")
	}
	if cfg.signature != "" && cfg.signaturePath != "" {
		return config{}, errors.New("--signature and --signature-file are mutually exclusive")
	}
	if cfg.baseURL == "" {
		return config{}, errors.New("--base-url must not be empty")
	}
	if cfg.rateLimit <= 0 {
		return config{}, errors.New("--rate-limit must be > 0")
	}
	if cfg.rateUnit <= 0 {
		return config{}, errors.New("--rate-unit must be > 0")
	}
	if cfg.repeat <= 0 {
		return config{}, errors.New("--repeat must be > 0")
	}
	if cfg.maxInFlight < 0 {
		return config{}, errors.New("--max-inflight must be >= 0")
	}
	return cfg, nil
}
