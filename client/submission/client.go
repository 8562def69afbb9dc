package submission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"crpt-client/client/submission/application"
	"crpt-client/client/submission/domain"
	"crpt-client/client/submission/infra"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://ismp.crpt.ru/api/v3"
	CreatePath     = "/lk/documents/create"
)

type Options struct {
	// Limiter substitui o Governor em memória (ex: infra.RedisGovernor).
	// A janela passada a New continua sendo validada.
	Limiter    domain.Limiter
	Serializer domain.Serializer
	Transport  domain.Transport
	Stats      domain.StatsStore
	Metrics    *Metrics
	Logger     *zap.Logger

	BaseURL string
	Format  DocumentFormat
	// RetryAfter é usado quando o limiter não sabe quanto falta para a janela fechar.
	RetryAfter time.Duration

	// MaxInFlight limita POSTs simultâneos; 0 desliga.
	MaxInFlight    int
	AcquireTimeout time.Duration

	// DenialLogInterval espaça os logs Info de "limite atingido". Padrão: 10s.
	DenialLogInterval time.Duration
}

// Result é o resultado de um envio. Body é vazio em qualquer caminho diferente de
// OutcomeSubmitted; Outcome diferencia negação, falha e resposta vazia.
type Result struct {
	Body         string
	Outcome      domain.Outcome
	RetryAfter   time.Duration
	SubmissionID string
	// Err guarda a causa de serialization_failed/transport_failed, apenas para inspeção.
	Err error
}

func (r Result) OK() bool { return r.Outcome == domain.OutcomeSubmitted }

// Client envia documentos ao registro respeitando o teto de chamadas por janela.
// É seguro para uso concorrente.
type Client struct {
	url        string
	format     DocumentFormat
	serializer domain.Serializer
	transport  domain.Transport
	stats      domain.StatsStore
	metrics    *Metrics
	log        *zap.Logger

	admission application.Service
	capacity  domain.CapacityInfo
	inflight  application.ConcurrencyService

	denyLog rate.Sometimes
}

// New cria um Client que admite no máximo capacity envios a cada unit.
// unit <= 0 ou capacity <= 0 falham com domain.ErrInvalidConfiguration.
func New(unit time.Duration, capacity int, opts Options) (*Client, error) {
	window, err := domain.NewWindow(unit, capacity)
	if err != nil {
		return nil, err
	}

	limiter := opts.Limiter
	if limiter == nil {
		g, err := infra.NewGovernor(window)
		if err != nil {
			return nil, err
		}
		limiter = g
	}

	format := opts.Format
	if format == "" {
		format = FormatManual
	}
	if _, err := ParseDocumentFormat(string(format)); err != nil {
		return nil, err
	}

	if opts.Serializer == nil {
		opts.Serializer = infra.JSONSerializer{}
	}
	if opts.Transport == nil {
		opts.Transport = infra.NewHTTPTransport()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.DenialLogInterval <= 0 {
		opts.DenialLogInterval = 10 * time.Second
	}
	if opts.MaxInFlight < 0 {
		return nil, fmt.Errorf("%w: max in-flight must be >= 0, got %d", domain.ErrInvalidConfiguration, opts.MaxInFlight)
	}

	c := &Client{
		url:        strings.TrimRight(opts.BaseURL, "/") + CreatePath,
		format:     format,
		serializer: opts.Serializer,
		transport:  opts.Transport,
		stats:      opts.Stats,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		admission:  application.Service{Limiter: limiter, RetryAfter: opts.RetryAfter},
		denyLog:    rate.Sometimes{First: 1, Interval: opts.DenialLogInterval},
	}
	if ci, ok := limiter.(domain.CapacityInfo); ok {
		c.capacity = ci
	}
	if opts.MaxInFlight > 0 {
		c.inflight = application.ConcurrencyService{
			Pool:           infra.NewChanPool(opts.MaxInFlight),
			AcquireTimeout: opts.AcquireTimeout,
		}
	}
	return c, nil
}

// URL é o endpoint de criação de documentos usado por este Client.
func (c *Client) URL() string { return c.url }

// Submit serializa doc, envelopa com a assinatura e faz no máximo um POST.
// Nunca retorna erro: falhas viram Result com Body vazio e o Outcome correspondente.
func (c *Client) Submit(ctx context.Context, doc any, signature string) Result {
	id := uuid.NewString()
	log := c.log.With(zap.String("submission_id", id))

	_, body, err := BuildEnvelope(c.serializer, c.format, doc, signature)
	if err != nil {
		log.Error("failed to serialize submission", zap.Error(err))
		return c.finish(ctx, Result{SubmissionID: id, Outcome: domain.OutcomeSerializationFailed, Err: err})
	}

	dec := c.admission.Decide()
	if !dec.Allowed {
		log.Debug("request limit reached for current window",
			zap.Duration("retry_after", dec.RetryAfter),
			c.remainingField())
		c.denyLog.Do(func() {
			c.log.Info("request limit reached for current window, submissions are being skipped",
				zap.Duration("retry_after", dec.RetryAfter))
		})
		return c.finish(ctx, Result{SubmissionID: id, Outcome: domain.OutcomeRateLimited, RetryAfter: dec.RetryAfter})
	}

	release, ok := c.inflight.Acquire(ctx)
	if !ok {
		log.Warn("no in-flight slot available, submission skipped")
		return c.finish(ctx, Result{SubmissionID: id, Outcome: domain.OutcomeBusy})
	}
	defer release()

	start := time.Now()
	resp, err := c.transport.Post(ctx, c.url, body, domain.ContentTypeJSON)
	c.metrics.observePost(time.Since(start))
	if err != nil {
		log.Error("registry request failed", zap.String("url", c.url), zap.Error(err))
		return c.finish(ctx, Result{SubmissionID: id, Outcome: domain.OutcomeTransportFailed, Err: err})
	}

	log.Debug("document submitted", zap.Int("response_bytes", len(resp)), c.remainingField())
	return c.finish(ctx, Result{SubmissionID: id, Outcome: domain.OutcomeSubmitted, Body: string(resp)})
}

// remainingField anexa ao log as admissões restantes na janela, quando o limiter expõe.
func (c *Client) remainingField() zap.Field {
	if c.capacity == nil {
		return zap.Skip()
	}
	return zap.Int("window_remaining", c.capacity.Remaining())
}

func (c *Client) finish(ctx context.Context, res Result) Result {
	c.metrics.observe(res.Outcome)
	if c.stats != nil {
		ev := domain.StatsEvent{
			Outcome: res.Outcome,
			DocType: string(TypeIntroduceGoods),
			Format:  string(c.format),
			At:      time.Now(),
		}
		if err := c.stats.Record(ctx, ev); err != nil {
			c.log.Warn("failed to record submission stats",
				zap.String("submission_id", res.SubmissionID),
				zap.Error(err))
		}
	}
	return res
}
