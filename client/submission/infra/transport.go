package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"crpt-client/client/submission/domain"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxResponseBytes limita o corpo lido do registro.
const maxResponseBytes = 4 << 20

// HTTPTransport implementa domain.Transport sobre net/http, instrumentado com otelhttp.
//
// Status fora de 2xx vira erro (ErrTransport), como uma falha de I/O.
type HTTPTransport struct {
	client *http.Client
}

type transportConfig struct {
	client     *http.Client
	timeout    time.Duration
	hasTimeout bool
}

// HTTPTransportOption configura o transporte. A ordem das opções não importa:
// o timeout é aplicado depois, sobre uma cópia do client escolhido.
type HTTPTransportOption func(*transportConfig)

// WithHTTPClient substitui o client. O client do chamador não é alterado; o
// RoundTripper dele é envolvido por otelhttp.
func WithHTTPClient(c *http.Client) HTTPTransportOption {
	return func(cfg *transportConfig) {
		if c != nil {
			cfg.client = c
		}
	}
}

func WithTimeout(d time.Duration) HTTPTransportOption {
	return func(cfg *transportConfig) {
		cfg.timeout = d
		cfg.hasTimeout = true
	}
}

func NewHTTPTransport(opts ...HTTPTransportOption) *HTTPTransport {
	var cfg transportConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	client := http.Client{Timeout: 30 * time.Second}
	if cfg.client != nil {
		client = *cfg.client
	}
	if cfg.hasTimeout {
		client.Timeout = cfg.timeout
	}

	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	client.Transport = otelhttp.NewTransport(base)
	return &HTTPTransport{client: &client}
}

func (t *HTTPTransport) Post(ctx context.Context, url string, body []byte, contentType domain.ContentType) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Content-Type", string(contentType))
	req.Header.Set("Accept", string(domain.ContentTypeJSON))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// StatusError é devolvido quando o registro responde fora de 2xx.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: registry responded %d %s", domain.ErrTransport, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error { return domain.ErrTransport }
