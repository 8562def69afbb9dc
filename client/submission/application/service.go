package application

import (
	"time"

	"crpt-client/client/submission/domain"
)

// Service concentra a regra de admissão de envios.
//
// Ele não sabe nada sobre HTTP, apenas consulta o limiter e retorna uma decisão.
type Service struct {
	Limiter    domain.Limiter
	RetryAfter time.Duration
}

func (s Service) Decide() domain.Decision {
	if s.Limiter == nil {
		return domain.Decision{Allowed: true}
	}
	if s.Limiter.TryAcquire() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: s.retryAfter()}
}

func (s Service) retryAfter() time.Duration {
	if wi, ok := s.Limiter.(domain.WindowInfo); ok {
		if d := wi.ResetIn(); d > 0 {
			return d
		}
	}
	if s.RetryAfter <= 0 {
		return 1 * time.Second
	}
	return s.RetryAfter
}
