package application

import (
	"context"
	"time"

	"crpt-client/client/submission/domain"
)

// ConcurrencyService limita quantos POSTs ao registro ficam em voo ao mesmo tempo,
// sem saber nada sobre HTTP.
//
// A vaga é pedida depois da admissão pela janela e dura até a resposta do registro.
// Ela limita conexões abertas contra o registro, não a taxa: uma submissão admitida
// que não consegue vaga termina como OutcomeBusy e a admissão consumida não volta.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta adquirir uma vaga.
//   - Sem Pool, sempre permite.
//   - Se `AcquireTimeout <= 0`, espera até o ctx cancelar.
//   - Se `AcquireTimeout > 0`, espera até o timeout.
//
// Retorna (release, ok). Se ok=false, nenhuma vaga foi adquirida.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}

	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}
