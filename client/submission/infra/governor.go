package infra

import (
	"sync/atomic"
	"time"

	"crpt-client/client/submission/domain"
)

// Governor é um contador de janela fixa em memória, seguro para qualquer número
// de goroutines.
//
// A janela fecha de forma preguiçosa: a primeira chamada depois de `end` instala
// uma janela nova via CompareAndSwap. Não há timer nem goroutine por janela.
//
// Janela fixa admite rajadas de até ~2×Capacity perto da virada.
type Governor struct {
	window  domain.Window
	now     func() time.Time
	current atomic.Pointer[governorWindow]
}

type governorWindow struct {
	end       int64 // unix nano
	remaining atomic.Int64
}

type GovernorOption func(*Governor)

// WithClock troca o relógio (útil em testes).
func WithClock(now func() time.Time) GovernorOption {
	return func(g *Governor) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGovernor(window domain.Window, opts ...GovernorOption) (*Governor, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	g := &Governor{window: window, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// TryAcquire implementa domain.Limiter.
//
// Toda chamada decrementa o contador da janela observada, inclusive as negadas;
// a capacidade só volta na próxima janela.
func (g *Governor) TryAcquire() bool {
	now := g.now().UnixNano()
	for {
		w := g.current.Load()
		if w == nil || now >= w.end {
			next := &governorWindow{end: now + int64(g.window.Duration)}
			next.remaining.Store(int64(g.window.Capacity))
			if !g.current.CompareAndSwap(w, next) {
				// outra goroutine abriu a janela; usa a dela
				continue
			}
			w = next
		}
		return w.remaining.Add(-1) >= 0
	}
}

// Remaining implementa domain.CapacityInfo: quantas admissões ainda cabem na janela atual.
// Sem janela aberta, a capacidade inteira está disponível.
func (g *Governor) Remaining() int {
	w := g.current.Load()
	if w == nil || g.now().UnixNano() >= w.end {
		return g.window.Capacity
	}
	if r := w.remaining.Load(); r > 0 {
		return int(r)
	}
	return 0
}

// ResetIn implementa domain.WindowInfo.
func (g *Governor) ResetIn() time.Duration {
	w := g.current.Load()
	if w == nil {
		return 0
	}
	if d := time.Duration(w.end - g.now().UnixNano()); d > 0 {
		return d
	}
	return 0
}
