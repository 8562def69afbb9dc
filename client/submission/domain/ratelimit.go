package domain

// Camada de domínio do limite de taxa.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"fmt"
	"time"
)

// Window é a configuração imutável de uma janela fixa:
// no máximo Capacity admissões a cada Duration.
type Window struct {
	Duration time.Duration
	Capacity int
}

// NewWindow valida e cria uma Window. Falha cedo (na construção), nunca na chamada.
func NewWindow(unit time.Duration, capacity int) (Window, error) {
	w := Window{Duration: unit, Capacity: capacity}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func (w Window) Validate() error {
	if w.Duration <= 0 {
		return fmt.Errorf("%w: window duration must be > 0, got %s", ErrInvalidConfiguration, w.Duration)
	}
	if w.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be > 0, got %d", ErrInvalidConfiguration, w.Capacity)
	}
	return nil
}

// Limiter decide se uma chamada pode sair agora.
//
// TryAcquire nunca bloqueia: negar é síncrono e imediato, sem fila.
type Limiter interface {
	TryAcquire() bool
}

// WindowInfo é implementado por limiters que sabem quanto falta para a janela fechar.
type WindowInfo interface {
	ResetIn() time.Duration
}

// CapacityInfo é implementado por limiters que sabem quantas admissões restam na janela.
type CapacityInfo interface {
	Remaining() int
}

type Decision struct {
	Allowed bool
	// RetryAfter é o tempo sugerido até a próxima janela quando a chamada foi negada.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}
