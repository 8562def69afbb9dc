package domain

import (
	"context"
	"time"
)

// Outcome classifica o destino de um envio.
type Outcome string

const (
	OutcomeSubmitted           Outcome = "submitted"
	OutcomeRateLimited         Outcome = "rate_limited"
	OutcomeBusy                Outcome = "busy"
	OutcomeSerializationFailed Outcome = "serialization_failed"
	OutcomeTransportFailed     Outcome = "transport_failed"
)

// Outcomes lista todos os valores conhecidos, na ordem em que são reportados.
var Outcomes = []Outcome{
	OutcomeSubmitted,
	OutcomeRateLimited,
	OutcomeBusy,
	OutcomeSerializationFailed,
	OutcomeTransportFailed,
}

// StatsEvent representa o resultado de um envio.
//
// Observação: cuidado com cardinalidade; DocType e Format vêm de enums pequenos,
// nunca de identificadores de documento.
type StatsEvent struct {
	Outcome Outcome
	DocType string
	Format  string

	At time.Time
}

// StatsStore é a estratégia de persistência para estatísticas de envio.
//
// O cliente trata erro como best-effort (não derruba o envio).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
