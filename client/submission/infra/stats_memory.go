package infra

import (
	"context"
	"sync"

	"crpt-client/client/submission/domain"
)

// MemoryStatsStore conta envios por resultado e por tipo de documento.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu        sync.Mutex
	byOutcome map[domain.Outcome]int64
	byDocType map[string]map[domain.Outcome]int64
}

func NewMemoryStatsStore() *MemoryStatsStore {
	return &MemoryStatsStore{
		byOutcome: make(map[domain.Outcome]int64),
		byDocType: make(map[string]map[domain.Outcome]int64),
	}
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOutcome[ev.Outcome]++

	if ev.DocType == "" {
		return nil
	}
	m, ok := s.byDocType[ev.DocType]
	if !ok {
		m = make(map[domain.Outcome]int64)
		s.byDocType[ev.DocType] = m
	}
	m[ev.Outcome]++
	return nil
}

func (s *MemoryStatsStore) Count(o domain.Outcome) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byOutcome[o]
}

func (s *MemoryStatsStore) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, v := range s.byOutcome {
		n += v
	}
	return n
}

func (s *MemoryStatsStore) ByDocType() map[string]map[domain.Outcome]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]map[domain.Outcome]int64, len(s.byDocType))
	for k, v := range s.byDocType {
		cp := make(map[domain.Outcome]int64, len(v))
		for o, n := range v {
			cp[o] = n
		}
		out[k] = cp
	}
	return out
}
