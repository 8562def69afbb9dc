// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - Governor: janela fixa em memória (atomics, sem timers)
//   - RedisGovernor: a mesma janela fixa compartilhada entre processos via Redis
//   - JSONSerializer / HTTPTransport: colaboradores de serialização e POST
//   - ChanPool: semáforo simples para limitar POSTs simultâneos
//   - MemoryStatsStore / RedisStatsStore: estatísticas de envio
package infra
