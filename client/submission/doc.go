// Package submission envia documentos ao registro (CRPT) respeitando um teto de
// chamadas por unidade de tempo.
//
// Visão geral (camadas):
//
//   - domain: contratos e tipos do domínio (sem dependência de net/http)
//   - application: casos de uso (decisão allow/deny, vagas em voo com timeout)
//   - infra: implementações concretas (janela fixa, Redis, JSON, HTTP)
//   - submission (este pacote): Client, modelo do documento, envelope e métricas
//
// Fluxo de Client.Submit:
//
//  1. Serializa o documento e codifica em base64
//  2. Monta e serializa o envelope {document_format, product_document, type, signature}
//  3. Pergunta ao governor se a chamada pode sair; se não, retorna Result vazio (rate_limited)
//  4. Se permitido, faz um único POST; falha de transporte vira Result vazio (transport_failed)
//
// Nenhum caminho de Submit retorna erro ao chamador; Result.Outcome diz o que aconteceu.
package submission
