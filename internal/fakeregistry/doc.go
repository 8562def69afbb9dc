// Package fakeregistry é um substituto HTTP do registro para testes e execução local.
//
// Ele aceita POST em /api/v3/lk/documents/create, valida o envelope e devolve
// {"value": "<uuid>"}. QuotaMiddleware simula a cota do servidor (token bucket
// de golang.org/x/time/rate) respondendo 429 + Retry-After.
package fakeregistry
