package domain

import "context"

type ContentType string

const ContentTypeJSON ContentType = "application/json"

// Serializer converte um objeto em sua forma canônica (JSON).
// Falhas devem envolver ErrSerialization.
type Serializer interface {
	Serialize(v any) ([]byte, error)
}

// Transport executa o POST HTTP. Falhas de I/O e status não-2xx devem envolver ErrTransport.
// O timeout da chamada pertence ao transporte (e ao ctx).
type Transport interface {
	Post(ctx context.Context, url string, body []byte, contentType ContentType) ([]byte, error)
}
