package domain

import "errors"

var (
	// ErrInvalidConfiguration indica argumentos inválidos na construção
	// (janela ou capacidade <= 0). É o único erro fatal do pacote.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrSerialization indica que o documento ou o envelope não pôde ser serializado.
	ErrSerialization = errors.New("serialization failed")

	// ErrTransport indica falha de I/O ou resposta não-2xx do registro.
	ErrTransport = errors.New("transport failed")
)
