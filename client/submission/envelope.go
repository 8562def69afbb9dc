package submission

import (
	"encoding/base64"
	"fmt"
	"strings"

	"crpt-client/client/submission/domain"
)

type DocumentFormat string

const (
	FormatManual DocumentFormat = "MANUAL"
	FormatCSV    DocumentFormat = "CSV"
	FormatXML    DocumentFormat = "XML"
)

// ParseDocumentFormat aceita o nome do formato sem diferenciar maiúsculas.
func ParseDocumentFormat(s string) (DocumentFormat, error) {
	switch f := DocumentFormat(strings.ToUpper(strings.TrimSpace(s))); f {
	case FormatManual, FormatCSV, FormatXML:
		return f, nil
	case "":
		return FormatManual, nil
	default:
		return "", fmt.Errorf("%w: unknown document format %q", domain.ErrInvalidConfiguration, s)
	}
}

type DocumentType string

const TypeIntroduceGoods DocumentType = "LP_INTRODUCE_GOODS"

// Envelope é o objeto enviado ao registro: o documento serializado vai em
// base64 dentro de product_document.
type Envelope struct {
	DocumentFormat  DocumentFormat `json:"document_format"`
	ProductDocument string         `json:"product_document"`
	Type            DocumentType   `json:"type"`
	Signature       string         `json:"signature"`
}

// BuildEnvelope serializa o documento, codifica em base64 e devolve o envelope já serializado.
func BuildEnvelope(s domain.Serializer, format DocumentFormat, doc any, signature string) (Envelope, []byte, error) {
	raw, err := s.Serialize(doc)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("document: %w", err)
	}

	env := Envelope{
		DocumentFormat:  format,
		ProductDocument: base64.StdEncoding.EncodeToString(raw),
		Type:            TypeIntroduceGoods,
		Signature:       signature,
	}
	body, err := s.Serialize(env)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("envelope: %w", err)
	}
	return env, body, nil
}

// DecodeProductDocument desfaz o base64 de product_document.
func (e Envelope) DecodeProductDocument() ([]byte, error) {
	return base64.StdEncoding.DecodeString(e.ProductDocument)
}
