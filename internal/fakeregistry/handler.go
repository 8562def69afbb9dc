package fakeregistry

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CreatePath = "/api/v3/lk/documents/create"

const maxBodyBytes = 8 << 20

type envelope struct {
	DocumentFormat  string `json:"document_format"`
	ProductDocument string `json:"product_document"`
	Type            string `json:"type"`
	Signature       string `json:"signature"`
}

type createResponse struct {
	Value string `json:"value"`
}

type errorResponse struct {
	ErrorMessage string `json:"error_message"`
}

// Handler guarda quantos documentos foram aceitos; seguro para uso concorrente.
type Handler struct {
	log      *zap.Logger
	accepted atomic.Int64
}

func NewHandler(log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{log: log}
}

func (h *Handler) Accepted() int64 { return h.accepted.Load() }

// Routes devolve o mux com o endpoint de criação.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+CreatePath, h.create)
	return mux
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorMessage: "unreadable body"})
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorMessage: "invalid envelope"})
		return
	}
	if msg := validate(env); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorMessage: msg})
		return
	}

	id := uuid.NewString()
	h.accepted.Add(1)
	h.log.Info("document accepted",
		zap.String("id", id),
		zap.String("format", env.DocumentFormat),
		zap.String("type", env.Type))
	writeJSON(w, http.StatusOK, createResponse{Value: id})
}

func validate(env envelope) string {
	switch env.DocumentFormat {
	case "MANUAL", "CSV", "XML":
	default:
		return "unknown document_format"
	}
	if env.Type == "" {
		return "type is required"
	}
	if env.Signature == "" {
		return "signature is required"
	}
	raw, err := base64.StdEncoding.DecodeString(env.ProductDocument)
	if err != nil || len(raw) == 0 {
		return "product_document must be base64"
	}
	if !json.Valid(raw) {
		return "product_document must encode JSON"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
