package fakeregistry

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelopeBody(t *testing.T, format, product string) string {
	t.Helper()
	b, err := json.Marshal(envelope{
		DocumentFormat:  format,
		ProductDocument: product,
		Type:            "LP_INTRODUCE_GOODS",
		Signature:       "sig",
	})
	require.NoError(t, err)
	return string(b)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "http://registry"+CreatePath, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandler_AcceptsValidEnvelope(t *testing.T) {
	h := NewHandler(nil)
	product := base64.StdEncoding.EncodeToString([]byte(`{"doc_id":"1"}`))

	w := post(h.Routes(), envelopeBody(t, "MANUAL", product))
	require.Equal(t, http.StatusOK, w.Code)

	var resp createResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.Value)
	require.NoError(t, err)
	require.Equal(t, int64(1), h.Accepted())
}

func TestHandler_RejectsBadEnvelopes(t *testing.T) {
	h := NewHandler(nil)
	good := base64.StdEncoding.EncodeToString([]byte(`{"doc_id":"1"}`))

	cases := map[string]string{
		"not json":        "{",
		"bad format":      envelopeBody(t, "PDF", good),
		"bad base64":      envelopeBody(t, "MANUAL", "%%%"),
		"base64 not json": envelopeBody(t, "MANUAL", base64.StdEncoding.EncodeToString([]byte("plain"))),
	}
	for name, body := range cases {
		w := post(h.Routes(), body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
	require.Equal(t, int64(0), h.Accepted())
}

func TestHandler_OnlyPost(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://registry"+CreatePath, nil)
	w := httptest.NewRecorder()
	NewHandler(nil).Routes().ServeHTTP(w, r)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestQuotaMiddleware_AllowsThenRejects(t *testing.T) {
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	h := QuotaMiddleware(QuotaOptions{RPS: 0.02, Burst: 1, RetryAfter: 2500 * time.Millisecond})(next)

	w1 := post(h, "{}")
	require.Equal(t, http.StatusOK, w1.Code)

	w2 := post(h, "{}")
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	// 2.5s arredonda para cima
	require.Equal(t, "3", w2.Header().Get("Retry-After"))
	require.Equal(t, 1, calls)
}

func TestQuotaMiddleware_DisabledPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := QuotaMiddleware(QuotaOptions{})(next)
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusNoContent, post(h, "{}").Code)
	}
}

func TestRetryAfterSeconds_RoundsUp(t *testing.T) {
	cases := map[time.Duration]string{
		500 * time.Millisecond:  "1",
		time.Second:             "1",
		1001 * time.Millisecond: "2",
		2500 * time.Millisecond: "3",
		-time.Second:            "1",
	}
	for d, want := range cases {
		assert.Equal(t, want, retryAfterSeconds(d), d.String())
	}
}
