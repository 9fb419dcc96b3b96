package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/citeline/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/citeline/internal/chunker"
	"github.com/custodia-labs/citeline/internal/core/domain"
	"github.com/custodia-labs/citeline/internal/core/ports/driven"
	"github.com/custodia-labs/citeline/internal/core/services"
	"github.com/custodia-labs/citeline/internal/retrieval"
)

type stubEmbedder struct {
	fail bool
}

func (s *stubEmbedder) vec(text string) []float32 {
	v := make([]float32, 2)
	t := strings.ToLower(text)
	if strings.Contains(t, "fastapi") {
		v[0] = 1
	}
	if strings.Contains(t, "streamlit") {
		v[1] = 1
	}
	return v
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, domain.ErrEmbeddingProvider
	}
	return s.vec(text), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if s.fail {
		return nil, domain.ErrEmbeddingProvider
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.vec(t)
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int                { return 2 }
func (s *stubEmbedder) ModelName() string              { return "stub-embed" }
func (s *stubEmbedder) Ping(ctx context.Context) error { return nil }
func (s *stubEmbedder) Close() error                   { return nil }

type stubLLM struct {
	answer string
	err    error
}

func (s *stubLLM) Generate(ctx context.Context, system, question, contextBlock string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func (s *stubLLM) ModelName() string              { return "stub-llm" }
func (s *stubLLM) Ping(ctx context.Context) error { return nil }
func (s *stubLLM) Close() error                   { return nil }

type stubCatalog struct {
	rows []driven.IngestionRecord
}

func (s *stubCatalog) RecordIngestion(ctx context.Context, sourceID string, chunksAdded int) error {
	s.rows = append(s.rows, driven.IngestionRecord{
		SourceID:    sourceID,
		ChunksAdded: chunksAdded,
		IngestedAt:  time.Now().UTC(),
	})
	return nil
}

func (s *stubCatalog) ListSources(ctx context.Context) ([]driven.IngestionRecord, error) {
	out := make([]driven.IngestionRecord, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *stubCatalog) Close() error { return nil }

type serverDeps struct {
	embedder *stubEmbedder
	llm      *stubLLM
	catalog  *stubCatalog
	store    *memory.Store
}

func newTestServer(t *testing.T, minContextChars int) (*Server, *serverDeps) {
	t.Helper()

	deps := &serverDeps{
		embedder: &stubEmbedder{},
		llm:      &stubLLM{answer: "FastAPI is a web framework."},
		catalog:  &stubCatalog{},
		store:    memory.New(),
	}

	ch, err := chunker.New()
	require.NoError(t, err)

	ingestor := services.NewIngestService(ch, deps.embedder, deps.store, deps.catalog)
	asker := services.NewAskService(deps.embedder, deps.store, deps.llm, retrieval.NewGuardrail(minContextChars), 0)

	return New(ingestor, asker, deps.store, deps.catalog), deps
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, 1)

	w := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Chunks)
}

func TestIngestAndAsk(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/ingest", map[string]any{
		"source_id": "demo",
		"text":      "FastAPI is a web framework.",
		"metadata":  map[string]any{"lang": "en"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var ingestResp struct {
		SourceID    string `json:"source_id"`
		ChunksAdded int    `json:"chunks_added"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ingestResp))
	assert.Equal(t, "demo", ingestResp.SourceID)
	assert.Equal(t, 1, ingestResp.ChunksAdded)

	w = doJSON(t, h, http.MethodPost, "/ask", map[string]any{
		"question": "What is FastAPI?",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var askResp domain.Answer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &askResp))
	assert.Equal(t, "FastAPI is a web framework.", askResp.Answer)
	assert.True(t, askResp.UsedContext)
	assert.Equal(t, domain.RefusalNone, askResp.RefusalReason)
	require.Len(t, askResp.Citations, 1)
	assert.Equal(t, "demo::chunk_1", askResp.Citations[0].ChunkID)
}

func TestIngestValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodPost, "/ingest", map[string]any{
		"source_id": "",
		"text":      "something",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestProviderFailureIsBadGateway(t *testing.T) {
	srv, deps := newTestServer(t, 1)
	deps.embedder.fail = true

	w := doJSON(t, srv.Handler(), http.MethodPost, "/ingest", map[string]any{
		"source_id": "demo",
		"text":      "FastAPI is a web framework.",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 0, deps.store.Len())
}

func TestAskInsufficientContextIsOK(t *testing.T) {
	// Default guardrail: an empty store can never produce enough context.
	srv, _ := newTestServer(t, 0)

	w := doJSON(t, srv.Handler(), http.MethodPost, "/ask", map[string]any{
		"question": "What is FastAPI?",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.Answer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(domain.RefusalInsufficientContext), string(resp.RefusalReason))
	assert.False(t, resp.UsedContext)
	assert.NotNil(t, resp.Citations)
}

func TestAskGenerationFailureIsBadGateway(t *testing.T) {
	srv, deps := newTestServer(t, 1)
	deps.llm.err = domain.ErrGeneration

	w := doJSON(t, srv.Handler(), http.MethodPost, "/ingest", map[string]any{
		"source_id": "demo",
		"text":      "FastAPI is a web framework.",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv.Handler(), http.MethodPost, "/ask", map[string]any{
		"question": "What is FastAPI?",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAskQuestionTooLong(t *testing.T) {
	srv, _ := newTestServer(t, 1)

	w := doJSON(t, srv.Handler(), http.MethodPost, "/ask", map[string]any{
		"question": strings.Repeat("?", 5_001),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSources(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/sources", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = doJSON(t, h, http.MethodPost, "/ingest", map[string]any{
		"source_id": "demo",
		"text":      "FastAPI is a web framework.",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, "/sources", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rows []sourceEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "demo", rows[0].SourceID)
	assert.Equal(t, 1, rows[0].ChunksAdded)
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := newTestServer(t, 1)
	h := srv.Handler()

	w := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "client-chosen-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-chosen-id", rec.Header().Get(RequestIDHeader))
}
