package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, dimension int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"models": []map[string]string{{"name": "nomic-embed-text"}}})
	})
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		embeddings := make([][]float32, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dimension)
			for j := range vec {
				vec[j] = float32(i + j)
			}
			embeddings[i] = vec
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: embeddings})
	})
	return httptest.NewServer(mux)
}

func TestHTTPProvider_HealthCheckSucceeds(t *testing.T) {
	srv := newTestServer(t, 4)
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{Name: "ollama", BaseURL: srv.URL, Model: "nomic-embed-text"})
	assert.NoError(t, p.HealthCheck(context.Background()))
}

func TestHTTPProvider_EmbedBatchReturnsOrderedVectors(t *testing.T) {
	srv := newTestServer(t, 3)
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{Name: "ollama", BaseURL: srv.URL, Model: "nomic-embed-text"})
	vecs, err := p.EmbedBatch(context.Background(), []string{"a", "b"}, Options{})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0, 1, 2}, vecs[0])
	assert.Equal(t, []float32{1, 2, 3}, vecs[1])
}

func TestHTTPProvider_ProbeDimensionUsesPinnedValueWhenSet(t *testing.T) {
	p := NewHTTPProvider(HTTPConfig{Name: "ollama", BaseURL: "http://unused.invalid", Dimension: 768})
	dim, err := p.ProbeDimension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 768, dim)
}

func TestHTTPProvider_ProbeDimensionFetchesWhenUnset(t *testing.T) {
	srv := newTestServer(t, 5)
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{Name: "ollama", BaseURL: srv.URL, Model: "nomic-embed-text"})
	dim, err := p.ProbeDimension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, dim)
}

func TestHTTPProvider_EmbedSinglePrependsPrefixOnlyWhenSupported(t *testing.T) {
	var gotInput []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotInput = req.Input
		_ = json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{BaseURL: srv.URL, SupportsPrefixes: true})
	_, err := p.EmbedSingle(context.Background(), "hello", "query: ")
	require.NoError(t, err)
	assert.Equal(t, []string{"query: hello"}, gotInput)
}
