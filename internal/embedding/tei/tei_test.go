package tei

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subvec/internal/embedding"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, BatchSize: 2})
	require.NoError(t, err)
	return c
}

func vectorsFor(inputs []string) [][]float64 {
	out := make([][]float64, len(inputs))
	for i := range inputs {
		out[i] = []float64{float64(i), 0.5, -0.5}
	}
	return out
}

func decodeInputs(t *testing.T, r *http.Request) []string {
	t.Helper()
	var req struct {
		Inputs []string `json:"inputs"`
	}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req.Inputs
}

func TestEmbedBatchBareShape(t *testing.T) {
	var batches [][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		inputs := decodeInputs(t, r)
		batches = append(batches, inputs)
		json.NewEncoder(w).Encode(vectorsFor(inputs))
	})

	vectors, err := c.EmbedBatch([]string{"a", "b", "c"}, embedding.KindRaw)
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	// batch size 2 splits into 2+1
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, batches)
	assert.Equal(t, 3, c.Dimension())
}

func TestEmbedBatchQueryPrefix(t *testing.T) {
	var got []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeInputs(t, r)
		json.NewEncoder(w).Encode(vectorsFor(got))
	})

	_, err := c.EmbedBatch([]string{"hello"}, embedding.KindQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{"query: hello"}, got)
}

func TestDimensionDiscoveryConcurrent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(vectorsFor(decodeInputs(t, r)))
	})
	require.Equal(t, 0, c.Dimension())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.EmbedBatch([]string{"a"}, embedding.KindRaw)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 3, c.Dimension())
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called for empty input")
	})
	vectors, err := c.EmbedBatch(nil, embedding.KindRaw)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedBatchBackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	})
	_, err := c.EmbedBatch([]string{"a"}, embedding.KindRaw)
	assert.ErrorIs(t, err, ErrBackend)
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]float64{{1, 2}})
	})
	_, err := c.EmbedBatch([]string{"a", "b"}, embedding.KindRaw)
	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestParseResponseShapes(t *testing.T) {
	want := [][]float64{{1, 2}, {3, 4}}
	cases := []struct {
		name string
		body string
	}{
		{"bare list", `[[1,2],[3,4]]`},
		{"object list", `[{"embedding":[1,2]},{"embedding":[3,4]}]`},
		{"embeddings field", `{"embeddings":[[1,2],[3,4]]}`},
		{"data bare", `{"data":[[1,2],[3,4]]}`},
		{"data object list", `{"data":[{"embedding":[1,2]},{"embedding":[3,4]}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vectors, err := parseResponse([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, want, vectors)
		})
	}
}

func TestParseResponseSingleVector(t *testing.T) {
	vectors, err := parseResponse([]byte(`{"embedding":[1,2,3]}`))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}}, vectors)
}

func TestParseResponseMalformed(t *testing.T) {
	cases := []string{
		`{"unexpected":"shape"}`,
		`"just a string"`,
		`[{"no_embedding_field":true}]`,
		`{"data":{"nested":"junk"}}`,
		`not json at all`,
	}
	for _, body := range cases {
		_, err := parseResponse([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedResponse, "body: %s", body)
	}
}
