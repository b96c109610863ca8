package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/ericlunden/foodlab-core/internal/application/analysis"
	appcache "github.com/ericlunden/foodlab-core/internal/application/cache"
	domain "github.com/ericlunden/foodlab-core/internal/domain/analysis"
	domcache "github.com/ericlunden/foodlab-core/internal/domain/cache"
	"github.com/ericlunden/foodlab-core/internal/logging"
)

type memBackend struct {
	mu    sync.Mutex
	blobs [][]byte
}

func (m *memBackend) ReadAll(ctx context.Context) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.blobs))
	copy(out, m.blobs)
	return out, nil
}

func (m *memBackend) WriteAll(ctx context.Context, blobs [][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs = make([][]byte, len(blobs))
	copy(m.blobs, blobs)
	return nil
}

// stubAnalyzer counts calls and returns a canned analysis or error.
type stubAnalyzer struct {
	calls atomic.Int32
	err   error
}

func (s *stubAnalyzer) analysisFor(name string) (domain.RawAnalysis, error) {
	s.calls.Add(1)
	if s.err != nil {
		return domain.RawAnalysis{}, s.err
	}
	return domain.RawAnalysis{
		FoodName:     name,
		OverallScore: 85,
		SubScores: map[domain.Category]domain.Score{
			domain.CategoryHeartHealth: 99,
		},
		Completeness: domain.CompletenessComplete,
		Source:       domain.SourcePrimary,
		Timestamp:    time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (s *stubAnalyzer) AnalyzeText(ctx context.Context, foodName string) (domain.RawAnalysis, error) {
	return s.analysisFor(foodName)
}

func (s *stubAnalyzer) AnalyzeImage(ctx context.Context, image []byte) (domain.RawAnalysis, error) {
	return s.analysisFor("photographed food")
}

func newTestServer(t *testing.T, analyzer Analyzer) *httptest.Server {
	t.Helper()
	store := appcache.New(&memBackend{}, nil, appcache.DefaultTTL, logging.Nop())
	svc := &appanalysis.Service{Cache: store, Logger: logging.Nop()}
	srv := httptest.NewServer(NewRouter(svc, analyzer, nil))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestResolveTextEndpoint(t *testing.T) {
	analyzer := &stubAnalyzer{}
	srv := newTestServer(t, analyzer)

	body := `{"food_name": "grilled salmon", "scan_type": "food", "input_method": "text"}`
	resp := postJSON(t, srv.URL+"/v1/analyses/resolve", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got domain.NormalizedAnalysis
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, domain.Score(85), got.OverallScore)
	assert.Equal(t, domain.Score(99), got.SubScores[domain.CategoryHeartHealth])

	// second resolve for the same food is a cache hit
	resp2 := postJSON(t, srv.URL+"/v1/analyses/resolve", body)
	resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, int32(1), analyzer.calls.Load())
}

func TestResolveValidation(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{})

	cases := []struct {
		name string
		body string
	}{
		{"missing input", `{"input_method": "text"}`},
		{"bad input method", `{"food_name": "apple", "input_method": "telepathy"}`},
		{"bad scan type", `{"food_name": "apple", "input_method": "text", "scan_type": "weapon"}`},
		{"bad base64", `{"image_base64": "!!!", "input_method": "camera"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/v1/analyses/resolve", tc.body)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestResolveProviderErrors(t *testing.T) {
	quota := &stubAnalyzer{err: &domain.ProviderError{Op: "chat completion", Err: domain.ErrQuotaExceeded}}
	srv := newTestServer(t, quota)
	resp := postJSON(t, srv.URL+"/v1/analyses/resolve", `{"food_name": "apple", "input_method": "text"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	down := &stubAnalyzer{err: &domain.ProviderError{Op: "chat completion", Err: context.DeadlineExceeded}}
	srv2 := newTestServer(t, down)
	resp2 := postJSON(t, srv2.URL+"/v1/analyses/resolve", `{"food_name": "apple", "input_method": "text"}`)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp2.StatusCode)
}

func TestLookupAndDelete(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{})

	// seed via resolve
	resp := postJSON(t, srv.URL+"/v1/analyses/resolve", `{"food_name": "grilled salmon", "input_method": "text"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	key := domcache.TextIdentity{FoodName: "grilled salmon", InputMethod: "text"}.CacheKey()

	resp, err := http.Get(srv.URL + "/v1/analyses/" + key)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entry domcache.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	assert.Equal(t, key, entry.Key)
	assert.Equal(t, "grilled salmon", entry.FoodName)

	// delete then 404
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/analyses/"+key, nil)
	require.NoError(t, err)
	dresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	dresp.Body.Close()
	assert.Equal(t, http.StatusNoContent, dresp.StatusCode)

	gresp, err := http.Get(srv.URL + "/v1/analyses/" + key)
	require.NoError(t, err)
	gresp.Body.Close()
	assert.Equal(t, http.StatusNotFound, gresp.StatusCode)
}

func TestLookupRejectsBadKey(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{})
	resp, err := http.Get(srv.URL + "/v1/analyses/not-a-key")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{})

	for _, name := range []string{"apple pie", "banana bread"} {
		resp := postJSON(t, srv.URL+"/v1/analyses/resolve",
			`{"food_name": "`+name+`", "input_method": "text"}`)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/v1/analyses?sort=name")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []domcache.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "apple pie", entries[0].FoodName)

	bad, err := http.Get(srv.URL + "/v1/analyses?sort=sideways")
	require.NoError(t, err)
	bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestSetFavoriteEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{})

	resp := postJSON(t, srv.URL+"/v1/analyses/resolve", `{"food_name": "kale salad", "input_method": "text"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	key := domcache.TextIdentity{FoodName: "kale salad", InputMethod: "text"}.CacheKey()
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/analyses/"+key+"/favorite",
		bytes.NewReader([]byte(`{"favorite": true}`)))
	require.NoError(t, err)
	fresp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	fresp.Body.Close()
	require.Equal(t, http.StatusNoContent, fresp.StatusCode)

	gresp, err := http.Get(srv.URL + "/v1/analyses/" + key)
	require.NoError(t, err)
	defer gresp.Body.Close()
	var entry domcache.Entry
	require.NoError(t, json.NewDecoder(gresp.Body).Decode(&entry))
	assert.True(t, entry.Favorite)
}

func TestComputeKeyEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubAnalyzer{})

	resp := postJSON(t, srv.URL+"/v1/keys", `{"food_name": "apple", "input_method": "text"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	want := domcache.TextIdentity{FoodName: "apple", InputMethod: "text"}.CacheKey()
	assert.Equal(t, want, got["key"])
}

func TestResolveWithoutAnalyzerFallsBack(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/v1/analyses/resolve", `{"food_name": "steamed broccoli", "input_method": "text"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got domain.NormalizedAnalysis
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, domain.SourceReconstructed, got.Source)

	// images cannot be reconstructed offline
	resp2 := postJSON(t, srv.URL+"/v1/analyses/resolve", `{"image_base64": "aGVsbG8=", "input_method": "camera"}`)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}
