package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamAnalysisDeliversRawBody(t *testing.T) {
	body := `{"type":"content","chunk":"xin chào"}` + "\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analysis/stream", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		io.WriteString(w, body)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	rc, err := c.StreamAnalysis(context.Background(), AnalysisRequest{Symbol: "VNM", CompanyName: "Vinamilk"})
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestStreamAnalysisNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	_, err := c.StreamAnalysis(context.Background(), AnalysisRequest{Symbol: "VNM"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestFetchIndicatorsParsesPayloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/indicators", r.URL.Path)
		io.WriteString(w, `{"indicators":{"rsi":{"series":[{"time":1700000000000,"value":55.2}]},"macd":null,"atr":{"error":"not enough data"}}}`)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	payloads, err := c.FetchIndicators(context.Background(), IndicatorRequest{
		Symbol: "VNM", Keys: []string{"rsi", "macd", "atr"},
	})
	require.NoError(t, err)

	require.Contains(t, payloads, "rsi")
	require.Len(t, payloads["rsi"].Series, 1)
	assert.Nil(t, payloads["macd"])
	assert.Equal(t, "not enough data", payloads["atr"].Error)
}

func TestFetchIndicatorsRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"indicators":{}}`)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	payloads, err := c.FetchIndicators(context.Background(), IndicatorRequest{Symbol: "VNM"})
	require.NoError(t, err)
	assert.Empty(t, payloads)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestFetchCatalogCachesResult(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"indicators":[{"key":"rsi","label":"RSI 14","category":"oscillator"}]}`)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	first := c.FetchCatalog(context.Background())
	second := c.FetchCatalog(context.Background())

	assert.Equal(t, int32(1), calls.Load(), "catalog is fetched once per session")
	assert.Same(t, first, second)
	_, ok := first.Get("rsi")
	assert.True(t, ok)
}

func TestConfigureSwitchesBackend(t *testing.T) {
	oldSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"indicators":{}}`)
	}))
	defer oldSrv.Close()
	newSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer rotated", r.Header.Get("Authorization"))
		io.WriteString(w, `{"indicators":{"rsi":{"value":50}}}`)
	}))
	defer newSrv.Close()

	c := New(Options{BaseURL: oldSrv.URL})
	payloads, err := c.FetchIndicators(context.Background(), IndicatorRequest{Symbol: "VNM"})
	require.NoError(t, err)
	assert.Empty(t, payloads)

	// A reloaded config repoints the same client at the new backend.
	c.Configure(Options{BaseURL: newSrv.URL, APIKey: "rotated"})
	payloads, err = c.FetchIndicators(context.Background(), IndicatorRequest{Symbol: "VNM"})
	require.NoError(t, err)
	assert.Contains(t, payloads, "rsi")
}

func TestFetchCatalogFallsBackToBuiltin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	cat := c.FetchCatalog(context.Background())
	require.NotNil(t, cat)
	_, ok := cat.Get("rsi")
	assert.True(t, ok)
}
