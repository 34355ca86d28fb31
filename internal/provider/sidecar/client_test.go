package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoResponse struct {
	Value string `json:"value"`
}

func testConfig(url string) Config {
	return Config{
		Name:        "test-sidecar",
		BaseURL:     url,
		Timeout:     5 * time.Second,
		RetryCount:  3,
		BaseBackoff: 10 * time.Millisecond,
	}
}

func TestClient_Do(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/echo", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "max_split_size_mb:128", r.Header.Get("X-Alloc-Conf"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(echoResponse{Value: body["value"]})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Headers = map[string]string{"X-Alloc-Conf": "max_split_size_mb:128"}
	client := NewClient(cfg)

	var resp echoResponse
	err := client.Do(context.Background(), http.MethodPost, "/echo", map[string]string{"value": "hello"}, &resp)

	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Value)
}

func TestClient_Do_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"bad image"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	err := client.Do(context.Background(), http.MethodPost, "/x", nil, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.StatusCode)
	assert.False(t, statusErr.Retryable())
	assert.Contains(t, err.Error(), "test-sidecar returned status 422")
}

func TestClient_Do_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	var resp echoResponse
	err := client.Do(context.Background(), http.MethodGet, "/x", nil, &resp)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_RetryOnFailure(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(echoResponse{Value: "ok"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	var resp echoResponse
	err := client.DoWithRetry(context.Background(), http.MethodGet, "/x", nil, &resp)

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Value)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestClient_RetryExhaustion(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RetryCount = 2
	client := NewClient(cfg)

	err := client.DoWithRetry(context.Background(), http.MethodGet, "/x", nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "initial attempt + 2 retries")
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	err := client.DoWithRetry(context.Background(), http.MethodGet, "/x", nil, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.DoWithRetry(ctx, http.MethodGet, "/x", nil, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoff(t *testing.T) {
	base := time.Second

	assert.Equal(t, time.Second, calculateBackoff(base, 0))
	assert.Equal(t, time.Second, calculateBackoff(base, 1))
	assert.Equal(t, 2*time.Second, calculateBackoff(base, 2))
	assert.Equal(t, 4*time.Second, calculateBackoff(base, 3))
	assert.Equal(t, 30*time.Second, calculateBackoff(base, 20))
}
