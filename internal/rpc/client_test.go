package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunnyshin8/BridgeGuard-AI/internal/metrics"
)

func newTestClient(url string) *Client {
	return NewClient(&ClientConfig{
		URL:            url,
		RequestTimeout: 2 * time.Second,
		MaxRetries:     3,
		RetryInterval:  time.Millisecond,
	})
}

func TestClientCallSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req["jsonrpc"])
		assert.Equal(t, "status", req["method"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"node_info":{"moniker":"test"}}}`))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Call(context.Background(), "status", nil)
	require.NoError(t, err)

	var parsed struct {
		NodeInfo struct {
			Moniker string `json:"moniker"`
		} `json:"node_info"`
	}
	require.NoError(t, json.Unmarshal(result, &parsed))
	assert.Equal(t, "test", parsed.NodeInfo.Moniker)
}

func TestClientRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Call(context.Background(), "status", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Call(context.Background(), "status", nil)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrKindHTTP, rpcErr.Kind)
	assert.Equal(t, http.StatusBadGateway, rpcErr.Code)
}

func TestClientConnectionRefused(t *testing.T) {
	var rpcErr *Error
	_, err := newTestClient("http://127.0.0.1:1").Call(context.Background(), "status", nil)
	require.Error(t, err)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrKindConnection, rpcErr.Kind)
	assert.True(t, rpcErr.IsTransient())
}

func TestClientProtocolErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Call(context.Background(), "bogus_method", nil)
	require.Error(t, err)
	// protocol errors are not retried
	assert.Equal(t, int32(1), calls.Load())

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, ErrKindProtocol, rpcErr.Kind)
	assert.Equal(t, -32601, rpcErr.Code)
	assert.False(t, rpcErr.IsTransient())
}

func TestClientNotFoundStatusIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Call(context.Background(), "status", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientCallRecordsRequestMetrics(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`))
	}))
	defer srv.Close()

	// the method name is unique to this test, so counts start at zero
	_, err := newTestClient(srv.URL).Call(context.Background(), "block_results", nil)
	require.NoError(t, err)

	// each attempt is recorded: one failed, one succeeded
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.RPCRequestsTotal.WithLabelValues("block_results", "failed")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.RPCRequestsTotal.WithLabelValues("block_results", "success")))
}

func TestClientContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(&ClientConfig{
		URL:            srv.URL,
		RequestTimeout: time.Second,
		MaxRetries:     3,
		RetryInterval:  time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Call(ctx, "status", nil)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		var rpcErr *Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, ErrKindTimeout, rpcErr.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("call did not observe cancellation")
	}
}
