// Package rpc implements a resilient JSON-RPC 2.0 client for the node
// endpoint. Transient transport failures are retried with exponential
// backoff; protocol errors returned by the node are terminal.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sunnyshin8/BridgeGuard-AI/internal/logger"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/metrics"
)

// ErrorKind classifies a failed call.
type ErrorKind string

const (
	ErrKindConnection ErrorKind = "connection"
	ErrKindTimeout    ErrorKind = "timeout"
	ErrKindHTTP       ErrorKind = "http"
	ErrKindProtocol   ErrorKind = "protocol"
)

// Error is a failed RPC call. Kind tells the caller whether the failure
// was transport-level (the node state is unknown) or a node-issued
// protocol error (the node answered, the request was bad).
type Error struct {
	Kind    ErrorKind
	Method  string
	Code    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rpc %s failed (%s): %v", e.Method, e.Kind, e.Cause)
	}
	return fmt.Sprintf("rpc %s failed (%s): code=%d %s", e.Method, e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether the failure may clear on retry.
func (e *Error) IsTransient() bool {
	return e.Kind == ErrKindConnection || e.Kind == ErrKindTimeout || e.Kind == ErrKindHTTP
}

type request struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *responseError  `json:"error"`
}

type responseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// ClientConfig configures the RPC client.
type ClientConfig struct {
	URL            string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryInterval  time.Duration
}

// Client is a JSON-RPC 2.0 client over HTTP POST.
type Client struct {
	url           string
	httpClient    *http.Client
	maxRetries    int
	retryInterval time.Duration
	nextID        atomic.Uint64
}

// NewClient creates an RPC client with retry defaults.
func NewClient(cfg *ClientConfig) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryInterval := cfg.RetryInterval
	if retryInterval <= 0 {
		retryInterval = time.Second
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		url:           cfg.URL,
		httpClient:    &http.Client{Timeout: timeout},
		maxRetries:    maxRetries,
		retryInterval: retryInterval,
	}
}

// retryableStatus lists the HTTP statuses worth another attempt.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Call issues a JSON-RPC request and returns the raw result. Connection
// failures and retryable HTTP statuses are attempted up to MaxRetries
// times with exponential backoff. An error object in the JSON-RPC
// response is terminal and returned immediately.
func (c *Client) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(&request{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, &Error{Kind: ErrKindProtocol, Method: method, Cause: err}
	}

	var lastErr *Error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			// backoff: interval, 2x interval, 4x interval, ...
			wait := c.retryInterval * (1 << (attempt - 1))
			select {
			case <-ctx.Done():
				return nil, &Error{Kind: ErrKindTimeout, Method: method, Cause: ctx.Err()}
			case <-time.After(wait):
			}
		}

		attemptStart := time.Now()
		result, callErr := c.doCall(ctx, method, body)
		metrics.RecordRPCRequest(method, callErr == nil, time.Since(attemptStart).Seconds())
		if callErr == nil {
			return result, nil
		}
		if !callErr.IsTransient() {
			return nil, callErr
		}
		lastErr = callErr
		logger.L().Warn("rpc call retrying",
			zap.String("method", method),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.maxRetries),
			zap.Error(callErr))
	}
	return nil, lastErr
}

func (c *Client) doCall(ctx context.Context, method string, body []byte) (json.RawMessage, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: ErrKindConnection, Method: method, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := ErrKindConnection
		if ctx.Err() != nil {
			kind = ErrKindTimeout
		}
		return nil, &Error{Kind: kind, Method: method, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		kind := ErrKindProtocol
		if retryableStatus(resp.StatusCode) {
			kind = ErrKindHTTP
		}
		return nil, &Error{
			Kind:    kind,
			Method:  method,
			Code:    resp.StatusCode,
			Message: http.StatusText(resp.StatusCode),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: ErrKindConnection, Method: method, Cause: err}
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, &Error{Kind: ErrKindProtocol, Method: method, Cause: err}
	}
	if rpcResp.Error != nil {
		return nil, &Error{
			Kind:    ErrKindProtocol,
			Method:  method,
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
	}
	return rpcResp.Result, nil
}
