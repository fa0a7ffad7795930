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

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Caller is the RPC gateway capability: a single request/response call to the
// node. result must be a pointer, or nil to discard the result.
type Caller interface {
	Call(ctx context.Context, method string, result interface{}, params ...interface{}) error
}

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	Key     string        `json:"key,omitempty"`
}

type response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client is a JSON-RPC client for the node's HTTP endpoint. Calls are paced by
// a token bucket so that several pollers cannot flood the node.
type Client struct {
	addr    string
	key     string
	http    *http.Client
	limiter *rate.Limiter
	metrics *Metrics
	logger  *logrus.Entry
	nextID  uint64
}

// NewClient returns a Client for the node listening at addr (eg.
// http://localhost:9009). A non-positive limit disables rate limiting.
func NewClient(addr string,
	key string,
	timeout time.Duration,
	limit float64,
	burst int,
	metrics *Metrics,
	logger *logrus.Entry) *Client {

	l := rate.Inf
	if limit > 0 {
		l = rate.Limit(limit)
	}
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		addr:    addr,
		key:     key,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(l, burst),
		metrics: metrics,
		logger:  logger,
	}
}

// Call implements the Caller interface.
func (c *Client) Call(ctx context.Context, method string, result interface{}, params ...interface{}) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.observe(method, start, err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Method: method, Err: err}
	}

	if params == nil {
		params = []interface{}{}
	}

	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      atomic.AddUint64(&c.nextID, 1),
		Method:  method,
		Params:  params,
		Key:     c.key,
	})
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.addr, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &TransportError{Method: method, Err: fmt.Errorf("http status %d", resp.StatusCode)}
	}

	var res response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return &TransportError{Method: method, Err: err}
	}

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"duration": time.Since(start).Nanoseconds(),
	}).Debug("Client.Call")

	if res.Error != nil {
		return &NodeError{Method: method, Code: res.Error.Code, Message: res.Error.Message}
	}

	if len(res.Result) == 0 || string(res.Result) == "null" {
		return &NodeError{Method: method, Code: CodeNullResult, Message: "null result"}
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(res.Result, result); err != nil {
		return &TransportError{Method: method, Err: err}
	}

	return nil
}
