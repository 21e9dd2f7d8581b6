package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"sui-launchpad/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second

	// queryEventsPageSize is the per-page limit for cursor pagination.
	queryEventsPageSize = 50
)

// HTTPClient implements Client over HTTP JSON-RPC 2.0.
//
// Read calls are retried with linear backoff (delay grows by one step
// per attempt). Transaction submission is never retried; see
// Client.ExecuteTransaction.
type HTTPClient struct {
	endpoint   string
	client     *http.Client
	maxRetries int
	retryDelay time.Duration
	requestID  atomic.Uint64
}

var _ Client = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for read calls.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the base retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a fullnode client for the given RPC endpoint.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a read JSON-RPC call with linear-backoff retries.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	return c.do(ctx, method, params, result, c.maxRetries)
}

// callOnce performs a JSON-RPC call with no retries. Used for writes.
func (c *HTTPClient) callOnce(ctx context.Context, method string, params []interface{}, result interface{}) error {
	return c.do(ctx, method, params, result, 0)
}

func (c *HTTPClient) do(ctx context.Context, method string, params []interface{}, result interface{}, maxRetries int) error {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds())
	}()

	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Linear backoff: one base delay per elapsed attempt.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * c.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// queryEventsResult is the raw RPC response for suix_queryEvents.
type queryEventsResult struct {
	Data        []rawEvent      `json:"data"`
	NextCursor  json.RawMessage `json:"nextCursor"`
	HasNextPage bool            `json:"hasNextPage"`
}

// rawEvent is one event item as the fullnode encodes it. Numeric
// fields arrive as decimal strings.
type rawEvent struct {
	ID struct {
		TxDigest string `json:"txDigest"`
		EventSeq string `json:"eventSeq"`
	} `json:"id"`
	TimestampMs string          `json:"timestampMs"`
	Type        string          `json:"type"`
	ParsedJSON  json.RawMessage `json:"parsedJson"`
}

// QueryEvents returns events of the filtered Move type, following the
// pagination cursor until the filter limit or the final page.
func (c *HTTPClient) QueryEvents(ctx context.Context, filter EventFilter) ([]EventEnvelope, error) {
	var (
		events []EventEnvelope
		cursor json.RawMessage
	)

	for {
		pageSize := queryEventsPageSize
		if filter.Limit > 0 && filter.Limit-len(events) < pageSize {
			pageSize = filter.Limit - len(events)
		}

		params := []interface{}{
			map[string]interface{}{"MoveEventType": filter.EventType},
			cursor,
			pageSize,
			filter.Descending,
		}

		var result queryEventsResult
		if err := c.call(ctx, "suix_queryEvents", params, &result); err != nil {
			return nil, fmt.Errorf("query events %q: %w", filter.EventType, err)
		}

		for _, raw := range result.Data {
			env, err := decodeRawEvent(raw)
			if err != nil {
				return nil, fmt.Errorf("query events %q: %w", filter.EventType, err)
			}
			events = append(events, env)
		}

		if !result.HasNextPage || len(result.Data) == 0 {
			return events, nil
		}
		if filter.Limit > 0 && len(events) >= filter.Limit {
			return events[:filter.Limit], nil
		}
		cursor = result.NextCursor
	}
}

func decodeRawEvent(raw rawEvent) (EventEnvelope, error) {
	timestampMs, err := strconv.ParseInt(raw.TimestampMs, 10, 64)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("parse event timestamp %q: %w", raw.TimestampMs, err)
	}
	eventSeq, err := strconv.Atoi(raw.ID.EventSeq)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("parse event seq %q: %w", raw.ID.EventSeq, err)
	}
	return EventEnvelope{
		TxDigest:    raw.ID.TxDigest,
		EventSeq:    eventSeq,
		TimestampMs: timestampMs,
		Type:        raw.Type,
		ParsedJSON:  raw.ParsedJSON,
	}, nil
}

// getObjectResult is the raw RPC response for sui_getObject.
type getObjectResult struct {
	Data *struct {
		ObjectID string `json:"objectId"`
		Version  string `json:"version"`
		Content  *struct {
			Fields map[string]json.RawMessage `json:"fields"`
		} `json:"content"`
	} `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// GetObject fetches the current state of an on-chain object.
// Returns nil if the object does not exist.
func (c *HTTPClient) GetObject(ctx context.Context, objectID string) (*ObjectState, error) {
	params := []interface{}{
		objectID,
		map[string]interface{}{"showContent": true},
	}

	var result getObjectResult
	if err := c.call(ctx, "sui_getObject", params, &result); err != nil {
		return nil, fmt.Errorf("get object %s: %w", objectID, err)
	}

	if result.Data == nil {
		return nil, nil
	}

	version, err := strconv.ParseInt(result.Data.Version, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse object version %q: %w", result.Data.Version, err)
	}

	state := &ObjectState{
		ObjectID: result.Data.ObjectID,
		Version:  version,
	}
	if result.Data.Content != nil {
		state.Fields = result.Data.Content.Fields
	}

	return state, nil
}

// executeResult is the raw RPC response for sui_executeTransactionBlock.
type executeResult struct {
	Digest  string `json:"digest"`
	Effects *struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
	} `json:"effects"`
	ObjectChanges []struct {
		Type     string `json:"type"`
		ObjectID string `json:"objectId"`
	} `json:"objectChanges"`
}

// ExecuteTransaction submits a signed transaction and waits for local
// execution. The call is made exactly once.
func (c *HTTPClient) ExecuteTransaction(ctx context.Context, txBytes string, signatures []string) (*ExecuteResult, error) {
	params := []interface{}{
		txBytes,
		signatures,
		map[string]interface{}{
			"showEffects":       true,
			"showObjectChanges": true,
		},
		"WaitForLocalExecution",
	}

	var result executeResult
	if err := c.callOnce(ctx, "sui_executeTransactionBlock", params, &result); err != nil {
		return nil, fmt.Errorf("execute transaction: %w", err)
	}

	out := &ExecuteResult{
		TxDigest: result.Digest,
	}
	if result.Effects != nil {
		out.Success = result.Effects.Status.Status == "success"
		out.Error = result.Effects.Status.Error
	}
	for _, change := range result.ObjectChanges {
		if change.Type == "created" {
			out.CreatedObjects = append(out.CreatedObjects, change.ObjectID)
		}
	}

	return out, nil
}
