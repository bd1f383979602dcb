package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-dashboard/internal/apperr"
)

const DefaultBaseURL = "https://api.bland.ai/v1"

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// Options tunes a Client. Zero values fall back to DefaultBaseURL and a
// 30s timeout.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client talks to the voice provider on behalf of one API key. It holds no
// mutable state; build a new one when the key changes.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

var ErrMissingAPIKey = apperr.Invalid("blandApiKey", "provider API key is not configured")

func NewClient(apiKey string, opts Options) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{apiKey: apiKey, baseURL: base, http: hc}, nil
}

// Factory builds clients that share transport settings.
type Factory struct {
	Options Options
}

func (f Factory) New(apiKey string) (*Client, error) {
	return NewClient(apiKey, f.Options)
}

// APIError is a non-2xx provider response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Is(target error) bool { return target == apperr.ErrProvider }

/* ===================== CALLS ===================== */

func (c *Client) SendCall(ctx context.Context, req SendCallRequest) (SendCallResponse, error) {
	var out SendCallResponse
	err := c.doJSON(ctx, http.MethodPost, "/calls", req.withDefaults(), &out)
	return out, err
}

// ListCalls forwards params (limit, from, to, ...) as the query string.
func (c *Client) ListCalls(ctx context.Context, params url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, withQuery("/calls", params), nil)
}

func (c *Client) GetCall(ctx context.Context, callID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/calls/"+url.PathEscape(callID), nil)
}

func (c *Client) GetTranscript(ctx context.Context, callID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/calls/"+url.PathEscape(callID)+"/transcript", nil)
}

func (c *Client) GetRecording(ctx context.Context, callID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/calls/"+url.PathEscape(callID)+"/recording", nil)
}

/* ===================== PATHWAYS ===================== */

func (c *Client) CreatePathway(ctx context.Context, in PathwayInput) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/pathways", in.withDefaults())
}

func (c *Client) ListPathways(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/pathways", nil)
}

func (c *Client) GetPathway(ctx context.Context, id string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/pathways/"+url.PathEscape(id), nil)
}

func (c *Client) UpdatePathway(ctx context.Context, id string, in PathwayInput) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, "/pathways/"+url.PathEscape(id), in)
}

func (c *Client) DeletePathway(ctx context.Context, id string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, "/pathways/"+url.PathEscape(id), nil)
}

/* ===================== KNOWLEDGE BASES ===================== */

func (c *Client) CreateKnowledgeBase(ctx context.Context, in KnowledgeBaseInput) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/knowledge-bases", in.withDefaults())
}

func (c *Client) ListKnowledgeBases(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/knowledge-bases", nil)
}

func (c *Client) GetKnowledgeBase(ctx context.Context, id string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/knowledge-bases/"+url.PathEscape(id), nil)
}

func (c *Client) UpdateKnowledgeBase(ctx context.Context, id string, in KnowledgeBaseInput) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, "/knowledge-bases/"+url.PathEscape(id), in)
}

func (c *Client) DeleteKnowledgeBase(ctx context.Context, id string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, "/knowledge-bases/"+url.PathEscape(id), nil)
}

/* ===================== MISC ===================== */

func (c *Client) ListVoices(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/voices", nil)
}

// GetAnalytics forwards params as the query string.
func (c *Client) GetAnalytics(ctx context.Context, params url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, withQuery("/analytics", params), nil)
}

func withQuery(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

/* ===================== TRANSPORT ===================== */

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", apperr.ErrProvider, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s %s: %v", apperr.ErrProvider, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", apperr.ErrProvider, err)
	}
	return json.RawMessage(raw), nil
}

func decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &body) == nil && strings.TrimSpace(body.Message) != "" {
		return &APIError{Status: resp.StatusCode, Message: body.Message}
	}
	return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("HTTP Error: %d", resp.StatusCode)}
}
