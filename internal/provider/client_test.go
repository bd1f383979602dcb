package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"voice-dashboard/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	method string
	path   string
	query  string
	auth   string
	body   map[string]any
}

func newServer(t *testing.T, status int, resp string, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		got.auth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		if len(b) > 0 {
			_ = json.Unmarshal(b, &got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("  ", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestSendCall_AppliesDefaults(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{"status":"success","call_id":"c-123"}`, &got)

	c, err := NewClient("key-1", Options{BaseURL: srv.URL})
	require.NoError(t, err)

	res, err := c.SendCall(context.Background(), SendCallRequest{PhoneNumber: "+5511999990000", Language: "en-US"})
	require.NoError(t, err)

	assert.Equal(t, "c-123", res.CallID)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/calls", got.path)
	assert.Equal(t, "key-1", got.auth)
	assert.Equal(t, DefaultTask, got.body["task"])
	assert.Equal(t, "default", got.body["voice_id"])
	assert.Equal(t, "enhanced", got.body["model"])
	assert.Equal(t, 0.7, got.body["temperature"])
	assert.Equal(t, float64(30), got.body["max_duration"])
	assert.Equal(t, true, got.body["wait_for_greeting"])
	assert.Equal(t, true, got.body["record"])
	assert.Equal(t, "en-US", got.body["language"], "explicit values win over defaults")
}

func TestSendCall_KeepsExplicitFalse(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{}`, &got)
	c, _ := NewClient("k", Options{BaseURL: srv.URL})

	off := false
	_, err := c.SendCall(context.Background(), SendCallRequest{PhoneNumber: "5511999990000", Record: &off})
	require.NoError(t, err)
	assert.Equal(t, false, got.body["record"])
}

func TestCreatePathway_DefaultsDescriptionAndNodes(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{"pathway_id":"p1"}`, &got)
	c, _ := NewClient("k", Options{BaseURL: srv.URL})

	raw, err := c.CreatePathway(context.Background(), PathwayInput{Name: "Sales"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"pathway_id":"p1"}`, string(raw))
	assert.Equal(t, "", got.body["description"])
	assert.Equal(t, []any{}, got.body["nodes"])
}

func TestCreateKnowledgeBase_DefaultsContent(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{}`, &got)
	c, _ := NewClient("k", Options{BaseURL: srv.URL})

	_, err := c.CreateKnowledgeBase(context.Background(), KnowledgeBaseInput{Name: "FAQ"})
	require.NoError(t, err)
	assert.Equal(t, "/knowledge-bases", got.path)
	assert.Equal(t, []any{}, got.body["content"])
}

func TestPathsAndQuery(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, `{}`, &got)
	c, _ := NewClient("k", Options{BaseURL: srv.URL + "/"})
	ctx := context.Background()

	cases := []struct {
		call   func() error
		method string
		path   string
	}{
		{func() error { _, err := c.GetTranscript(ctx, "c1"); return err }, http.MethodGet, "/calls/c1/transcript"},
		{func() error { _, err := c.GetRecording(ctx, "c1"); return err }, http.MethodGet, "/calls/c1/recording"},
		{func() error { _, err := c.DeletePathway(ctx, "p1"); return err }, http.MethodDelete, "/pathways/p1"},
		{func() error { _, err := c.UpdateKnowledgeBase(ctx, "k1", KnowledgeBaseInput{Name: "x"}); return err }, http.MethodPut, "/knowledge-bases/k1"},
		{func() error { _, err := c.ListVoices(ctx); return err }, http.MethodGet, "/voices"},
	}
	for _, tc := range cases {
		require.NoError(t, tc.call())
		assert.Equal(t, tc.method, got.method)
		assert.Equal(t, tc.path, got.path)
	}

	_, err := c.GetAnalytics(ctx, url.Values{"start_date": {"2024-01-01"}})
	require.NoError(t, err)
	assert.Equal(t, "/analytics", got.path)
	assert.Equal(t, "start_date=2024-01-01", got.query)

	_, err = c.ListCalls(ctx, url.Values{"limit": {"20"}})
	require.NoError(t, err)
	assert.Equal(t, "/calls", got.path)
	assert.Equal(t, "limit=20", got.query)

	_, err = c.ListCalls(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "", got.query)
}

func TestErrors_SurfaceProviderMessage(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusBadRequest, `{"message":"Invalid phone number"}`, &got)
	c, _ := NewClient("k", Options{BaseURL: srv.URL})

	_, err := c.GetCall(context.Background(), "c1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrProvider))
	assert.Equal(t, "Invalid phone number", err.Error())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestErrors_FallBackToStatus(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusBadGateway, `<html>oops</html>`, &got)
	c, _ := NewClient("k", Options{BaseURL: srv.URL})

	_, err := c.ListCalls(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, "HTTP Error: 502", err.Error())
}

func TestFactory_BuildsIndependentClients(t *testing.T) {
	f := Factory{Options: Options{BaseURL: "http://example.invalid"}}
	a, err := f.New("key-a")
	require.NoError(t, err)
	b, err := f.New("key-b")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, "key-a", a.apiKey)
	assert.Equal(t, "key-b", b.apiKey)
}

func TestStatusEvent_DurationSeconds(t *testing.T) {
	assert.Equal(t, 90, StatusEvent{CallLength: 1.5}.DurationSeconds())
	assert.Equal(t, 0, StatusEvent{}.DurationSeconds())
}
