package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice-dashboard/internal/apperr"

	"github.com/gin-gonic/gin"
)

type sinkStub struct {
	got []StatusEvent
	err error
}

func (s *sinkStub) ApplyStatusEvent(ctx context.Context, ev StatusEvent) error {
	s.got = append(s.got, ev)
	return s.err
}

func postWebhook(h WebhookHandler, body, secret string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhooks/provider/calls", h.HandleCallStatus)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/provider/calls", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhook_ForwardsEvent(t *testing.T) {
	sink := &sinkStub{}
	w := postWebhook(WebhookHandler{Sink: sink}, `{"call_id":"c1","status":"completed","completed":true,"call_length":2,"price":0.18}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(sink.got) != 1 || sink.got[0].CallID != "c1" || sink.got[0].DurationSeconds() != 120 {
		t.Fatalf("unexpected events %+v", sink.got)
	}
}

func TestWebhook_ChecksSecret(t *testing.T) {
	sink := &sinkStub{}
	h := WebhookHandler{Sink: sink, Secret: "s3cret"}
	if w := postWebhook(h, `{"call_id":"c1"}`, "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if w := postWebhook(h, `{"call_id":"c1"}`, "s3cret"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestWebhook_RejectsBadPayloads(t *testing.T) {
	h := WebhookHandler{Sink: &sinkStub{}}
	if w := postWebhook(h, `{`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", w.Code)
	}
	if w := postWebhook(h, `{"status":"completed"}`, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without call_id, got %d", w.Code)
	}
}

func TestWebhook_AcknowledgesUnknownCalls(t *testing.T) {
	h := WebhookHandler{Sink: &sinkStub{err: apperr.ErrNotFound}}
	if w := postWebhook(h, `{"call_id":"zzz"}`, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown call, got %d", w.Code)
	}
}
