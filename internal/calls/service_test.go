package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/internal/provider"
	"voice-dashboard/internal/users"
)

type profilesStub map[string]users.User

func (p profilesStub) FindByID(ctx context.Context, id string) (users.User, error) {
	u, ok := p[id]
	if !ok {
		return users.User{}, apperr.ErrNotFound
	}
	return u, nil
}

type gatewayStub struct {
	key     string
	sent    []provider.SendCallRequest
	callID  string
	sendErr error
}

func (g *gatewayStub) SendCall(ctx context.Context, req provider.SendCallRequest) (provider.SendCallResponse, error) {
	g.sent = append(g.sent, req)
	if g.sendErr != nil {
		return provider.SendCallResponse{}, g.sendErr
	}
	return provider.SendCallResponse{Status: "success", CallID: g.callID}, nil
}

func (g *gatewayStub) GetTranscript(ctx context.Context, callID string) (json.RawMessage, error) {
	return json.RawMessage(fmt.Sprintf(`{"call_id":%q,"key":%q}`, callID, g.key)), nil
}

func (g *gatewayStub) GetRecording(ctx context.Context, callID string) (json.RawMessage, error) {
	return json.RawMessage(`{"url":"https://rec.example/` + callID + `"}`), nil
}

type slotsStub struct {
	limit    int
	inFlight map[string]int
}

func (s *slotsStub) Acquire(ctx context.Context, userID string) (bool, error) {
	if s.inFlight[userID] >= s.limit {
		return false, nil
	}
	s.inFlight[userID]++
	return true, nil
}

func (s *slotsStub) Release(ctx context.Context, userID string) error {
	s.inFlight[userID]--
	return nil
}

func factoryFor(gw *gatewayStub) GatewayFactory {
	return func(apiKey string) (Gateway, error) {
		if apiKey == "" {
			return nil, provider.ErrMissingAPIKey
		}
		gw.key = apiKey
		return gw, nil
	}
}

func newTestService(profiles profilesStub, gw *gatewayStub) (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	svc := NewService(repo, profiles, factoryFor(gw))
	base := time.Unix(1700000000, 0).UTC()
	n := 0
	svc.clock = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return svc, repo
}

func TestCreate_WithoutKeyStaysPending(t *testing.T) {
	gw := &gatewayStub{}
	svc, _ := newTestService(profilesStub{"u1": {ID: "u1"}}, gw)

	c, err := svc.Create(context.Background(), "u1", CreateCall{PhoneNumber: "+5511999990000", PathwayID: "p1", Instructions: "be nice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != StatusPending || c.UserID != "u1" || c.PathwayID != "p1" {
		t.Fatalf("unexpected call %+v", c)
	}
	if string(c.Metadata) != `{"instructions":"be nice"}` {
		t.Fatalf("unexpected metadata %s", c.Metadata)
	}
	if len(gw.sent) != 0 {
		t.Fatalf("expected no dispatch without a key")
	}

	got, err := svc.Get(context.Background(), "u1", c.ID)
	if err != nil || got.ID != c.ID || got.PhoneNumber != "+5511999990000" {
		t.Fatalf("round trip failed: %+v %v", got, err)
	}
}

func TestCreate_ValidatesPhoneNumber(t *testing.T) {
	svc, _ := newTestService(profilesStub{"u1": {ID: "u1"}}, &gatewayStub{})
	_, err := svc.Create(context.Background(), "u1", CreateCall{PhoneNumber: "123", MaxDuration: 999})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if d := apperr.Details(err); len(d) != 2 {
		t.Fatalf("expected 2 field errors, got %+v", d)
	}
}

func TestCreate_DispatchesWithUserKey(t *testing.T) {
	gw := &gatewayStub{callID: "prov-1"}
	profiles := profilesStub{"u1": {ID: "u1", ProviderAPIKey: "key-u1", WebhookURL: "https://hooks.example", WebhookEnabled: true}}
	svc, _ := newTestService(profiles, gw)

	c, err := svc.Create(context.Background(), "u1", CreateCall{PhoneNumber: "+5511999990000", Instructions: "sell"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != StatusInProgress || c.ProviderCallID != "prov-1" {
		t.Fatalf("unexpected call %+v", c)
	}
	if gw.key != "key-u1" || len(gw.sent) != 1 {
		t.Fatalf("expected one dispatch with the user's key")
	}
	if gw.sent[0].Task != "sell" || gw.sent[0].Webhook != "https://hooks.example" {
		t.Fatalf("unexpected request %+v", gw.sent[0])
	}
}

func TestCreate_ProviderFailureMarksFailed(t *testing.T) {
	gw := &gatewayStub{sendErr: &provider.APIError{Status: 400, Message: "Invalid phone number"}}
	svc, _ := newTestService(profilesStub{"u1": {ID: "u1", ProviderAPIKey: "k"}}, gw)

	_, err := svc.Create(context.Background(), "u1", CreateCall{PhoneNumber: "+5511999990000"})
	if !errors.Is(err, apperr.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}

	page, _ := svc.List(context.Background(), "u1", ListFilter{})
	if len(page.Calls) != 1 || page.Calls[0].Status != StatusFailed {
		t.Fatalf("expected one failed call, got %+v", page.Calls)
	}
	var meta map[string]any
	_ = json.Unmarshal(page.Calls[0].Metadata, &meta)
	if meta["error"] != "Invalid phone number" {
		t.Fatalf("expected error in metadata, got %v", meta)
	}
}

func TestCreate_ConcurrencyCap(t *testing.T) {
	gw := &gatewayStub{callID: "prov-1"}
	svc, _ := newTestService(profilesStub{"u1": {ID: "u1", ProviderAPIKey: "k"}}, gw)
	slots := &slotsStub{limit: 1, inFlight: map[string]int{}}
	svc.WithSlots(slots)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", CreateCall{PhoneNumber: "+5511999990000"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", CreateCall{PhoneNumber: "+5511999990001"}); !errors.Is(err, apperr.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}

	if err := svc.ApplyStatusEvent(ctx, provider.StatusEvent{CallID: "prov-1", Status: "completed", CallLength: 1}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if slots.inFlight["u1"] != 0 {
		t.Fatalf("expected slot released on completion, got %d", slots.inFlight["u1"])
	}
	gw.callID = "prov-2"
	if _, err := svc.Create(ctx, "u1", CreateCall{PhoneNumber: "+5511999990001"}); err != nil {
		t.Fatalf("create after release: %v", err)
	}
}

// failingUpdateRepo stores creates but rejects every update.
type failingUpdateRepo struct {
	*MemoryRepo
}

func (r failingUpdateRepo) Update(ctx context.Context, c Call) error {
	return errors.New("connection reset")
}

func TestCreate_ReleasesSlotWhenStoringDispatchFails(t *testing.T) {
	gw := &gatewayStub{callID: "prov-1"}
	svc := NewService(failingUpdateRepo{NewMemoryRepo()}, profilesStub{"u1": {ID: "u1", ProviderAPIKey: "k"}}, factoryFor(gw))
	slots := &slotsStub{limit: 1, inFlight: map[string]int{}}
	svc.WithSlots(slots)

	if _, err := svc.Create(context.Background(), "u1", CreateCall{PhoneNumber: "+5511999990000"}); err == nil {
		t.Fatalf("expected store error")
	}
	if len(gw.sent) != 1 {
		t.Fatalf("expected the call to reach the provider")
	}
	if slots.inFlight["u1"] != 0 {
		t.Fatalf("expected slot released, got %d in flight", slots.inFlight["u1"])
	}
}

func TestApplyStatusEvent_OnlyAdvances(t *testing.T) {
	gw := &gatewayStub{callID: "prov-9"}
	svc, _ := newTestService(profilesStub{"u1": {ID: "u1", ProviderAPIKey: "k"}}, gw)
	ctx := context.Background()

	c, err := svc.Create(ctx, "u1", CreateCall{PhoneNumber: "+5511999990000"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.ApplyStatusEvent(ctx, provider.StatusEvent{CallID: "prov-9", Status: "completed", CallLength: 2, Price: 0.18}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := svc.ApplyStatusEvent(ctx, provider.StatusEvent{CallID: "prov-9", Status: "failed"}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, _ := svc.Get(ctx, "u1", c.ID)
	if got.Status != StatusCompleted || got.Duration != 120 || got.Cost != 0.18 {
		t.Fatalf("expected completed call to stay completed, got %+v", got)
	}

	err = svc.ApplyStatusEvent(ctx, provider.StatusEvent{CallID: "unknown", Status: "completed"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for unknown call, got %v", err)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	svc, _ := newTestService(profilesStub{"a": {ID: "a"}, "b": {ID: "b"}}, &gatewayStub{})
	ctx := context.Background()

	c, err := svc.Create(ctx, "a", CreateCall{PhoneNumber: "+5511999990000"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Get(ctx, "b", c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found across users, got %v", err)
	}
	page, err := svc.List(ctx, "b", ListFilter{})
	if err != nil || len(page.Calls) != 0 || page.Pagination.Total != 0 {
		t.Fatalf("expected empty list for b, got %+v %v", page, err)
	}
	if _, err := svc.Transcript(ctx, "b", c.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found transcript across users, got %v", err)
	}
}

func TestList_PaginationAndFilters(t *testing.T) {
	svc, _ := newTestService(profilesStub{"u1": {ID: "u1"}}, &gatewayStub{})
	ctx := context.Background()
	var ids []string
	for i := 0; i < 5; i++ {
		c, err := svc.Create(ctx, "u1", CreateCall{PhoneNumber: fmt.Sprintf("+551199999000%d", i)})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, c.ID)
	}

	page, err := svc.List(ctx, "u1", ListFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Pagination.Total != 5 || len(page.Calls) != 2 {
		t.Fatalf("unexpected page %+v", page.Pagination)
	}
	if page.Calls[0].ID != ids[3] || page.Calls[1].ID != ids[2] {
		t.Fatalf("expected newest first")
	}

	page, _ = svc.List(ctx, "u1", ListFilter{})
	if page.Pagination.Limit != DefaultListLimit {
		t.Fatalf("expected default limit, got %d", page.Pagination.Limit)
	}
	page, _ = svc.List(ctx, "u1", ListFilter{Limit: 10_000})
	if page.Pagination.Limit != MaxListLimit {
		t.Fatalf("expected clamped limit, got %d", page.Pagination.Limit)
	}

	if _, err := svc.List(ctx, "u1", ListFilter{Status: "bogus"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}
	if _, err := svc.List(ctx, "u1", ListFilter{Offset: -1}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for negative offset, got %v", err)
	}
	page, _ = svc.List(ctx, "u1", ListFilter{Status: StatusCompleted})
	if page.Pagination.Total != 0 {
		t.Fatalf("expected no completed calls")
	}
}

func TestTranscriptAndRecording_UseOwnersKey(t *testing.T) {
	gw := &gatewayStub{callID: "prov-7"}
	svc, _ := newTestService(profilesStub{"u1": {ID: "u1", ProviderAPIKey: "key-u1"}}, gw)
	ctx := context.Background()

	c, err := svc.Create(ctx, "u1", CreateCall{PhoneNumber: "+5511999990000"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	tr, err := svc.Transcript(ctx, "u1", c.ID)
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if string(tr) != `{"call_id":"prov-7","key":"key-u1"}` {
		t.Fatalf("unexpected transcript %s", tr)
	}
	if _, err := svc.Recording(ctx, "u1", c.ID); err != nil {
		t.Fatalf("recording: %v", err)
	}
}

func TestStatusFromProvider(t *testing.T) {
	cases := []struct {
		raw       string
		completed bool
		want      Status
		ok        bool
	}{
		{"completed", false, StatusCompleted, true},
		{"in-progress", false, StatusInProgress, true},
		{"no-answer", false, StatusFailed, true},
		{"queued", false, "", false},
		{"", true, StatusCompleted, true},
	}
	for _, tc := range cases {
		got, ok := StatusFromProvider(tc.raw, tc.completed)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%q/%v: got %q %v", tc.raw, tc.completed, got, ok)
		}
	}
}
