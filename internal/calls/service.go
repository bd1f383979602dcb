package calls

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/internal/provider"
	"voice-dashboard/internal/users"
	"voice-dashboard/internal/validate"
	"voice-dashboard/pkg/logger"

	"github.com/google/uuid"
)

// Repository is the persistence contract for calls. Every method except
// Advance is scoped by user id; not-owned and missing rows both return
// apperr.ErrNotFound.
type Repository interface {
	List(ctx context.Context, userID string, f ListFilter) ([]Call, int, error)
	Get(ctx context.Context, userID, id string) (Call, error)
	Create(ctx context.Context, c Call) error
	Update(ctx context.Context, c Call) error
	Totals(ctx context.Context, userID string) (Totals, error)

	// Advance locks the call with the given provider call id and stores the
	// result of fn when it reports a change.
	Advance(ctx context.Context, providerCallID string, fn func(Call) (Call, bool)) (Call, bool, error)
}

// Gateway is the slice of the provider client calls needs.
type Gateway interface {
	SendCall(ctx context.Context, req provider.SendCallRequest) (provider.SendCallResponse, error)
	GetTranscript(ctx context.Context, callID string) (json.RawMessage, error)
	GetRecording(ctx context.Context, callID string) (json.RawMessage, error)
}

// GatewayFactory builds a gateway for one API key.
type GatewayFactory func(apiKey string) (Gateway, error)

// Profiles resolves the caller's provider key and webhook settings.
type Profiles interface {
	FindByID(ctx context.Context, id string) (users.User, error)
}

// Slots caps in-flight provider calls per user.
type Slots interface {
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string) error
}

type Service struct {
	repo     Repository
	profiles Profiles
	gateways GatewayFactory
	slots    Slots
	clock    func() time.Time
}

func NewService(repo Repository, profiles Profiles, gateways GatewayFactory) *Service {
	return &Service{repo: repo, profiles: profiles, gateways: gateways, clock: time.Now}
}

// WithSlots enables the per-user concurrency cap on dispatch.
func (s *Service) WithSlots(slots Slots) *Service {
	s.slots = slots
	return s
}

func (s *Service) List(ctx context.Context, userID string, f ListFilter) (Page, error) {
	if f.Status != "" && !f.Status.Valid() {
		return Page{}, apperr.Invalid("status", "must be one of pending in_progress completed failed")
	}
	if f.Limit < 0 {
		return Page{}, apperr.Invalid("limit", "must be at least 0")
	}
	if f.Offset < 0 {
		return Page{}, apperr.Invalid("offset", "must be at least 0")
	}
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}

	rows, total, err := s.repo.List(ctx, userID, f)
	if err != nil {
		return Page{}, fmt.Errorf("list calls: %w", err)
	}
	if rows == nil {
		rows = []Call{}
	}
	return Page{Calls: rows, Pagination: Pagination{Total: total, Limit: f.Limit, Offset: f.Offset}}, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Call, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) Totals(ctx context.Context, userID string) (Totals, error) {
	return s.repo.Totals(ctx, userID)
}

// Create stores a pending call and, when the user has a provider key,
// submits it. A provider rejection leaves the row failed and is returned
// as an apperr.ErrProvider error.
func (s *Service) Create(ctx context.Context, userID string, in CreateCall) (Call, error) {
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if err := validate.Struct(in); err != nil {
		return Call{}, err
	}

	var profile users.User
	if s.profiles != nil {
		p, err := s.profiles.FindByID(ctx, userID)
		if err != nil {
			return Call{}, fmt.Errorf("load profile: %w", err)
		}
		profile = p
	}
	dispatch := profile.ProviderAPIKey != "" && s.gateways != nil

	slotHeld := false
	if dispatch && s.slots != nil {
		ok, err := s.slots.Acquire(ctx, userID)
		switch {
		case err != nil:
			// Fail open.
			logger.From(ctx).Warn("call slot acquire failed", "err", err)
		case !ok:
			return Call{}, apperr.New(apperr.ErrRateLimited, "too many calls in progress")
		default:
			slotHeld = true
		}
	}

	now := s.clock().UTC()
	c := Call{
		ID:          uuid.NewString(),
		UserID:      userID,
		PhoneNumber: in.PhoneNumber,
		PathwayID:   strings.TrimSpace(in.PathwayID),
		PathwayName: strings.TrimSpace(in.PathwayName),
		Status:      StatusPending,
		Metadata:    json.RawMessage(`{}`),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Instructions != "" {
		c.Metadata = mergeMetadata(c.Metadata, "instructions", in.Instructions)
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.release(ctx, userID, slotHeld)
		return Call{}, fmt.Errorf("create call: %w", err)
	}
	if !dispatch {
		return c, nil
	}

	return s.dispatch(ctx, c, in, profile, slotHeld)
}

func (s *Service) dispatch(ctx context.Context, c Call, in CreateCall, profile users.User, slotHeld bool) (Call, error) {
	req := provider.SendCallRequest{
		PhoneNumber:   c.PhoneNumber,
		Task:          in.Instructions,
		PathwayID:     c.PathwayID,
		VoiceID:       in.VoiceID,
		FirstSentence: in.FirstSentence,
		Language:      in.Language,
		MaxDuration:   in.MaxDuration,
		Record:        in.Record,
		Metadata:      map[string]any{"callId": c.ID},
	}
	if profile.WebhookEnabled && profile.WebhookURL != "" {
		req.Webhook = profile.WebhookURL
	}

	gw, err := s.gateways(profile.ProviderAPIKey)
	if err == nil {
		var res provider.SendCallResponse
		res, err = gw.SendCall(ctx, req)
		if err == nil && res.CallID == "" {
			err = apperr.New(apperr.ErrProvider, "provider did not return a call id")
		}
		if err == nil {
			c.Status = StatusInProgress
			c.ProviderCallID = res.CallID
			c.UpdatedAt = s.clock().UTC()
			if uerr := s.repo.Update(ctx, c); uerr != nil {
				s.release(ctx, c.UserID, slotHeld)
				return Call{}, fmt.Errorf("store dispatch: %w", uerr)
			}
			return c, nil
		}
	}

	s.release(ctx, c.UserID, slotHeld)
	c.Status = StatusFailed
	c.Metadata = mergeMetadata(c.Metadata, "error", err.Error())
	c.UpdatedAt = s.clock().UTC()
	if uerr := s.repo.Update(ctx, c); uerr != nil {
		logger.From(ctx).Error("store failed dispatch", "call_id", c.ID, "err", uerr)
	}
	if errors.Is(err, apperr.ErrProvider) || errors.Is(err, apperr.ErrValidation) {
		return Call{}, err
	}
	return Call{}, fmt.Errorf("%w: %v", apperr.ErrProvider, err)
}

// ApplyStatusEvent advances the call the provider reported on. It satisfies
// provider.StatusSink.
func (s *Service) ApplyStatusEvent(ctx context.Context, ev provider.StatusEvent) error {
	next, ok := StatusFromProvider(ev.Status, ev.Completed)
	now := s.clock().UTC()

	var wasTerminal bool
	c, changed, err := s.repo.Advance(ctx, ev.CallID, func(cur Call) (Call, bool) {
		wasTerminal = cur.Status.Terminal()
		if wasTerminal || !ok || next.rank() <= cur.Status.rank() {
			return cur, false
		}
		cur.Status = next
		if d := ev.DurationSeconds(); d > 0 {
			cur.Duration = d
		}
		if ev.Price > 0 {
			cur.Cost = ev.Price
		}
		if next == StatusFailed && ev.ErrorMessage != "" {
			cur.Metadata = mergeMetadata(cur.Metadata, "error", ev.ErrorMessage)
		}
		cur.UpdatedAt = now
		return cur, true
	})
	if err != nil {
		return err
	}
	if changed && c.Status.Terminal() && !wasTerminal {
		s.release(ctx, c.UserID, s.slots != nil)
	}
	return nil
}

func (s *Service) Transcript(ctx context.Context, userID, id string) (json.RawMessage, error) {
	gw, c, err := s.gatewayFor(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return gw.GetTranscript(ctx, c.ProviderCallID)
}

func (s *Service) Recording(ctx context.Context, userID, id string) (json.RawMessage, error) {
	gw, c, err := s.gatewayFor(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return gw.GetRecording(ctx, c.ProviderCallID)
}

func (s *Service) gatewayFor(ctx context.Context, userID, id string) (Gateway, Call, error) {
	c, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, Call{}, err
	}
	if c.ProviderCallID == "" {
		return nil, Call{}, apperr.New(apperr.ErrNotFound, "call was never dispatched to the provider")
	}
	if s.profiles == nil || s.gateways == nil {
		return nil, Call{}, provider.ErrMissingAPIKey
	}
	p, err := s.profiles.FindByID(ctx, userID)
	if err != nil {
		return nil, Call{}, err
	}
	gw, err := s.gateways(p.ProviderAPIKey)
	if err != nil {
		return nil, Call{}, err
	}
	return gw, c, nil
}

func (s *Service) release(ctx context.Context, userID string, held bool) {
	if !held || s.slots == nil {
		return
	}
	if err := s.slots.Release(ctx, userID); err != nil {
		logger.From(ctx).Warn("call slot release failed", "err", err)
	}
}
