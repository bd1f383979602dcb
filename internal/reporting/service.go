package reporting

import (
	"context"
	"errors"
	"fmt"
	"math"

	"voice-dashboard/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// TotalsSource supplies owner-scoped raw call aggregates.
type TotalsSource interface {
	Totals(ctx context.Context, userID string) (calls.Totals, error)
}

type Service struct {
	src TotalsSource
}

func NewService(src TotalsSource) *Service {
	return &Service{src: src}
}

func (s *Service) CallsSummary(ctx context.Context, userID string) (CallsSummary, error) {
	if userID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	t, err := s.src.Totals(ctx, userID)
	if err != nil {
		return CallsSummary{}, fmt.Errorf("call totals: %w", err)
	}
	return summarize(t), nil
}

func summarize(t calls.Totals) CallsSummary {
	out := CallsSummary{
		TotalCalls:      t.Total,
		CompletedCalls:  t.Completed,
		FailedCalls:     t.Failed,
		InProgressCalls: t.InProgress,
		TotalDuration:   t.CompletedDuration,
		TotalCost:       round(t.TotalCost, 4),
	}
	if t.Total > 0 {
		out.AvgCost = round(t.TotalCost/float64(t.Total), 2)
		out.SuccessRate = round(float64(t.Completed)/float64(t.Total)*100, 1)
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
