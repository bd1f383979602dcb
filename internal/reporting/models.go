package reporting

// CallsSummary is the per-user call dashboard. AvgCost has 2 decimals and
// SuccessRate (percent) has 1; both are zero when there are no calls.
type CallsSummary struct {
	TotalCalls      int `json:"totalCalls"`
	CompletedCalls  int `json:"completedCalls"`
	FailedCalls     int `json:"failedCalls"`
	InProgressCalls int `json:"inProgressCalls"`

	// TotalDuration sums seconds over completed calls only.
	TotalDuration int     `json:"totalDuration"`
	TotalCost     float64 `json:"totalCost"`
	AvgCost       float64 `json:"avgCost"`
	SuccessRate   float64 `json:"successRate"`
}
