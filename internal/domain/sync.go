package domain

import "time"

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
)

type ItemType string

const (
	ItemReservation ItemType = "reservation"
	ItemStopSale    ItemType = "stop_sale"
	ItemUnknown     ItemType = "unknown"
)

type ItemStatus string

const (
	ItemPending ItemStatus = "pending"
	ItemSuccess ItemStatus = "success"
	ItemFailed  ItemStatus = "failed"
)

// Batch limits for a single run.
const (
	MinBatchItems = 1
	MaxBatchItems = 100
)

// SyncRun is one batch synchronization job.
type SyncRun struct {
	ID          int64
	Token       string
	TenantID    int64
	Total       int
	Status      RunStatus
	Successful  int
	Failed      int
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Duration is zero until the run completes.
func (r SyncRun) Duration() time.Duration {
	if r.CompletedAt == nil || r.StartedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

type SyncItem struct {
	RunID       int64
	SourceID    int64
	Type        ItemType
	Status      ItemStatus
	PartnerID   *int64
	Error       *string
	ProcessedAt *time.Time
}

// ItemResult is the outcome of processing one item; exactly one of
// PartnerID (success) or Err (failure) is meaningful.
type ItemResult struct {
	SourceID  int64
	Type      ItemType
	PartnerID *int64
	Err       error
}

func (r ItemResult) OK() bool { return r.Err == nil }

func (r ItemResult) Status() ItemStatus {
	if r.Err != nil {
		return ItemFailed
	}
	return ItemSuccess
}

func (r ItemResult) ErrorText() *string {
	if r.Err == nil {
		return nil
	}
	s := r.Err.Error()
	return &s
}

type RunSummary struct {
	Total      int     `json:"total"`
	Successful int     `json:"successful"`
	Failed     int     `json:"failed"`
	Duration   float64 `json:"duration"`
}

func SummaryOf(r SyncRun) RunSummary {
	return RunSummary{
		Total:      r.Total,
		Successful: r.Successful,
		Failed:     r.Failed,
		Duration:   roundSeconds(r.Duration()),
	}
}

type ItemView struct {
	SourceID  int64    `json:"id"`
	Type      ItemType `json:"type"`
	PartnerID *int64   `json:"partner_id,omitempty"`
	Error     *string  `json:"error,omitempty"`
}

// RunResult is the read model consumed by retry and reporting.
type RunResult struct {
	Token      string     `json:"run_token"`
	Status     RunStatus  `json:"status"`
	Summary    RunSummary `json:"summary"`
	Successful []ItemView `json:"successful"`
	Failed     []ItemView `json:"failed"`
}

type RunHistoryEntry struct {
	Token       string     `json:"run_token"`
	Status      RunStatus  `json:"status"`
	Total       int        `json:"total"`
	Successful  int        `json:"successful"`
	Failed      int        `json:"failed"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func roundSeconds(d time.Duration) float64 {
	return float64(d.Round(10*time.Millisecond).Milliseconds()) / 1000
}
