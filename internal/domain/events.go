package domain

type EventType string

const (
	EventProgress  EventType = "progress"
	EventHeartbeat EventType = "heartbeat"
	EventComplete  EventType = "complete"
	EventError     EventType = "error"
)

type ProgressItem struct {
	ID        int64      `json:"id"`
	Type      ItemType   `json:"type"`
	Status    ItemStatus `json:"status"`
	PartnerID *int64     `json:"partner_id"`
	Error     *string    `json:"error"`
}

// ProgressEvent is the tagged variant sent on a run's progress stream.
// Only the fields belonging to Type are set.
type ProgressEvent struct {
	Type    EventType     `json:"type"`
	Current int           `json:"current,omitempty"`
	Total   int           `json:"total,omitempty"`
	Item    *ProgressItem `json:"item,omitempty"`
	Summary *RunSummary   `json:"summary,omitempty"`
	Message string        `json:"message,omitempty"`
}

func ProgressOf(current, total int, r ItemResult) ProgressEvent {
	return ProgressEvent{
		Type:    EventProgress,
		Current: current,
		Total:   total,
		Item: &ProgressItem{
			ID:        r.SourceID,
			Type:      r.Type,
			Status:    r.Status(),
			PartnerID: r.PartnerID,
			Error:     r.ErrorText(),
		},
	}
}

func CompleteOf(s RunSummary) ProgressEvent {
	return ProgressEvent{Type: EventComplete, Summary: &s}
}

func HeartbeatEvent() ProgressEvent { return ProgressEvent{Type: EventHeartbeat} }

func ErrorEvent(msg string) ProgressEvent { return ProgressEvent{Type: EventError, Message: msg} }
