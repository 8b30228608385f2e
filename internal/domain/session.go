package domain

// SessionState is the proctored session lifecycle.
type SessionState int

const (
	StateInProgress SessionState = iota
	StateWarningShown
	StateSubmitted
)

func (s SessionState) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateWarningShown:
		return "warning_shown"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

// MarshalText encodes the state by name in JSON payloads.
func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Urgency is the presentation tier derived from the remaining time.
type Urgency string

const (
	UrgencyNormal   Urgency = "normal"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

// MonitorStatus reports the live camera feed.
type MonitorStatus string

const (
	MonitorPending     MonitorStatus = "pending"
	MonitorActive      MonitorStatus = "active"
	MonitorUnavailable MonitorStatus = "unavailable"
	MonitorStopped     MonitorStatus = "stopped"
)

// SessionSnapshot is a read-only view of a session broadcast to subscribers.
type SessionSnapshot struct {
	SessionID        string             `json:"session_id"`
	State            SessionState       `json:"state"`
	CurrentIndex     int                `json:"current_index"`
	Total            int                `json:"total"`
	Question         PublicQuestion     `json:"question"`
	Selected         Option             `json:"selected"`
	Answered         int                `json:"answered"`
	RemainingSeconds int                `json:"remaining_seconds"`
	Clock            string             `json:"clock"`
	Urgency          Urgency            `json:"urgency"`
	ViolationCount   int                `json:"violation_count"`
	RecentViolations []string           `json:"recent_violations"`
	Monitor          MonitorStatus      `json:"monitor"`
	Advisory         string             `json:"advisory,omitempty"`
	Payload          *SubmissionPayload `json:"payload,omitempty"`
}
