package chat

import "time"

// AlertTriggered is the only status an alert is ever written with.
const AlertTriggered = "ALERT_TRIGGERED"

// Alert records a risk-flagged message for human follow-up.
type Alert struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
