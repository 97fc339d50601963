// Package safety handles risk-flagged messages: it records an SOS alert,
// notifies operators and answers with a fixed supportive message.
package safety

import (
	"context"
	"log/slog"
	"time"

	"github.com/mindease/backend/internal/model/chat"
)

// SupportMessage is returned verbatim for every risk-flagged message.
const SupportMessage = "⚠️ I hear you’re going through something very difficult.\n" +
	"You’re not alone. I recommend reaching out to a counselor or helpline immediately.\n" +
	"I've sent an alert to ensure you get help.\n" +
	"You are worth every second that time can spare. You are beautiful just like the apricity of the sun.\n" +
	"I am here for you — pour your heart out.\n\n" +
	"Oh little rose, I am your gardener. Don't wither away. Who will I water?"

const defaultWriteTimeout = 5 * time.Second

// AlertWriter persists SOS alerts.
type AlertWriter interface {
	AppendAlert(ctx context.Context, alert chat.Alert) error
}

// Handler runs the escalation path.
type Handler struct {
	alerts       AlertWriter
	notifier     Notifier
	writeTimeout time.Duration
	now          func() time.Time
}

// NewHandler wires the alert store and notifier. A nil notifier logs only.
func NewHandler(alerts AlertWriter, notifier Notifier, writeTimeout time.Duration) *Handler {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Handler{
		alerts:       alerts,
		notifier:     notifier,
		writeTimeout: writeTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Escalate records an alert and notifies operators, then returns
// SupportMessage. Failures are logged as alarms and never change the reply.
// The alert write outlives caller cancellation.
func (h *Handler) Escalate(ctx context.Context, userID, message string) string {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.writeTimeout)
	defer cancel()

	alert := chat.Alert{
		UserID:    userID,
		Message:   message,
		Status:    chat.AlertTriggered,
		CreatedAt: h.now(),
	}

	if h.alerts == nil {
		slog.Error("sos alert not recorded: no alert store configured",
			"alarm", true,
			"user_id", userID)
	} else if err := h.alerts.AppendAlert(writeCtx, alert); err != nil {
		slog.Error("failed to record sos alert",
			"alarm", true,
			"user_id", userID,
			"error", err)
	}

	if err := h.notifier.Notify(writeCtx, alert); err != nil {
		slog.Error("sos notification failed",
			"alarm", true,
			"user_id", userID,
			"error", err)
	}

	return SupportMessage
}
