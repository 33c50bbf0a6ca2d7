package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caller-agent/pkg/logger"
)

// ErrMissingField is a propagated validation failure, same contract as
// callrecords.ErrMissingField.
var ErrMissingField = errors.New("notify: missing required field")

// Publisher delivers one human-readable alert and returns the
// channel-assigned message identifier.
type Publisher interface {
	Publish(ctx context.Context, subject, message string) (string, error)
}

// RecordMarker marks the originating call record as notified.
type RecordMarker interface {
	MarkNotificationSent(ctx context.Context, callID, timestamp string) error
}

// Channel limit on subject length; longer subjects are truncated silently.
const maxSubjectLen = 100

type Request struct {
	CallerName  string
	CallerPhone string
	Reason      string

	// CallID is optional and defaults to the literal "unknown", which also
	// disables the post-send record mark.
	CallID string

	// Timestamp of the originating record, needed to address its composite
	// key. Optional; when absent the mark finds nothing and is dropped.
	Timestamp string
}

type Result struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
}

// Dispatcher formats and sends owner alerts.
//
// The publish is the operation's primary contract. Marking the record as
// notified afterwards is best-effort: any failure there is logged and
// discarded, because the alert already went out.
type Dispatcher struct {
	pub     Publisher
	records RecordMarker
	clock   func() time.Time
}

func NewDispatcher(pub Publisher, records RecordMarker) *Dispatcher {
	return &Dispatcher{pub: pub, records: records, clock: time.Now}
}

func (d *Dispatcher) Send(ctx context.Context, req Request) (Result, error) {
	if req.CallerName == "" {
		return Result{}, fmt.Errorf("%w: caller_name", ErrMissingField)
	}
	if req.CallerPhone == "" {
		return Result{}, fmt.Errorf("%w: caller_phone", ErrMissingField)
	}
	if req.Reason == "" {
		return Result{}, fmt.Errorf("%w: reason", ErrMissingField)
	}

	callID := req.CallID
	if callID == "" {
		callID = "unknown"
	}

	subject := truncate("Missed Call from "+req.CallerName, maxSubjectLen)
	message := fmt.Sprintf(
		"You have a new message from a caller.\n\n"+
			"--- Call Details ---\n"+
			"Caller Name: %s\n"+
			"Phone Number: %s\n"+
			"Reason/Message: %s\n"+
			"Call ID: %s\n"+
			"Time: %s\n"+
			"---\n\n"+
			"This message was recorded by your automated caller agent.",
		req.CallerName,
		req.CallerPhone,
		req.Reason,
		callID,
		d.clock().UTC().Format("2006-01-02 15:04:05 UTC"),
	)

	msgID, err := d.pub.Publish(ctx, subject, message)
	if err != nil {
		return Result{}, err
	}

	if callID != "unknown" {
		if err := d.records.MarkNotificationSent(ctx, callID, req.Timestamp); err != nil {
			// Non-critical; the notification was already delivered.
			logger.From(ctx).Warn("notification_sent mark failed",
				"call_id", callID, "err", err)
		}
	}

	return Result{Success: true, MessageID: msgID}, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
