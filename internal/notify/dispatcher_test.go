package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakePublisher struct {
	subject string
	message string
	err     error
	calls   int
}

func (f *fakePublisher) Publish(ctx context.Context, subject, message string) (string, error) {
	f.calls++
	f.subject = subject
	f.message = message
	if f.err != nil {
		return "", f.err
	}
	return "1700000000000-0", nil
}

type fakeMarker struct {
	callID    string
	timestamp string
	err       error
	calls     int
}

func (f *fakeMarker) MarkNotificationSent(ctx context.Context, callID, timestamp string) error {
	f.calls++
	f.callID = callID
	f.timestamp = timestamp
	return f.err
}

func newTestDispatcher(pub *fakePublisher, marker *fakeMarker) *Dispatcher {
	d := NewDispatcher(pub, marker)
	d.clock = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

func validRequest() Request {
	return Request{
		CallerName:  "Bob",
		CallerPhone: "555",
		Reason:      "hi",
		CallID:      "abc",
		Timestamp:   "2025-06-01T11:59:00Z",
	}
}

func TestSend_PublishesAndMarksRecord(t *testing.T) {
	pub := &fakePublisher{}
	marker := &fakeMarker{}
	d := newTestDispatcher(pub, marker)

	res, err := d.Send(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !res.Success || res.MessageID == "" {
		t.Fatalf("expected success with message id, got %+v", res)
	}

	if pub.subject != "Missed Call from Bob" {
		t.Fatalf("unexpected subject %q", pub.subject)
	}
	for _, want := range []string{"Caller Name: Bob", "Phone Number: 555", "Reason/Message: hi", "Call ID: abc", "2025-06-01 12:00:00 UTC"} {
		if !strings.Contains(pub.message, want) {
			t.Fatalf("message missing %q:\n%s", want, pub.message)
		}
	}

	if marker.calls != 1 || marker.callID != "abc" || marker.timestamp != "2025-06-01T11:59:00Z" {
		t.Fatalf("expected record mark with composite key, got %+v", marker)
	}
}

func TestSend_TruncatesSubjectTo100(t *testing.T) {
	pub := &fakePublisher{}
	d := newTestDispatcher(pub, &fakeMarker{})

	req := validRequest()
	req.CallerName = strings.Repeat("x", 200)
	if _, err := d.Send(context.Background(), req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := len([]rune(pub.subject)); got != 100 {
		t.Fatalf("expected subject truncated to exactly 100 chars, got %d", got)
	}
}

func TestSend_MissingCallIDSkipsMark(t *testing.T) {
	marker := &fakeMarker{}
	d := newTestDispatcher(&fakePublisher{}, marker)

	req := validRequest()
	req.CallID = ""
	res, err := d.Send(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success")
	}
	if marker.calls != 0 {
		t.Fatalf("must not mark a record for call_id unknown")
	}
}

func TestSend_MarkFailureIsSwallowed(t *testing.T) {
	marker := &fakeMarker{err: errors.New("record not found")}
	d := newTestDispatcher(&fakePublisher{}, marker)

	res, err := d.Send(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("mark failure must not surface, got %v", err)
	}
	if !res.Success || res.MessageID == "" {
		t.Fatalf("notification already sent; expected success, got %+v", res)
	}
	if marker.calls != 1 {
		t.Fatalf("expected mark attempt")
	}
}

func TestSend_PublishFailurePropagates(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel down")}
	marker := &fakeMarker{}
	d := newTestDispatcher(pub, marker)

	if _, err := d.Send(context.Background(), validRequest()); err == nil {
		t.Fatalf("expected publish failure to propagate")
	}
	if marker.calls != 0 {
		t.Fatalf("must not mark when publish failed")
	}
}

func TestSend_MissingRequiredFieldPropagates(t *testing.T) {
	d := newTestDispatcher(&fakePublisher{}, &fakeMarker{})

	cases := []Request{
		{CallerPhone: "555", Reason: "hi"},
		{CallerName: "Bob", Reason: "hi"},
		{CallerName: "Bob", CallerPhone: "555"},
	}
	for _, req := range cases {
		if _, err := d.Send(context.Background(), req); !errors.Is(err, ErrMissingField) {
			t.Fatalf("expected ErrMissingField for %+v, got %v", req, err)
		}
	}
}
