package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"caller-agent/internal/callrecords"
	"caller-agent/internal/notify"
	"caller-agent/internal/phoneintel"
)

type fakePhones struct {
	spamNumber string
	infoNumber string
	err        error
}

func (f *fakePhones) CheckSpam(ctx context.Context, n string) (phoneintel.SpamVerdict, error) {
	f.spamNumber = n
	return phoneintel.SpamVerdict{IsValid: true, LineType: "mobile", Carrier: "ACME", Country: "US"}, f.err
}

func (f *fakePhones) CallerInfo(ctx context.Context, n string) (phoneintel.CallerInfo, error) {
	f.infoNumber = n
	return phoneintel.CallerInfo{Valid: true, LineType: "mobile"}, f.err
}

type fakeSaver struct {
	req callrecords.SaveRequest
	err error
}

func (f *fakeSaver) Save(ctx context.Context, req callrecords.SaveRequest) (callrecords.SaveResult, error) {
	f.req = req
	if f.err != nil {
		return callrecords.SaveResult{}, f.err
	}
	return callrecords.SaveResult{Success: true, CallID: "generated-id"}, nil
}

type fakeNotifier struct {
	req notify.Request
	err error
}

func (f *fakeNotifier) Send(ctx context.Context, req notify.Request) (notify.Result, error) {
	f.req = req
	if f.err != nil {
		return notify.Result{}, f.err
	}
	return notify.Result{Success: true, MessageID: "m-1"}, nil
}

func newTestRouter() (*Router, *fakePhones, *fakeSaver, *fakeNotifier) {
	phones := &fakePhones{}
	saver := &fakeSaver{}
	notifier := &fakeNotifier{}
	return NewRouter(phones, saver, notifier), phones, saver, notifier
}

func resultBody(t *testing.T, resp Response) map[string]any {
	t.Helper()
	raw := resp.Response.ResponseBody["application/json"].Body
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("result body is not JSON: %v (%q)", err, raw)
	}
	return out
}

func TestDispatch_CheckSpamRoute(t *testing.T) {
	r, phones, _, _ := newTestRouter()

	resp, err := r.Dispatch(context.Background(), Invocation{
		ActionGroup: "CallerManagementActions",
		APIPath:     "/check-spam/5551234567",
		HTTPMethod:  "GET",
		Parameters:  []Parameter{{Name: "phoneNumber", Value: "5551234567"}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if phones.spamNumber != "5551234567" {
		t.Fatalf("expected phone number from parameters, got %q", phones.spamNumber)
	}

	if resp.MessageVersion != "1.0" {
		t.Fatalf("expected message version 1.0")
	}
	if resp.Response.HTTPStatusCode != http.StatusOK {
		t.Fatalf("status code must be 200, got %d", resp.Response.HTTPStatusCode)
	}
	if resp.Response.ActionGroup != "CallerManagementActions" || resp.Response.APIPath != "/check-spam/5551234567" {
		t.Fatalf("envelope must echo request routing fields")
	}

	body := resultBody(t, resp)
	if body["is_spam"] != false || body["is_valid"] != true {
		t.Fatalf("unexpected verdict body: %v", body)
	}
}

func TestDispatch_MethodIsCaseInsensitive(t *testing.T) {
	r, phones, _, _ := newTestRouter()

	resp, err := r.Dispatch(context.Background(), Invocation{
		APIPath:    "/caller-info/555",
		HTTPMethod: "get",
		Parameters: []Parameter{{Name: "phoneNumber", Value: "555"}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if phones.infoNumber != "555" {
		t.Fatalf("expected caller-info dispatch for lowercase method")
	}
	if resp.Response.HTTPMethod != "GET" {
		t.Fatalf("method must be normalized upper, got %q", resp.Response.HTTPMethod)
	}
}

func TestDispatch_CallRecordRouteCoercesBody(t *testing.T) {
	r, _, saver, _ := newTestRouter()

	resp, err := r.Dispatch(context.Background(), Invocation{
		APIPath:    "/call-record",
		HTTPMethod: "POST",
		RequestBody: RequestBody{Content: map[string]Content{
			"application/json": {Properties: []Parameter{
				{Name: "caller_name", Value: "A"},
				{Name: "caller_phone", Value: "123"},
				{Name: "reason", Value: "test"},
				{Name: "is_spam", Value: "true"},
			}},
		}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if saver.req.CallerName != "A" || saver.req.CallerPhone != "123" || saver.req.Reason != "test" {
		t.Fatalf("unexpected save request: %+v", saver.req)
	}
	if !saver.req.IsSpam {
		t.Fatalf("string \"true\" must coerce to boolean true")
	}

	body := resultBody(t, resp)
	if body["success"] != true || body["call_id"] != "generated-id" {
		t.Fatalf("unexpected save body: %v", body)
	}
}

func TestDispatch_NotificationRoute(t *testing.T) {
	r, _, _, notifier := newTestRouter()

	_, err := r.Dispatch(context.Background(), Invocation{
		APIPath:    "/notification",
		HTTPMethod: "POST",
		RequestBody: RequestBody{Content: map[string]Content{
			"application/json": {Properties: []Parameter{
				{Name: "caller_name", Value: "Bob"},
				{Name: "caller_phone", Value: "555"},
				{Name: "reason", Value: "hi"},
				{Name: "call_id", Value: "abc"},
				{Name: "timestamp", Value: "2025-06-01T11:59:00Z"},
			}},
		}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if notifier.req.CallID != "abc" || notifier.req.Timestamp != "2025-06-01T11:59:00Z" {
		t.Fatalf("unexpected notify request: %+v", notifier.req)
	}
}

func TestDispatch_UnknownRouteIsDataNotError(t *testing.T) {
	r, _, _, _ := newTestRouter()

	resp, err := r.Dispatch(context.Background(), Invocation{
		APIPath:    "/call-record",
		HTTPMethod: "DELETE",
	})
	if err != nil {
		t.Fatalf("unknown routes must not error, got %v", err)
	}
	if resp.Response.HTTPStatusCode != http.StatusOK {
		t.Fatalf("unknown routes still answer 200, got %d", resp.Response.HTTPStatusCode)
	}

	body := resultBody(t, resp)
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, "Unknown action: DELETE /call-record") {
		t.Fatalf("expected unknown-action error, got %q", msg)
	}
}

func TestDispatch_ExactMatchRejectsSubpaths(t *testing.T) {
	r, _, saver, _ := newTestRouter()

	resp, err := r.Dispatch(context.Background(), Invocation{
		APIPath:    "/call-record/extra",
		HTTPMethod: "POST",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if saver.req.CallerName != "" {
		t.Fatalf("subpath must not dispatch to save")
	}
	if _, ok := resultBody(t, resp)["error"]; !ok {
		t.Fatalf("expected error body for subpath")
	}
}

func TestDispatch_ValidationFailurePropagates(t *testing.T) {
	r, _, saver, _ := newTestRouter()
	saver.err = errors.New("callrecords: missing required field: caller_name")

	_, err := r.Dispatch(context.Background(), Invocation{
		APIPath:    "/call-record",
		HTTPMethod: "POST",
	})
	if err == nil {
		t.Fatalf("expected propagated validation failure")
	}
}

func TestDispatch_SessionAttributesEchoWithEmptyDefaults(t *testing.T) {
	r, _, _, _ := newTestRouter()

	resp, err := r.Dispatch(context.Background(), Invocation{
		APIPath:    "/nope",
		HTTPMethod: "GET",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.SessionAttributes == nil || resp.PromptSessionAttributes == nil {
		t.Fatalf("absent attribute maps must default to empty maps")
	}

	resp, err = r.Dispatch(context.Background(), Invocation{
		APIPath:           "/nope",
		HTTPMethod:        "GET",
		SessionAttributes: map[string]string{"caller": "abc"},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.SessionAttributes["caller"] != "abc" {
		t.Fatalf("session attributes must pass through")
	}
}
