package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"caller-agent/internal/callrecords"
	"caller-agent/internal/notify"
	"caller-agent/internal/phoneintel"
)

// PhoneIntel is the phone-validation surface the router needs.
type PhoneIntel interface {
	CheckSpam(ctx context.Context, phoneNumber string) (phoneintel.SpamVerdict, error)
	CallerInfo(ctx context.Context, phoneNumber string) (phoneintel.CallerInfo, error)
}

// RecordSaver persists call records.
type RecordSaver interface {
	Save(ctx context.Context, req callrecords.SaveRequest) (callrecords.SaveResult, error)
}

// Notifier sends owner alerts.
type Notifier interface {
	Send(ctx context.Context, req notify.Request) (notify.Result, error)
}

// Router dispatches action invocations to the four operations. It holds no
// per-request state; each Dispatch is independent.
//
// Error contract: an error returned from Dispatch is an infrastructure
// failure (missing required fields, credential failure, store/channel
// outage) and aborts the invocation at the transport layer. Everything
// else, including unknown routes, is reported as data inside a 200
// envelope, because the consuming agent only understands that shape.
type Router struct {
	phones   PhoneIntel
	records  RecordSaver
	notifier Notifier
}

func NewRouter(phones PhoneIntel, records RecordSaver, notifier Notifier) *Router {
	return &Router{phones: phones, records: records, notifier: notifier}
}

func (r *Router) Dispatch(ctx context.Context, inv Invocation) (Response, error) {
	method := strings.ToUpper(inv.HTTPMethod)
	path := inv.APIPath

	var result any
	var err error

	// First match wins; prefix routes carry the phone number as a path
	// parameter, exact routes carry a structured body.
	switch {
	case method == http.MethodGet && strings.HasPrefix(path, "/check-spam/"):
		result, err = r.phones.CheckSpam(ctx, inv.PathParameter("phoneNumber"))

	case method == http.MethodGet && strings.HasPrefix(path, "/caller-info/"):
		result, err = r.phones.CallerInfo(ctx, inv.PathParameter("phoneNumber"))

	case method == http.MethodPost && path == "/call-record":
		body := inv.Body()
		result, err = r.records.Save(ctx, callrecords.SaveRequest{
			CallID:      body.String("call_id"),
			CallerName:  body.String("caller_name"),
			CallerPhone: body.String("caller_phone"),
			Reason:      body.String("reason"),
			IsSpam:      body.Bool("is_spam"),
		})

	case method == http.MethodPost && path == "/notification":
		body := inv.Body()
		result, err = r.notifier.Send(ctx, notify.Request{
			CallerName:  body.String("caller_name"),
			CallerPhone: body.String("caller_phone"),
			Reason:      body.String("reason"),
			CallID:      body.String("call_id"),
			Timestamp:   body.String("timestamp"),
		})

	default:
		result = map[string]string{
			"error": fmt.Sprintf("Unknown action: %s %s", method, path),
		}
	}

	if err != nil {
		return Response{}, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return Response{}, err
	}
	return wrap(inv, method, string(payload)), nil
}

func wrap(inv Invocation, method, body string) Response {
	sess := inv.SessionAttributes
	if sess == nil {
		sess = map[string]string{}
	}
	prompt := inv.PromptSessionAttributes
	if prompt == nil {
		prompt = map[string]string{}
	}

	return Response{
		MessageVersion: "1.0",
		Response: ResponseDetails{
			ActionGroup:    inv.ActionGroup,
			APIPath:        inv.APIPath,
			HTTPMethod:     method,
			HTTPStatusCode: http.StatusOK,
			ResponseBody: map[string]ResponseContent{
				"application/json": {Body: body},
			},
		},
		SessionAttributes:       sess,
		PromptSessionAttributes: prompt,
	}
}
