package callrecords

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMissingField is a propagated validation failure: the invocation is
	// malformed and must surface as an infrastructure error, not as a 200.
	ErrMissingField = errors.New("callrecords: missing required field")

	ErrNotFound = errors.New("callrecords: not found")
)

// Repository is the persistence contract for call records.
type Repository interface {
	// Put writes unconditionally; last write on the same (call_id, timestamp)
	// wins.
	Put(ctx context.Context, rec CallRecord) error

	// MarkNotificationSent sets notification_sent=true on an existing record.
	// Returns ErrNotFound when no such (call_id, timestamp) row exists.
	MarkNotificationSent(ctx context.Context, callID, timestamp string) error

	ListRecent(ctx context.Context, limit int) ([]CallRecord, error)
	ListByPhone(ctx context.Context, callerPhone string, limit int) ([]CallRecord, error)
}

// Service validates inputs and assigns write-time identity
// (call_id, timestamp) before persisting.
type Service struct {
	repo Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

type SaveRequest struct {
	// CallID is optional; a fresh identifier is generated when absent.
	CallID string

	CallerName  string
	CallerPhone string
	Reason      string

	IsSpam bool
}

type SaveResult struct {
	Success bool   `json:"success"`
	CallID  string `json:"call_id"`
}

func (s *Service) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	if req.CallerName == "" {
		return SaveResult{}, fmt.Errorf("%w: caller_name", ErrMissingField)
	}
	if req.CallerPhone == "" {
		return SaveResult{}, fmt.Errorf("%w: caller_phone", ErrMissingField)
	}
	if req.Reason == "" {
		return SaveResult{}, fmt.Errorf("%w: reason", ErrMissingField)
	}

	callID := req.CallID
	if callID == "" {
		callID = uuid.NewString()
	}
	timestamp := s.clock().UTC().Format(time.RFC3339Nano)

	rec := CallRecord{
		CallID:           callID,
		Timestamp:        timestamp,
		CallerName:       req.CallerName,
		CallerPhone:      req.CallerPhone,
		Reason:           req.Reason,
		IsSpam:           req.IsSpam,
		CallStatus:       StatusFor(req.IsSpam),
		NotificationSent: false,
	}
	if err := s.repo.Put(ctx, rec); err != nil {
		return SaveResult{}, err
	}

	return SaveResult{Success: true, CallID: callID}, nil
}

// MarkNotificationSent flips notification_sent on an existing record.
// Callers treating this as best-effort (the notification dispatcher) are
// expected to log and discard the error.
func (s *Service) MarkNotificationSent(ctx context.Context, callID, timestamp string) error {
	return s.repo.MarkNotificationSent(ctx, callID, timestamp)
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]CallRecord, error) {
	return s.repo.ListRecent(ctx, clampLimit(limit))
}

func (s *Service) ListByPhone(ctx context.Context, callerPhone string, limit int) ([]CallRecord, error) {
	if callerPhone == "" {
		return nil, fmt.Errorf("%w: caller_phone", ErrMissingField)
	}
	return s.repo.ListByPhone(ctx, callerPhone, clampLimit(limit))
}
