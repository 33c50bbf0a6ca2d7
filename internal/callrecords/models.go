package callrecords

// CallRecord is one row per received call.
//
// Key invariant: (call_id, timestamp) uniquely identifies a record. The
// timestamp is assigned at write time, so the table is effectively
// append-only and an unconditional put cannot clobber a different call.
//
// call_status is always derived from is_spam at write time; it is never
// mutated independently. notification_sent flips from false to true at most once,
// by the notification dispatcher's best-effort post-send update.
type CallRecord struct {
	CallID      string `json:"call_id" db:"call_id"`
	Timestamp   string `json:"timestamp" db:"timestamp"`
	CallerName  string `json:"caller_name" db:"caller_name"`
	CallerPhone string `json:"caller_phone" db:"caller_phone"`
	Reason      string `json:"reason" db:"reason"`

	IsSpam           bool       `json:"is_spam" db:"is_spam"`
	CallStatus       CallStatus `json:"call_status" db:"call_status"`
	NotificationSent bool       `json:"notification_sent" db:"notification_sent"`
}

type CallStatus string

const (
	CallStatusCompleted   CallStatus = "completed"
	CallStatusSpamBlocked CallStatus = "spam_blocked"
)

// StatusFor derives the record status from the spam flag.
func StatusFor(isSpam bool) CallStatus {
	if isSpam {
		return CallStatusSpamBlocked
	}
	return CallStatusCompleted
}
