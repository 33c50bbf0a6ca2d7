package callrecords

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
)

// schemaSQL is embedded so the service can self-bootstrap its table.
//
//go:embed schema.sql
var schemaSQL string

// Store is the Postgres-backed Repository.
//
// The table name comes from configuration (validated upstream as a plain
// identifier) and is interpolated once at construction; all row values go
// through placeholders.
type Store struct {
	db    *sql.DB
	table string

	putQ     string
	markQ    string
	recentQ  string
	byPhoneQ string
}

func NewStore(db *sql.DB, table string) *Store {
	s := &Store{db: db, table: table}

	s.putQ = fmt.Sprintf(`
INSERT INTO %s (call_id, "timestamp", caller_name, caller_phone, reason, is_spam, call_status, notification_sent)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (call_id, "timestamp")
DO UPDATE SET caller_name = EXCLUDED.caller_name,
              caller_phone = EXCLUDED.caller_phone,
              reason = EXCLUDED.reason,
              is_spam = EXCLUDED.is_spam,
              call_status = EXCLUDED.call_status,
              notification_sent = EXCLUDED.notification_sent
`, table)

	s.markQ = fmt.Sprintf(`
UPDATE %s SET notification_sent = TRUE
WHERE call_id = $1 AND "timestamp" = $2
`, table)

	const cols = `call_id, "timestamp", caller_name, caller_phone, reason, is_spam, call_status, notification_sent`

	s.recentQ = fmt.Sprintf(`
SELECT %s FROM %s
ORDER BY "timestamp" DESC
LIMIT $1
`, cols, table)

	s.byPhoneQ = fmt.Sprintf(`
SELECT %s FROM %s
WHERE caller_phone = $1
ORDER BY "timestamp" DESC
LIMIT $2
`, cols, table)

	return s
}

// EnsureSchema applies schema.sql for the configured table.
// Safe to run multiple times.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := strings.ReplaceAll(schemaSQL, "__TABLE__", s.table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema for %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, rec CallRecord) error {
	_, err := s.db.ExecContext(ctx, s.putQ,
		rec.CallID,
		rec.Timestamp,
		rec.CallerName,
		rec.CallerPhone,
		rec.Reason,
		rec.IsSpam,
		rec.CallStatus,
		rec.NotificationSent,
	)
	return err
}

func (s *Store) MarkNotificationSent(ctx context.Context, callID, timestamp string) error {
	res, err := s.db.ExecContext(ctx, s.markQ, callID, timestamp)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.recentQ, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Store) ListByPhone(ctx context.Context, callerPhone string, limit int) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.byPhoneQ, callerPhone, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]CallRecord, error) {
	var out []CallRecord
	for rows.Next() {
		var r CallRecord
		if err := rows.Scan(
			&r.CallID,
			&r.Timestamp,
			&r.CallerName,
			&r.CallerPhone,
			&r.Reason,
			&r.IsSpam,
			&r.CallStatus,
			&r.NotificationSent,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
