package journal

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists events in the onboarding_events table.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// BatchInsert writes events with a single multi-row INSERT. It is a no-op
// for an empty slice.
func (s *Store) BatchInsert(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	const cols = 6
	args := make([]any, 0, len(events)*cols)
	rows := make([]string, 0, len(events))

	for i, e := range events {
		base := i * cols
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, e.SessionID, e.From, e.To, e.Event, e.Error, e.At)
	}

	query := `INSERT INTO onboarding_events
		(session_id, from_state, to_state, event, error, occurred_at)
		VALUES ` + strings.Join(rows, ", ")

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("batch inserting onboarding events: %w", err)
	}
	return nil
}

// List returns a page of events, newest first, and the cursor of the next
// page (empty when there is none).
func (s *Store) List(ctx context.Context, q Query) ([]Event, string, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	where, args := buildWhereClause(q)
	if q.Cursor != "" {
		ts, id, err := decodeCursor(q.Cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", err)
		}
		if where == "" {
			where = " WHERE"
		} else {
			where += " AND"
		}
		n := len(args)
		where += fmt.Sprintf(" (occurred_at, id) < ($%d, $%d)", n+1, n+2)
		args = append(args, ts, id)
	}

	query := `SELECT id, session_id, from_state, to_state, event, error, occurred_at
	FROM onboarding_events` + where +
		` ORDER BY occurred_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit+1)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("listing onboarding events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.SessionID, &e.From, &e.To, &e.Event, &e.Error, &e.At); err != nil {
			return nil, "", fmt.Errorf("scanning onboarding event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterating onboarding events: %w", err)
	}

	var next string
	if len(events) > limit {
		last := events[limit-1]
		next = encodeCursor(last.At, last.ID)
		events = events[:limit]
	}
	return events, next, nil
}

// buildWhereClause returns " WHERE ..." and its arguments, or "" and nil.
func buildWhereClause(q Query) (string, []any) {
	var conditions []string
	var args []any

	if q.SessionID != "" {
		args = append(args, q.SessionID)
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if q.Event != "" {
		args = append(args, q.Event)
		conditions = append(conditions, fmt.Sprintf("event = $%d", len(args)))
	}
	if !q.From.IsZero() {
		args = append(args, q.From)
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		conditions = append(conditions, fmt.Sprintf("occurred_at <= $%d", len(args)))
	}
	if q.FailedOnly {
		conditions = append(conditions, "error <> ''")
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func encodeCursor(ts time.Time, id int64) string {
	raw := ts.Format(time.RFC3339Nano) + "|" + strconv.FormatInt(id, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("decoding cursor: %w", err)
	}
	ts, idPart, ok := strings.Cut(string(raw), "|")
	if !ok {
		return time.Time{}, 0, fmt.Errorf("malformed cursor")
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parsing cursor timestamp: %w", err)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parsing cursor id: %w", err)
	}
	return at, id, nil
}
