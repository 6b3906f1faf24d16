package history

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"
)

const selectEvent = `
	SELECT seq, id, lineage_key, file_name, path, timestamp_ns, kind, note
	FROM events`

// HistoryFor yields the events of one lineage, oldest first
// (timestamp ASC, seq ASC).
//
// The sequence is lazy and restartable: nothing is read until it is ranged
// over, and each range takes a fresh snapshot of the log, so it observes
// either the state before a concurrent append or the state after it.
// An unknown lineage yields nothing. A query failure is yielded once as a
// *PersistenceError.
func (s *Store) HistoryFor(ctx context.Context, lineageKey string) iter.Seq2[Event, error] {
	return s.snapshot(ctx, "history", selectEvent+`
		WHERE lineage_key = ?
		ORDER BY timestamp_ns ASC, seq ASC
	`, lineageKey)
}

// Recent yields up to limit events across all lineages, newest first.
// limit <= 0 yields nothing.
func (s *Store) Recent(ctx context.Context, limit int) iter.Seq2[Event, error] {
	if limit <= 0 {
		return func(func(Event, error) bool) {}
	}
	return s.snapshot(ctx, "recent", selectEvent+`
		ORDER BY timestamp_ns DESC, seq DESC
		LIMIT ?
	`, limit)
}

// All yields every event grouped by lineage key, each lineage oldest first.
func (s *Store) All(ctx context.Context) iter.Seq2[Event, error] {
	return s.snapshot(ctx, "all", selectEvent+`
		ORDER BY lineage_key COLLATE BINARY ASC, timestamp_ns ASC, seq ASC
	`)
}

// Lineages summarizes every lineage, most recently touched first.
func (s *Store) Lineages(ctx context.Context) ([]LineageSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.lineage_key, g.n, e.file_name, e.timestamp_ns
		FROM events e
		JOIN (
			SELECT lineage_key, COUNT(*) AS n, MAX(seq) AS last_seq
			FROM events
			GROUP BY lineage_key
		) g ON e.seq = g.last_seq
		ORDER BY e.timestamp_ns DESC, e.lineage_key COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, persistErr("lineages", err)
	}
	defer rows.Close()

	summaries := []LineageSummary{}
	for rows.Next() {
		var sum LineageSummary
		var ns int64
		if err := rows.Scan(&sum.Key, &sum.Events, &sum.LatestFile, &ns); err != nil {
			return nil, persistErr("lineages: scan", err)
		}
		sum.LatestAt = fromNanos(ns)
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("lineages: iterate", err)
	}
	return summaries, nil
}

// Collect drains seq into a slice, stopping at the first error.
// Returns an empty slice (not nil) when seq yields nothing.
func Collect(seq iter.Seq2[Event, error]) ([]Event, error) {
	events := []Event{}
	for ev, err := range seq {
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// snapshot runs query once per range and yields the materialized rows.
// Reading everything before yielding releases the connection, so callers
// may append while ranging.
func (s *Store) snapshot(ctx context.Context, op, query string, args ...any) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		events, err := s.query(ctx, query, args...)
		if err != nil {
			yield(Event{}, persistErr(op, err))
			return
		}
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(rows *sql.Rows) (Event, error) {
	ev, err := scanInto(rows)
	if err != nil {
		return Event{}, fmt.Errorf("scan event: %w", err)
	}
	return ev, nil
}

func scanEventRow(row *sql.Row) (Event, error) {
	return scanInto(row)
}

func scanInto(r rowScanner) (Event, error) {
	var ev Event
	var id, kind string
	var ns int64
	if err := r.Scan(&ev.Seq, &id, &ev.LineageKey, &ev.FileName, &ev.Path, &ns, &kind, &ev.Note); err != nil {
		return Event{}, err
	}
	ev.ID = EventID(id)
	ev.Kind = Kind(kind)
	ev.Timestamp = fromNanos(ns)
	return ev, nil
}

func fromNanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
