package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
)

// Append records ev and returns its id. See Record.
func (s *Store) Append(ctx context.Context, ev Event) (EventID, error) {
	recorded, err := s.Record(ctx, ev)
	if err != nil {
		return "", err
	}
	return recorded.ID, nil
}

// Record validates ev, clamps its timestamp so the lineage stays
// non-decreasing, and writes it in a single transaction. It returns the
// event as stored: id assigned, seq filled in, timestamp possibly moved
// forward.
//
// An empty ev.ID is filled from the id generator. Appending an id that is
// already stored is a no-op returning the existing event, so a host that
// retries after a lost acknowledgement does not duplicate history.
//
// Validation failures return ErrInvalidEvent and touch nothing. Database
// failures return *PersistenceError; the transaction is rolled back and the
// event is not recorded. There are no internal retries; ctx bounds the wait
// for the write lock.
func (s *Store) Record(ctx context.Context, ev Event) (Event, error) {
	if err := ev.validate(); err != nil {
		return Event{}, err
	}
	if ev.ID == "" {
		ev.ID = EventID(s.ids.Generate())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Event{}, persistErr("append: begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	var last sql.NullInt64
	err = tx.QueryRowContext(ctx, `
		SELECT MAX(timestamp_ns) FROM events WHERE lineage_key = ?
	`, ev.LineageKey).Scan(&last)
	if err != nil {
		return Event{}, persistErr("append: read lineage clock", err)
	}

	ts := ev.Timestamp.UnixNano()
	if last.Valid && ts < last.Int64 {
		if last.Int64 == math.MaxInt64 {
			return Event{}, fmt.Errorf("%w: lineage %q has no later timestamp", ErrInvalidEvent, ev.LineageKey)
		}
		// One logical tick past the latest keeps the lineage totally ordered.
		ts = last.Int64 + 1
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO events
		(id, lineage_key, file_name, path, timestamp_ns, kind, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		string(ev.ID),
		ev.LineageKey,
		ev.FileName,
		ev.Path,
		ts,
		string(ev.Kind),
		ev.Note,
	)
	if err != nil {
		return Event{}, persistErr("append: insert", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Event{}, persistErr("append: rows affected", err)
	}

	if rowsAffected == 0 {
		existing, err := scanEventRow(tx.QueryRowContext(ctx, selectEvent+` WHERE id = ?`, string(ev.ID)))
		if err != nil {
			return Event{}, persistErr("append: select existing", err)
		}
		if err := tx.Commit(); err != nil {
			return Event{}, persistErr("append: commit (existing)", err)
		}
		return existing, nil
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return Event{}, persistErr("append: last insert id", err)
	}

	if err := tx.Commit(); err != nil {
		return Event{}, persistErr("append: commit", err)
	}

	ev.Seq = seq
	ev.Timestamp = fromNanos(ts)
	return ev, nil
}

// AttachNote sets the note on an existing event. It is the only mutation
// the log allows. Attaching the same note again is a no-op; attaching a
// different note replaces the previous one.
//
// Returns ErrNotFound if id is unknown.
func (s *Store) AttachNote(ctx context.Context, id EventID, note string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE events SET note = ? WHERE id = ?
	`, note, string(id))
	if err != nil {
		return persistErr("attach note", err)
	}

	// SQLite counts matched rows, so re-attaching an identical note still
	// reports one row.
	n, err := result.RowsAffected()
	if err != nil {
		return persistErr("attach note: rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("attach note %s: %w", id, ErrNotFound)
	}
	return nil
}

// Get returns a single event by id.
// Returns ErrNotFound if it does not exist.
func (s *Store) Get(ctx context.Context, id EventID) (Event, error) {
	ev, err := scanEventRow(s.db.QueryRowContext(ctx, selectEvent+` WHERE id = ?`, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Event{}, persistErr("get", err)
	}
	return ev, nil
}
