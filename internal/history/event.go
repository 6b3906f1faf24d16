package history

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind is the action that produced an event.
type Kind string

const (
	KindSavePlus  Kind = "save_plus"
	KindSaveAsNew Kind = "save_as_new"
	KindBackup    Kind = "backup"
	KindManual    Kind = "manual"
)

// Kinds lists every valid kind in display order.
var Kinds = []Kind{KindSavePlus, KindSaveAsNew, KindBackup, KindManual}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind converts a user-supplied string to a Kind. Dashes are accepted
// in place of underscores ("save-plus").
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, s)
	}
	return k, nil
}

// EventID identifies one event. Ids are UUIDv7 strings unless the store was
// opened with a different generator.
type EventID string

// Event is one save, backup or manual record.
type Event struct {
	ID         EventID   `json:"id" yaml:"id"`
	Seq        int64     `json:"seq" yaml:"seq"`
	LineageKey string    `json:"lineage_key" yaml:"lineage_key"`
	FileName   string    `json:"file_name" yaml:"file_name"`
	Path       string    `json:"path,omitempty" yaml:"path,omitempty"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Kind       Kind      `json:"kind" yaml:"kind"`
	Note       string    `json:"note,omitempty" yaml:"note,omitempty"`
}

// Timestamps are stored as Unix nanoseconds, which bounds the range the log
// can hold.
var (
	MinTimestamp = time.Unix(0, math.MinInt64).UTC()
	MaxTimestamp = time.Unix(0, math.MaxInt64).UTC()
)

func (e Event) validate() error {
	if e.LineageKey == "" {
		return fmt.Errorf("%w: lineage key is empty", ErrInvalidEvent)
	}
	if e.FileName == "" {
		return fmt.Errorf("%w: file name is empty", ErrInvalidEvent)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is zero", ErrInvalidEvent)
	}
	if e.Timestamp.Before(MinTimestamp) || e.Timestamp.After(MaxTimestamp) {
		return fmt.Errorf("%w: timestamp %s outside %d-%d",
			ErrInvalidEvent, e.Timestamp.UTC().Format(time.RFC3339), MinTimestamp.Year(), MaxTimestamp.Year())
	}
	return nil
}

// LineageSummary describes one lineage without loading its events.
type LineageSummary struct {
	Key        string    `json:"key" yaml:"key"`
	Events     int       `json:"events" yaml:"events"`
	LatestFile string    `json:"latest_file" yaml:"latest_file"`
	LatestAt   time.Time `json:"latest_at" yaml:"latest_at"`
}
