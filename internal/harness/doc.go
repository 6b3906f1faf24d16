// Package harness runs saveplus scenarios as executable contract tests.
//
// A scenario starts from a virtual directory listing, drives a Session
// through a sequence of steps, and checks the resulting history. Nothing is
// written to disk except the scenario's own SQLite database; save and backup
// steps add their new names to the listing instead of copying files.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config:
//	  case_insensitive: true
//	  lineage_scope: directory
//	files:
//	  - scenes/shot01.ma
//	steps:
//	  - op: save
//	    path: scenes/shot01.ma
//	    note: blocking pass
//	    expect:
//	      name: scenes/shot02.ma
//	      lineage: shot.ma
//	  - op: note
//	    event: evt-1
//	    note: approved
//	assertions:
//	  - type: history_files
//	    lineage: shot.ma
//	    files: [shot02.ma]
//
// # Operations
//
//   - next: propose a name, listing unchanged
//   - save: propose a name, add it to the listing, record save_plus
//   - backup: add the backup name to the listing, record backup
//   - record: append an event of the given kind, optionally at a fixed time
//   - note: attach a note to an event id
//
// # Assertion Types
//
//   - history_count: a lineage holds exactly N events
//   - history_files: a lineage's file names, oldest first
//   - recent_files: the newest N file names across lineages
//   - event_note: an event carries the given note
//   - lineage_count: the number of distinct lineages
//
// # Deterministic Testing
//
// Every run uses testutil.DeterministicClock (one minute per tick from the
// scenario's start time) and testutil.SequenceGenerator ids (evt-1, evt-2,
// ...), so traces compare byte for byte against golden files.
package harness
