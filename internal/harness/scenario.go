package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config overrides the default session configuration.
	Config ConfigOverrides `yaml:"config,omitempty"`

	// Start is the first clock reading. Defaults to DefaultStart.
	Start *time.Time `yaml:"start,omitempty"`

	// Files seeds the virtual directory listing. Save and backup steps
	// append to it.
	Files []string `yaml:"files,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final history.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ConfigOverrides are the configuration knobs a scenario may change.
type ConfigOverrides struct {
	CaseInsensitive   *bool  `yaml:"case_insensitive,omitempty"`
	MaxAttempts       int    `yaml:"max_attempts,omitempty"`
	InitialToken      string `yaml:"initial_token,omitempty"`
	DefaultExtension  string `yaml:"default_extension,omitempty"`
	AppendWhenMissing *bool  `yaml:"append_when_missing,omitempty"`
	LineageScope      string `yaml:"lineage_scope,omitempty"`
}

// Step is one operation against the session.
type Step struct {
	Op   string `yaml:"op"`
	Path string `yaml:"path,omitempty"`

	// Kind is the event kind for record steps.
	Kind string `yaml:"kind,omitempty"`

	// Note is attached by save, backup, record and note steps.
	Note string `yaml:"note,omitempty"`

	// At fixes the timestamp of a record step.
	At *time.Time `yaml:"at,omitempty"`

	// Event is the target of a note step.
	Event string `yaml:"event,omitempty"`

	// Expect is checked after the step. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes a step's outcome. Only set fields are compared.
type Expect struct {
	Name    string `yaml:"name,omitempty"`
	Lineage string `yaml:"lineage,omitempty"`
	Event   string `yaml:"event,omitempty"`

	// Error is the expected error class (see ErrorClass). When set the
	// step must fail with it.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final history.
type Assertion struct {
	Type    string   `yaml:"type"`
	Lineage string   `yaml:"lineage,omitempty"`
	Count   int      `yaml:"count,omitempty"`
	Files   []string `yaml:"files,omitempty"`
	Event   string   `yaml:"event,omitempty"`
	Note    string   `yaml:"note,omitempty"`
}

// Operation names.
const (
	OpNext   = "next"
	OpSave   = "save"
	OpBackup = "backup"
	OpRecord = "record"
	OpNote   = "note"
)

var validOps = []string{OpNext, OpSave, OpBackup, OpRecord, OpNote}

// Assertion type constants.
const (
	AssertHistoryCount = "history_count"
	AssertHistoryFiles = "history_files"
	AssertRecentFiles  = "recent_files"
	AssertEventNote    = "event_note"
	AssertLineageCount = "lineage_count"
)

var validAssertions = []string{
	AssertHistoryCount, AssertHistoryFiles, AssertRecentFiles, AssertEventNote, AssertLineageCount,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if !slices.Contains(validOps, step.Op) {
			return fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}
		switch step.Op {
		case OpNote:
			if step.Event == "" {
				return fmt.Errorf("step %d: note requires event", i)
			}
		case OpRecord:
			if step.Kind == "" {
				return fmt.Errorf("step %d: record requires kind", i)
			}
			fallthrough
		default:
			if step.Path == "" {
				return fmt.Errorf("step %d: %s requires path", i, step.Op)
			}
		}
	}

	for i, a := range s.Assertions {
		if !slices.Contains(validAssertions, a.Type) {
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}
