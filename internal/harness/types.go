package harness

// TraceEvent records what one step did.
type TraceEvent struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	Path    string `json:"path,omitempty"`
	Name    string `json:"name,omitempty"`
	Lineage string `json:"lineage,omitempty"`
	EventID string `json:"event_id,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Note    string `json:"note,omitempty"`

	// Timestamp is RFC 3339 with nanoseconds so clamped times are visible.
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one entry per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Listing is the virtual directory after the last step.
	Listing []string `json:"listing"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
