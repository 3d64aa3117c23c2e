package migration

import (
	"fmt"
	"time"
)

// Mode is the idempotency policy of a step.
type Mode int

const (
	// ModeNative steps are idempotent by themselves (IF NOT EXISTS). Every
	// error they produce is fatal.
	ModeNative Mode = iota
	// ModeTolerateDuplicate steps are not idempotent; a duplicate column or
	// duplicate object error means the step was already applied.
	ModeTolerateDuplicate
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case ModeNative:
		return "native_if_not_exists"
	case ModeTolerateDuplicate:
		return "tolerate_duplicate_error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode parses the string form produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "native_if_not_exists", "native":
		return ModeNative, nil
	case "tolerate_duplicate_error", "tolerate":
		return ModeTolerateDuplicate, nil
	default:
		return 0, fmt.Errorf("unknown idempotency mode: %q", s)
	}
}

// Step is one ordered schema change.
type Step struct {
	Statement   string `json:"statement"`
	Mode        Mode   `json:"mode"`
	Description string `json:"description"`
}

// SkippedAlreadyExists is the skip reason recorded for tolerated duplicates.
const SkippedAlreadyExists = "already exists"

// Result is the outcome of applying one step.
type Result struct {
	Step          Step          `json:"step"`
	Applied       bool          `json:"applied"`
	SkippedReason string        `json:"skipped_reason,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
}

// Skipped reports whether the step was tolerated as already applied.
func (r Result) Skipped() bool {
	return !r.Applied && r.SkippedReason != ""
}

// Report is the outcome of one run.
type Report struct {
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Results    []Result  `json:"results"`
	Error      string    `json:"error,omitempty"`
}

// AppliedCount returns the number of steps that changed the schema.
func (r *Report) AppliedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Applied {
			n++
		}
	}
	return n
}

// SkippedCount returns the number of tolerated steps.
func (r *Report) SkippedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Skipped() {
			n++
		}
	}
	return n
}
