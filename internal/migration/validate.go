package migration

import (
	"fmt"
	"regexp"
	"strings"
)

var dangerousKeywords = []struct {
	name  string
	match *regexp.Regexp
}{
	{"DROP DATABASE", regexp.MustCompile(`(?i)\bDROP\s+DATABASE\b`)},
	{"TRUNCATE", regexp.MustCompile(`(?i)\bTRUNCATE\b`)},
}

// Validate checks a step sequence before anything touches the store.
func Validate(steps []Step, allowDangerous bool) error {
	if len(steps) == 0 {
		return ErrNoSteps
	}

	for i, step := range steps {
		if strings.TrimSpace(step.Statement) == "" {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Description, ErrEmptyStatement)
		}
		if step.Mode != ModeNative && step.Mode != ModeTolerateDuplicate {
			return fmt.Errorf("step %d (%s): unknown idempotency mode %d", i+1, step.Description, step.Mode)
		}
		if !allowDangerous {
			for _, keyword := range dangerousKeywords {
				if keyword.match.MatchString(step.Statement) {
					return fmt.Errorf("step %d (%s): %w: %s", i+1, step.Description, ErrDangerousStatement, keyword.name)
				}
			}
		}
	}

	return checkOrder(steps)
}

// checkOrder rejects an index step that covers a column added by a later step.
func checkOrder(steps []Step) error {
	targets := make([]Target, len(steps))
	for i, step := range steps {
		targets[i] = TargetOf(step.Statement)
	}

	for i, idx := range targets {
		if idx.Kind != TargetIndex {
			continue
		}
		for j := i + 1; j < len(targets); j++ {
			col := targets[j]
			if col.Kind != TargetColumn || !sameIdent(col.Table, idx.Table) {
				continue
			}
			for _, c := range idx.Columns {
				if sameIdent(c, col.Column) {
					return fmt.Errorf("step %d (%s) runs before step %d (%s): %w",
						i+1, steps[i].Description, j+1, steps[j].Description, ErrOutOfOrder)
				}
			}
		}
	}
	return nil
}
