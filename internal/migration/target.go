package migration

import (
	"regexp"
	"strings"
)

// TargetKind is the kind of schema object a statement changes.
type TargetKind int

const (
	TargetOther TargetKind = iota
	TargetColumn
	TargetIndex
)

func (k TargetKind) String() string {
	switch k {
	case TargetColumn:
		return "column"
	case TargetIndex:
		return "index"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k TargetKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Target describes the object a statement creates.
type Target struct {
	Kind        TargetKind `json:"kind"`
	Table       string     `json:"table,omitempty"`
	Column      string     `json:"column,omitempty"`
	Index       string     `json:"index,omitempty"`
	Columns     []string   `json:"columns,omitempty"`
	IfNotExists bool       `json:"if_not_exists"`
}

var (
	addColumnRegex = regexp.MustCompile(
		`(?is)^\s*ALTER\s+TABLE\s+(?:IF\s+EXISTS\s+)?([\w."` + "`" + `]+)\s+ADD\s+(?:COLUMN\s+)?(IF\s+NOT\s+EXISTS\s+)?([\w"` + "`" + `]+)`)
	createIndexRegex = regexp.MustCompile(
		`(?is)^\s*CREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:CONCURRENTLY\s+)?(IF\s+NOT\s+EXISTS\s+)?([\w."` + "`" + `]+)\s+ON\s+([\w."` + "`" + `]+)\s*(?:USING\s+\w+\s*)?\(([^)]*)\)`)
	ifNotExistsRegex = regexp.MustCompile(`(?i)\bIF\s+NOT\s+EXISTS\b`)

	// ADD followed by one of these adds a constraint or key, not a column
	tableElementKeywords = map[string]bool{
		"CONSTRAINT": true, "PRIMARY": true, "UNIQUE": true, "FOREIGN": true,
		"CHECK": true, "INDEX": true, "KEY": true,
	}
)

// TargetOf parses the object a statement creates. Statements other than
// ADD COLUMN and CREATE INDEX yield TargetOther.
func TargetOf(statement string) Target {
	if m := addColumnRegex.FindStringSubmatch(statement); m != nil && !tableElementKeywords[strings.ToUpper(m[3])] {
		return Target{
			Kind:        TargetColumn,
			Table:       unquoteIdent(m[1]),
			Column:      unquoteIdent(m[3]),
			IfNotExists: m[2] != "",
		}
	}
	if m := createIndexRegex.FindStringSubmatch(statement); m != nil {
		var cols []string
		for _, c := range strings.Split(m[4], ",") {
			// strip ordering and collation suffixes: "gender DESC"
			fields := strings.Fields(c)
			if len(fields) == 0 {
				continue
			}
			cols = append(cols, unquoteIdent(fields[0]))
		}
		return Target{
			Kind:        TargetIndex,
			Index:       unquoteIdent(m[2]),
			Table:       unquoteIdent(m[3]),
			Columns:     cols,
			IfNotExists: m[1] != "",
		}
	}
	return Target{Kind: TargetOther, IfNotExists: ifNotExistsRegex.MatchString(statement)}
}

// InferMode picks the idempotency policy for a statement: anything guarded by
// IF NOT EXISTS is native, a bare ADD COLUMN tolerates duplicates, and
// everything else gets no tolerance.
func InferMode(statement string) Mode {
	t := TargetOf(statement)
	if t.IfNotExists {
		return ModeNative
	}
	if t.Kind == TargetColumn {
		return ModeTolerateDuplicate
	}
	return ModeNative
}

// Describe generates a short description for a statement.
func Describe(statement string) string {
	t := TargetOf(statement)
	switch t.Kind {
	case TargetColumn:
		return "add column " + t.Table + "." + t.Column
	case TargetIndex:
		return "create index " + t.Index + " on " + t.Table + "(" + strings.Join(t.Columns, ", ") + ")"
	}
	desc := []rune(strings.Join(strings.Fields(statement), " "))
	if len(desc) > 60 {
		return string(desc[:57]) + "..."
	}
	return string(desc)
}

func unquoteIdent(s string) string {
	return strings.Trim(s, "\"`[]")
}

func sameIdent(a, b string) bool {
	return strings.EqualFold(a, b)
}
