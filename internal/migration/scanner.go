package migration

import (
	"crypto/md5"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Script is one migration file split into steps.
type Script struct {
	Version  string
	Name     string
	Path     string
	Steps    []Step
	Checksum string

	number uint64
}

// StepsOf flattens scripts into a single ordered step sequence.
func StepsOf(scripts []Script) []Step {
	var steps []Step
	for _, sc := range scripts {
		steps = append(steps, sc.Steps...)
	}
	return steps
}

// FileScanner scans an fs.FS for migration scripts
type FileScanner struct {
	fsys fs.FS
}

// NewFileScanner creates a new file scanner
func NewFileScanner(fsys fs.FS) *FileScanner {
	return &FileScanner{fsys: fsys}
}

// migrationFileRegex matches migration files like: 0001_add_gender.sql
var migrationFileRegex = regexp.MustCompile(`^(\d+)_([^.]+)\.sql$`)

// ScanScripts returns every migration script ordered by numeric version.
// Versions are compared as numbers, so 0002 and 2 are the same version.
func (s *FileScanner) ScanScripts() ([]Script, error) {
	var scripts []Script
	seen := make(map[uint64]string)

	err := fs.WalkDir(s.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := migrationFileRegex.FindStringSubmatch(path.Base(p))
		if matches == nil {
			return nil
		}
		version, name := matches[1], matches[2]
		number, err := strconv.ParseUint(version, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid migration version in %s: %w", p, err)
		}
		if other, dup := seen[number]; dup {
			return fmt.Errorf("duplicate migration version %s: %s and %s", version, other, p)
		}
		seen[number] = p

		content, err := fs.ReadFile(s.fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", p, err)
		}

		steps, err := ParseSteps(string(content))
		if err != nil {
			return fmt.Errorf("failed to parse migration file %s: %w", p, err)
		}

		scripts = append(scripts, Script{
			Version:  version,
			Name:     name,
			Path:     p,
			Steps:    steps,
			Checksum: calculateChecksum(string(content)),
			number:   number,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	sort.Slice(scripts, func(i, j int) bool {
		return scripts[i].number < scripts[j].number
	})

	return scripts, nil
}

// ScanSteps flattens every script into a single ordered step sequence.
func (s *FileScanner) ScanSteps() ([]Step, error) {
	scripts, err := s.ScanScripts()
	if err != nil {
		return nil, err
	}
	return StepsOf(scripts), nil
}

// LoadScript reads a single SQL file outside the versioned layout.
func LoadScript(fsys afero.Fs, filename string) (Script, error) {
	content, err := afero.ReadFile(fsys, filename)
	if err != nil {
		return Script{}, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	steps, err := ParseSteps(string(content))
	if err != nil {
		return Script{}, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return Script{
		Name:     strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
		Path:     filename,
		Steps:    steps,
		Checksum: calculateChecksum(string(content)),
	}, nil
}

// LoadFile reads a SQL file and splits it into steps.
func LoadFile(fsys afero.Fs, filename string) ([]Step, error) {
	script, err := LoadScript(fsys, filename)
	if err != nil {
		return nil, err
	}
	return script.Steps, nil
}

// ParseSteps splits a SQL script into steps, inferring each step's mode and
// description from its statement. A "-- mode: <mode>" line directly before a
// statement overrides the inferred mode.
func ParseSteps(script string) ([]Step, error) {
	statements, err := splitStatements(script)
	if err != nil {
		return nil, err
	}
	if len(statements) == 0 {
		return nil, ErrNoSteps
	}

	steps := make([]Step, 0, len(statements))
	for i, stmt := range statements {
		mode := InferMode(stmt.text)
		if stmt.mode != "" {
			if mode, err = ParseMode(stmt.mode); err != nil {
				return nil, fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		steps = append(steps, Step{
			Statement:   stmt.text,
			Mode:        mode,
			Description: Describe(stmt.text),
		})
	}
	return steps, nil
}

type statement struct {
	text string
	// mode is the raw value of a preceding "-- mode:" directive
	mode string
}

var (
	modeDirectiveRegex = regexp.MustCompile(`(?i)^--\s*mode:\s*(\S+)\s*$`)
	dollarTagRegex     = regexp.MustCompile(`^\$(?:[A-Za-z_][A-Za-z0-9_]*)?\$`)
)

// splitStatements splits a script on semicolons, dropping comments and
// ignoring semicolons inside quoted strings, identifiers and Postgres
// dollar-quoted bodies. Quotes end at the next matching quote character;
// MySQL backslash escapes such as 'it\'s' are not recognized, write 'it''s'.
func splitStatements(script string) ([]statement, error) {
	var (
		statements []statement
		cur        strings.Builder
		quote      byte
		mode       string
	)

	flush := func() {
		if text := strings.TrimSpace(cur.String()); text != "" {
			statements = append(statements, statement{text: text, mode: mode})
			mode = ""
		}
		cur.Reset()
	}

	for i := 0; i < len(script); i++ {
		c := script[i]

		if quote != 0 {
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			cur.WriteByte(c)
		case c == '$' && dollarTagRegex.MatchString(script[i:]):
			tag := dollarTagRegex.FindString(script[i:])
			end := strings.Index(script[i+len(tag):], tag)
			if end < 0 {
				return nil, fmt.Errorf("unterminated %s quote at offset %d", tag, i)
			}
			n := len(tag) + end + len(tag)
			cur.WriteString(script[i : i+n])
			i += n - 1
		case c == '-' && i+1 < len(script) && script[i+1] == '-':
			start := i
			for i < len(script) && script[i] != '\n' {
				i++
			}
			if m := modeDirectiveRegex.FindStringSubmatch(script[start:i]); m != nil && strings.TrimSpace(cur.String()) == "" {
				mode = m[1]
			}
			cur.WriteByte('\n')
		case c == '/' && i+1 < len(script) && script[i+1] == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("unterminated block comment at offset %d", i)
			}
			i += end + 3
			cur.WriteByte(' ')
		case c == ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	flush()

	return statements, nil
}

// calculateChecksum calculates MD5 checksum of the script
func calculateChecksum(script string) string {
	h := md5.New()
	h.Write([]byte(script))
	return fmt.Sprintf("%x", h.Sum(nil))
}
