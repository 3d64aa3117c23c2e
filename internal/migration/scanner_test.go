package migration

import (
	"testing"
	"testing/fstest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statementTexts(t *testing.T, script string) []string {
	t.Helper()
	stmts, err := splitStatements(script)
	require.NoError(t, err)
	var texts []string
	for _, s := range stmts {
		texts = append(texts, s.text)
	}
	return texts
}

func TestSplitStatements(t *testing.T) {
	t.Run("comments and quoted semicolons", func(t *testing.T) {
		script := `
-- leading comment; with a semicolon
ALTER TABLE notes ADD COLUMN body TEXT DEFAULT 'a;b';
/* block; comment */ CREATE INDEX IF NOT EXISTS idx_notes_body ON notes(body);
INSERT INTO "odd;name" VALUES ('it''s; fine')
`
		got := statementTexts(t, script)
		assert.Equal(t, []string{
			"ALTER TABLE notes ADD COLUMN body TEXT DEFAULT 'a;b'",
			"CREATE INDEX IF NOT EXISTS idx_notes_body ON notes(body)",
			`INSERT INTO "odd;name" VALUES ('it''s; fine')`,
		}, got)
	})

	t.Run("blank statements are dropped", func(t *testing.T) {
		assert.Empty(t, statementTexts(t, ";;  ;\n-- only a comment\n"))
	})

	t.Run("dollar quoted bodies", func(t *testing.T) {
		script := `
CREATE FUNCTION touch() RETURNS trigger AS $$ BEGIN NEW.updated_at := now(); RETURN NEW; END; $$ LANGUAGE plpgsql;
DO $body$ BEGIN PERFORM 1; END $body$;
SELECT $1
`
		assert.Equal(t, []string{
			"CREATE FUNCTION touch() RETURNS trigger AS $$ BEGIN NEW.updated_at := now(); RETURN NEW; END; $$ LANGUAGE plpgsql",
			"DO $body$ BEGIN PERFORM 1; END $body$",
			"SELECT $1",
		}, statementTexts(t, script))

		_, err := splitStatements("DO $x$ BEGIN; END")
		assert.ErrorContains(t, err, "unterminated $x$ quote")
	})

	t.Run("backslash is not an escape", func(t *testing.T) {
		assert.Equal(t, []string{`SELECT 'C:\'`, "SELECT 2"}, statementTexts(t, `SELECT 'C:\'; SELECT 2;`))
	})

	t.Run("unterminated quote", func(t *testing.T) {
		_, err := splitStatements("SELECT 'oops")
		assert.Error(t, err)
	})

	t.Run("unterminated block comment", func(t *testing.T) {
		_, err := splitStatements("SELECT 1; /* never closed")
		assert.Error(t, err)
	})
}

func TestParseSteps(t *testing.T) {
	steps, err := ParseSteps(`
ALTER TABLE selfies ADD COLUMN gender TEXT;
ALTER TABLE selfies ADD COLUMN IF NOT EXISTS age INTEGER;
CREATE INDEX IF NOT EXISTS idx_selfies_gender ON selfies(gender);
CREATE TABLE audit (id INTEGER);
`)
	require.NoError(t, err)
	require.Len(t, steps, 4)

	assert.Equal(t, ModeTolerateDuplicate, steps[0].Mode)
	assert.Equal(t, "add column selfies.gender", steps[0].Description)
	assert.Equal(t, ModeNative, steps[1].Mode)
	assert.Equal(t, "add column selfies.age", steps[1].Description)
	assert.Equal(t, ModeNative, steps[2].Mode)
	assert.Equal(t, "create index idx_selfies_gender on selfies(gender)", steps[2].Description)
	assert.Equal(t, ModeNative, steps[3].Mode)
	assert.Equal(t, "CREATE TABLE audit (id INTEGER)", steps[3].Description)

	_, err = ParseSteps("-- nothing here")
	assert.ErrorIs(t, err, ErrNoSteps)
}

func TestParseSteps_ModeDirective(t *testing.T) {
	steps, err := ParseSteps(`
-- mode: tolerate_duplicate_error
CREATE INDEX idx_selfies_gender ON selfies(gender);
-- mode: native
ALTER TABLE selfies ADD COLUMN gender TEXT;
ALTER TABLE preset_images ADD COLUMN gender TEXT;
`)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, ModeTolerateDuplicate, steps[0].Mode)
	assert.Equal(t, ModeNative, steps[1].Mode)
	assert.Equal(t, ModeTolerateDuplicate, steps[2].Mode, "directive applies to one statement")

	_, err = ParseSteps("-- mode: sometimes\nSELECT 1;")
	assert.ErrorContains(t, err, "statement 1: unknown idempotency mode")
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sql/gender.sql", []byte(
		"ALTER TABLE selfies ADD COLUMN gender TEXT;\nCREATE INDEX IF NOT EXISTS idx_selfies_gender ON selfies(gender);\n",
	), 0o644))

	steps, err := LoadFile(fs, "/sql/gender.sql")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "ALTER TABLE selfies ADD COLUMN gender TEXT", steps[0].Statement)

	_, err = LoadFile(fs, "/sql/missing.sql")
	assert.Error(t, err)

	script, err := LoadScript(fs, "/sql/gender.sql")
	require.NoError(t, err)
	assert.Equal(t, "gender", script.Name)
	assert.Len(t, script.Checksum, 32)
	assert.Len(t, script.Steps, 2)
}

func TestFileScanner(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_index_gender.sql": {Data: []byte("CREATE INDEX IF NOT EXISTS idx_selfies_gender ON selfies(gender);")},
		"0001_add_gender.sql":   {Data: []byte("ALTER TABLE selfies ADD COLUMN gender TEXT;")},
		"README.md":             {Data: []byte("not a migration")},
		"nested/0003_more.sql":  {Data: []byte("CREATE TABLE IF NOT EXISTS more (id INTEGER);")},
	}

	scripts, err := NewFileScanner(fsys).ScanScripts()
	require.NoError(t, err)
	require.Len(t, scripts, 3)
	assert.Equal(t, "0001", scripts[0].Version)
	assert.Equal(t, "add_gender", scripts[0].Name)
	assert.Equal(t, "0002", scripts[1].Version)
	assert.Equal(t, "nested/0003_more.sql", scripts[2].Path)
	assert.Len(t, scripts[0].Checksum, 32)

	steps, err := NewFileScanner(fsys).ScanSteps()
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "add column selfies.gender", steps[0].Description)

	t.Run("duplicate versions", func(t *testing.T) {
		dup := fstest.MapFS{
			"0001_a.sql": {Data: []byte("SELECT 1;")},
			"0001_b.sql": {Data: []byte("SELECT 2;")},
		}
		_, err := NewFileScanner(dup).ScanScripts()
		assert.ErrorContains(t, err, "duplicate migration version 0001")
	})

	t.Run("versions sort numerically", func(t *testing.T) {
		unpadded := fstest.MapFS{
			"10_index_gender.sql": {Data: []byte("CREATE INDEX IF NOT EXISTS idx_selfies_gender ON selfies(gender);")},
			"2_add_gender.sql":    {Data: []byte("ALTER TABLE selfies ADD COLUMN gender TEXT;")},
		}
		steps, err := NewFileScanner(unpadded).ScanSteps()
		require.NoError(t, err)
		require.Len(t, steps, 2)
		assert.Equal(t, "add column selfies.gender", steps[0].Description)
		assert.NoError(t, Validate(steps, false))
	})

	t.Run("zero padding does not make a new version", func(t *testing.T) {
		padded := fstest.MapFS{
			"1_a.sql":  {Data: []byte("SELECT 1;")},
			"01_b.sql": {Data: []byte("SELECT 2;")},
		}
		_, err := NewFileScanner(padded).ScanScripts()
		assert.ErrorContains(t, err, "duplicate migration version")
	})

	t.Run("empty script", func(t *testing.T) {
		empty := fstest.MapFS{"0001_empty.sql": {Data: []byte("-- todo\n")}}
		_, err := NewFileScanner(empty).ScanScripts()
		assert.ErrorIs(t, err, ErrNoSteps)
	})
}

func TestEmbeddedSteps(t *testing.T) {
	steps, err := EmbeddedSteps()
	require.NoError(t, err)
	assert.Equal(t, GenderSteps(), steps)
	require.NoError(t, Validate(steps, false))
}
