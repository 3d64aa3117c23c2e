package migration

import (
	"schemarunner/migrations"
)

// GenderSteps returns the steps that add a gender column to preset_images
// and selfies and index it. Column additions come before their indexes.
func GenderSteps() []Step {
	return []Step{
		{
			Statement:   `ALTER TABLE preset_images ADD COLUMN gender TEXT CHECK(gender IN ('male','female'))`,
			Mode:        ModeTolerateDuplicate,
			Description: "add column preset_images.gender",
		},
		{
			Statement:   `ALTER TABLE selfies       ADD COLUMN gender TEXT CHECK(gender IN ('male','female'))`,
			Mode:        ModeTolerateDuplicate,
			Description: "add column selfies.gender",
		},
		{
			Statement:   `CREATE INDEX IF NOT EXISTS idx_preset_images_gender ON preset_images(gender)`,
			Mode:        ModeNative,
			Description: "create index idx_preset_images_gender on preset_images(gender)",
		},
		{
			Statement:   `CREATE INDEX IF NOT EXISTS idx_selfies_gender       ON selfies(gender)`,
			Mode:        ModeNative,
			Description: "create index idx_selfies_gender on selfies(gender)",
		},
	}
}

// EmbeddedSource labels runs of the embedded scripts.
const EmbeddedSource = "embedded"

// EmbeddedScripts returns the scripts shipped in the migrations package, in
// version order.
func EmbeddedScripts() ([]Script, error) {
	return NewFileScanner(migrations.FS).ScanScripts()
}

// EmbeddedSteps returns the steps of every embedded script.
func EmbeddedSteps() ([]Step, error) {
	scripts, err := EmbeddedScripts()
	if err != nil {
		return nil, err
	}
	return StepsOf(scripts), nil
}
