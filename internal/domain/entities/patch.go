package entities

// PatchFormat names a supported patch grammar.
type PatchFormat string

const (
	PatchUnified PatchFormat = "unified"
	PatchCodex   PatchFormat = "codex"
)

// PatchOptions tunes patch application.
type PatchOptions struct {
	// ExpectedFileLabel, when set, must match the file named in the patch.
	ExpectedFileLabel string
}
