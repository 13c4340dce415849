//go:build mage

package main

// Pipeline targets, one per deterministic stage. Each shells out to the
// CLI so the targets stay thin wrappers over cmd/surveyforge.

// Bank rebuilds the evidence bank from paper notes and refreshes the
// SQLite index.
func Bank() error {
	if err := runCLI("bank", "build"); err != nil {
		return err
	}
	return runCLI("bank", "index")
}

// Brief rebuilds the subsection and chapter briefs from the outline.
func Brief() error {
	return runCLI("brief")
}

// Bind reselects evidence bindings for every subsection.
func Bind() error {
	return runCLI("bind")
}

// Anchor redistills the anchor sheet from the evidence drafts.
func Anchor() error {
	return runCLI("anchor")
}

// Pack reassembles the writer context packs.
func Pack() error {
	return runCLI("pack")
}

// Validate cross-checks the unit table, skill catalog, and artifact flow.
func Validate() error {
	return runCLI("validate")
}
