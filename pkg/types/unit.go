// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// UnitStatus is the lifecycle state of a pipeline unit in UNITS.csv.
type UnitStatus string

const (
	StatusTodo    UnitStatus = "TODO"
	StatusDoing   UnitStatus = "DOING"
	StatusDone    UnitStatus = "DONE"
	StatusSkip    UnitStatus = "SKIP"
	StatusBlocked UnitStatus = "BLOCKED"
)

// Satisfied reports whether a dependency in this state unblocks dependents.
func (s UnitStatus) Satisfied() bool {
	return s == StatusDone || s == StatusSkip
}

// UnitOwner identifies who executes a unit.
type UnitOwner string

const (
	OwnerScript UnitOwner = "SCRIPT"
	OwnerHuman  UnitOwner = "HUMAN"
)

// UnitRow is one row of UNITS.csv.
type UnitRow struct {
	UnitID string `json:"unit_id"`
	Title  string `json:"title"`
	Type   string `json:"type"`
	Skill  string `json:"skill"`

	// Inputs and Outputs are workspace-relative paths. A "?" prefix on an
	// output marks it optional.
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`

	Acceptance string `json:"acceptance"`

	// Checkpoint is the approval gate the unit belongs to (C0..C5).
	Checkpoint string `json:"checkpoint"`

	Status UnitStatus `json:"status"`

	// DependsOn lists unit_ids that must be DONE or SKIP first.
	DependsOn []string `json:"depends_on"`

	Owner UnitOwner `json:"owner"`
}

// QualityIssue is one structured finding from a quality gate: a
// machine-readable snake_case code plus a one-sentence message.
type QualityIssue struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// VerificationStatus is the state of one bibkey in citations/verified.jsonl.
type VerificationStatus string

const (
	VerifiedOnline          VerificationStatus = "verified_online"
	OfflineGenerated        VerificationStatus = "offline_generated"
	VerifyFailed            VerificationStatus = "verify_failed"
	NeedsManualVerification VerificationStatus = "needs_manual_verification"
)

// KnownVerificationStatus reports whether s is one of the accepted states.
func KnownVerificationStatus(s VerificationStatus) bool {
	switch s {
	case VerifiedOnline, OfflineGenerated, VerifyFailed, NeedsManualVerification:
		return true
	}
	return false
}

// VerifiedRecord is one line of citations/verified.jsonl.
type VerifiedRecord struct {
	Bibkey string `json:"bibkey" yaml:"bibkey"`
	Title  string `json:"title" yaml:"title"`
	URL    string `json:"url" yaml:"url"`
	Date   string `json:"date" yaml:"date"`

	VerificationStatus VerificationStatus `json:"verification_status" yaml:"verification_status"`

	VerifiedTitle string `json:"verified_title,omitempty" yaml:"verified_title,omitempty"`
	VerifiedURL   string `json:"verified_url,omitempty" yaml:"verified_url,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}
