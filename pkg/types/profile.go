// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Profile is the draft strictness setting. It scales every numeric
// threshold in the binder, pack builder, and gate engine.
type Profile string

const (
	ProfileDefault Profile = "default"
	ProfileLite    Profile = "lite"
	ProfileSurvey  Profile = "survey"
	ProfileDeep    Profile = "deep"
)

// ParseProfile maps a queries.md draft_profile value to a Profile.
// Unknown or empty values fall back to the default profile.
func ParseProfile(s string) Profile {
	switch Profile(s) {
	case ProfileLite, ProfileSurvey, ProfileDeep:
		return Profile(s)
	}
	return ProfileDefault
}

// Thresholds is the record of numeric knobs one profile resolves to.
// Gates and builders take the resolved record, not the profile name, so
// individual knobs stay overridable from configuration.
type Thresholds struct {
	// BindK is the evidence item budget per subsection.
	BindK int

	// MaxPerPaper caps selected items per paper in one binding.
	MaxPerPaper int

	// MaxLimitations caps limitation items in one binding.
	MaxLimitations int

	// MinBindingIDs is the gate minimum for evidence_ids per subsection.
	MinBindingIDs int

	// MinMappedPerSub is the mapping coverage target per subsection.
	MinMappedPerSub int

	// MinBibEntries is the minimum ref.bib size (survey only).
	MinBibEntries int

	// MinComparisons is the minimum concrete comparisons per evidence pack.
	MinComparisons int

	// MinCitesPerSub is the minimum unique citations per H3 body file.
	MinCitesPerSub int

	// MinParagraphs and MinChars are both required per H3 body file.
	MinParagraphs int
	MinChars      int

	// AnchorPool and AnchorKeep size the anchor-fact funnel (pool → kept).
	AnchorPool int
	AnchorKeep int

	// CardKeep caps comparison cards per pack.
	CardKeep int

	// EvalKeep caps evaluation protocol bullets per pack.
	EvalKeep int

	// LimitationKeep caps limitation hooks per pack.
	LimitationKeep int

	// Must-use minima for the writer.
	MustUseAnchors     int
	MustUseComparisons int
	MustUseLimitations int

	// GlobalThreshold is the number of subsections a paper must be mapped
	// to before its bibkey enters the global allowed set.
	GlobalThreshold int
}

// ThresholdsFor resolves a profile to its threshold record.
func ThresholdsFor(p Profile) Thresholds {
	t := Thresholds{
		BindK:              14,
		MaxPerPaper:        3,
		MaxLimitations:     3,
		MinBindingIDs:      6,
		MinMappedPerSub:    5,
		MinComparisons:     3,
		MinCitesPerSub:     8,
		MinParagraphs:      6,
		MinChars:           5000,
		AnchorPool:         16,
		AnchorKeep:         8,
		CardKeep:           4,
		EvalKeep:           8,
		LimitationKeep:     8,
		MustUseAnchors:     2,
		MustUseComparisons: 2,
		MustUseLimitations: 1,
		GlobalThreshold:    3,
	}

	switch p {
	case ProfileLite:
		t.BindK = 12
		t.MinCitesPerSub = 7
		t.MustUseAnchors = 1
		t.MustUseComparisons = 1
		t.MustUseLimitations = 1
	case ProfileSurvey:
		t.BindK = 18
		t.MinBindingIDs = 10
		t.MinMappedPerSub = 8
		t.MinBibEntries = 150
		t.MinComparisons = 4
		t.MinCitesPerSub = 10
		t.MinParagraphs = 9
		t.MinChars = 9000
	case ProfileDeep:
		t.BindK = 24
		t.MinBindingIDs = 10
		t.MinComparisons = 5
		t.MinCitesPerSub = 12
		t.MinParagraphs = 10
		t.MinChars = 11000
		t.AnchorKeep = 12
		t.CardKeep = 6
		t.LimitationKeep = 10
		t.MustUseAnchors = 3
		t.MustUseComparisons = 3
		t.MustUseLimitations = 2
	}

	return t
}
