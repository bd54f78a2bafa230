package domain

// RegistrationStatus represents the governance lifecycle stage of a registry
// item. Statuses form a total order from Candidate up to PreferredStandard,
// with Retired and Superseded as absorbing terminal stages.
type RegistrationStatus string

const (
	// StatusCandidate indicates a freshly proposed item. Only a name is
	// required; the item may still be hard-deleted.
	StatusCandidate RegistrationStatus = "candidate"

	// StatusRecorded indicates the item has been accepted into the catalog.
	// From here on the item can never be deleted, only retired or superseded.
	StatusRecorded RegistrationStatus = "recorded"

	// StatusQualified indicates the item passed quality review.
	StatusQualified RegistrationStatus = "qualified"

	// StatusStandard indicates the item is a published standard.
	StatusStandard RegistrationStatus = "standard"

	// StatusPreferredStandard indicates the item is the preferred standard
	// among alternatives.
	StatusPreferredStandard RegistrationStatus = "preferred_standard"

	// StatusRetired indicates the item was withdrawn from active use.
	StatusRetired RegistrationStatus = "retired"

	// StatusSuperseded indicates the item was replaced by another item.
	StatusSuperseded RegistrationStatus = "superseded"
)

// String returns the string representation of the status.
func (s RegistrationStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a recognized registration status.
func (s RegistrationStatus) IsValid() bool {
	switch s {
	case StatusCandidate, StatusRecorded, StatusQualified, StatusStandard,
		StatusPreferredStandard, StatusRetired, StatusSuperseded:
		return true
	default:
		return false
	}
}

// statusRank maps progressive statuses to their position in the total order.
// Terminal statuses are not ranked.
var statusRank = map[RegistrationStatus]int{
	StatusCandidate:         0,
	StatusRecorded:          1,
	StatusQualified:         2,
	StatusStandard:          3,
	StatusPreferredStandard: 4,
}

// IsTerminal returns true for the absorbing stages Retired and Superseded.
func (s RegistrationStatus) IsTerminal() bool {
	return s == StatusRetired || s == StatusSuperseded
}

// IsLocked returns true once the status can no longer move backwards.
// Everything at Recorded or above is locked: a published definition cannot
// be un-published, only deprecated.
func (s RegistrationStatus) IsLocked() bool {
	if s.IsTerminal() {
		return true
	}
	rank, ok := statusRank[s]
	return ok && rank >= statusRank[StatusRecorded]
}

// Next returns the immediate successor in the progressive order and true,
// or the zero status and false when no successor exists.
func (s RegistrationStatus) Next() (RegistrationStatus, bool) {
	switch s {
	case StatusCandidate:
		return StatusRecorded, true
	case StatusRecorded:
		return StatusQualified, true
	case StatusQualified:
		return StatusStandard, true
	case StatusStandard:
		return StatusPreferredStandard, true
	default:
		return "", false
	}
}

// CanTransition reports whether moving from s to target is legal.
// Progressive moves are single-step only; Retired and Superseded are
// reachable from any non-Candidate, non-terminal status.
func (s RegistrationStatus) CanTransition(target RegistrationStatus) bool {
	if !s.IsValid() || !target.IsValid() {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	if target.IsTerminal() {
		return s != StatusCandidate
	}
	next, ok := s.Next()
	return ok && target == next
}
