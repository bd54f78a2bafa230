package domain

import "time"

// VersionSelector picks a version of an item: a concrete number, the
// current version, or the version that was current at a point in time.
type VersionSelector struct {
	number int
	asOf   *time.Time
}

// SelectNumber selects an explicit version number.
func SelectNumber(n int) VersionSelector {
	return VersionSelector{number: n}
}

// SelectCurrent selects the current (highest committed) version.
func SelectCurrent() VersionSelector {
	return VersionSelector{}
}

// SelectAsOf selects the version that was current at t.
func SelectAsOf(t time.Time) VersionSelector {
	return VersionSelector{asOf: &t}
}

// Number returns the selected version number, or 0 for current/as-of.
func (s VersionSelector) Number() int {
	return s.number
}

// AsOf returns the as-of instant, or nil.
func (s VersionSelector) AsOf() *time.Time {
	return s.asOf
}

// IsCurrent reports whether the selector resolves the current version.
func (s VersionSelector) IsCurrent() bool {
	return s.number == 0 && s.asOf == nil
}

// CatalogStore is the persistence contract for item version logs.
// Implementations must serialize writes per item id: the version number
// assigned by Put is exactly one greater than the prior highest, with no
// gaps, even under concurrent writers.
type CatalogStore interface {
	// Put appends a version to the item's log and returns the assigned
	// version number. expectedBase is the version number the caller read
	// before preparing the write (0 for a brand-new item); a mismatch with
	// the current highest number fails with *ConflictError and nothing is
	// written.
	Put(version *Version, expectedBase int) (int, error)

	// Get resolves one version of an item per the selector.
	// Returns *NotFoundError for unknown items or unresolvable selectors.
	Get(itemID string, sel VersionSelector) (*Version, error)

	// ListVersions returns every version of an item ordered by version
	// number ascending. Returns *NotFoundError for unknown items.
	ListVersions(itemID string) ([]*Version, error)

	// SetRequestedStatus marks or clears (target nil) the pending
	// transition on the item's current version. Returns *NotFoundError for
	// unknown items.
	SetRequestedStatus(itemID string, target *RegistrationStatus) error

	// DeleteItem hard-deletes every version of an item. Only legal while
	// the item has never left Candidate; the caller enforces that rule.
	DeleteItem(itemID string) error

	// Close releases any resources held by the store.
	Close() error
}

// RelationshipRepository is the persistence contract for the relationship
// graph.
type RelationshipRepository interface {
	// Save persists a relationship edge. An existing edge with the same
	// (source, target, name) triple fails with *DuplicateRelationshipError.
	Save(rel *Relationship) error

	// FindByID retrieves one relationship.
	FindByID(id string) (*Relationship, error)

	// RelationshipsOf lists the edges touching an item in the given
	// direction, ordered by creation time ascending.
	RelationshipsOf(itemID string, dir Direction) ([]*Relationship, error)

	// CountForItem returns the number of edges referencing the item on
	// either end. Used to guard endpoint deletion.
	CountForItem(itemID string) (int, error)

	// Delete removes an edge.
	Delete(id string) error
}
