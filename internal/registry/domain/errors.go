package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports every failing field of an attribute payload at
// once, so a caller can present them together rather than one at a time.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, "; "))
}

// ConflictError indicates an optimistic-concurrency failure: the caller's
// expected base version no longer matches the current version. The caller
// must re-read and retry; versions are never silently merged.
type ConflictError struct {
	ItemID       string
	ExpectedBase int
	ActualBase   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict on item %s: expected base %d, current is %d",
		e.ItemID, e.ExpectedBase, e.ActualBase)
}

// IllegalTransitionError indicates a requested status is not reachable from
// the current status.
type IllegalTransitionError struct {
	ItemID string
	From   RegistrationStatus
	To     RegistrationStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition on item %s: %s -> %s", e.ItemID, e.From, e.To)
}

// RequestAlreadyPendingError indicates a transition request is already open
// against the item. PendingRequestID references the existing request.
type RequestAlreadyPendingError struct {
	ItemID           string
	PendingRequestID string
}

func (e *RequestAlreadyPendingError) Error() string {
	return fmt.Sprintf("item %s already has pending request %s", e.ItemID, e.PendingRequestID)
}

// NotFoundError indicates an unknown item, version, or relationship.
type NotFoundError struct {
	Kind string // "item", "version", "relationship"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// EndpointInUseError indicates an item cannot be deleted while relationships
// still reference it. Relationships must be detached first.
type EndpointInUseError struct {
	ItemID string
	Edges  int
}

func (e *EndpointInUseError) Error() string {
	return fmt.Sprintf("item %s is referenced by %d relationship(s)", e.ItemID, e.Edges)
}

// DuplicateRelationshipError indicates an edge with the same name already
// exists between the same source and target.
type DuplicateRelationshipError struct {
	SourceID string
	TargetID string
	Name     string
}

func (e *DuplicateRelationshipError) Error() string {
	return fmt.Sprintf("relationship %q already exists between %s and %s", e.Name, e.SourceID, e.TargetID)
}

// LockedItemError indicates a hard delete was attempted on an item that has
// reached Recorded or higher and therefore can never be removed.
type LockedItemError struct {
	ItemID string
	Status RegistrationStatus
}

func (e *LockedItemError) Error() string {
	return fmt.Sprintf("item %s is %s and can no longer be deleted", e.ItemID, e.Status)
}
