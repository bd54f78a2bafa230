package domain

import "time"

// Variant discriminates the registry item kinds.
type Variant string

const (
	VariantDataSetDefinition Variant = "data_set_definition"
	VariantDataElement       Variant = "data_element"
	VariantValueDomain       Variant = "value_domain"
)

// String returns the string representation of the variant.
func (v Variant) String() string {
	return string(v)
}

// IsValid returns true if the variant is a recognized item kind.
func (v Variant) IsValid() bool {
	switch v {
	case VariantDataSetDefinition, VariantDataElement, VariantValueDomain:
		return true
	default:
		return false
	}
}

// Version is one immutable snapshot of a registry item. An item is nothing
// more than its append-only sequence of Versions; the item identifier is
// assigned once at first save and shared by every version.
// All fields are unexported to enforce encapsulation; use the constructors
// and getter methods to access data.
type Version struct {
	itemID          string
	variant         Variant
	number          int
	status          RegistrationStatus
	requestedStatus *RegistrationStatus
	rationale       string
	attrs           Attributes
	createdAt       time.Time
	updatedAt       time.Time
}

// NewFirstVersion creates version 1 of a new item. Status is forced to
// Candidate regardless of what the caller intends to request later.
func NewFirstVersion(itemID string, variant Variant, attrs Attributes) *Version {
	now := time.Now().UTC()
	return &Version{
		itemID:    itemID,
		variant:   variant,
		number:    1,
		status:    StatusCandidate,
		attrs:     attrs.Clone(),
		createdAt: now,
		updatedAt: now,
	}
}

// Successor derives the next version of the item carrying new attributes.
// Status, variant, identity and any pending transition marker are inherited;
// the version number is a provisional hint only, the catalog store assigns
// the authoritative one.
func (v *Version) Successor(attrs Attributes) *Version {
	now := time.Now().UTC()
	next := &Version{
		itemID:    v.itemID,
		variant:   v.variant,
		number:    v.number + 1,
		status:    v.status,
		attrs:     attrs.Clone(),
		createdAt: now,
		updatedAt: now,
	}
	if v.requestedStatus != nil {
		rs := *v.requestedStatus
		next.requestedStatus = &rs
	}
	return next
}

// SuccessorWithStatus derives the next version with a decision applied,
// recording the rationale it carried. Decisions resolve the pending
// transition, so the marker is cleared.
func (v *Version) SuccessorWithStatus(status RegistrationStatus, rationale string) *Version {
	next := v.Successor(v.attrs)
	next.status = status
	next.rationale = rationale
	next.ClearRequestedStatus()
	return next
}

// ReconstituteVersion creates a Version from existing data, typically when
// hydrating from the database. All fields are provided explicitly.
func ReconstituteVersion(
	itemID string,
	variant Variant,
	number int,
	status RegistrationStatus,
	requestedStatus *RegistrationStatus,
	rationale string,
	attrs Attributes,
	createdAt, updatedAt time.Time,
) *Version {
	return &Version{
		itemID:          itemID,
		variant:         variant,
		number:          number,
		status:          status,
		requestedStatus: requestedStatus,
		rationale:       rationale,
		attrs:           attrs,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// ItemID returns the globally unique item identifier shared by all versions.
func (v *Version) ItemID() string {
	return v.itemID
}

// Variant returns the item kind.
func (v *Version) Variant() Variant {
	return v.variant
}

// Number returns the version number, starting at 1.
func (v *Version) Number() int {
	return v.number
}

// Status returns the registration status recorded on this version.
func (v *Version) Status() RegistrationStatus {
	return v.status
}

// RequestedStatus returns the pending transition target, or nil when no
// request is open against this version.
func (v *Version) RequestedStatus() *RegistrationStatus {
	return v.requestedStatus
}

// Rationale returns the decision rationale recorded on this version, if any.
func (v *Version) Rationale() string {
	return v.rationale
}

// Attributes returns a copy of the snapshot carried by this version.
func (v *Version) Attributes() Attributes {
	return v.attrs.Clone()
}

// Name returns the item name at this version.
func (v *Version) Name() string {
	return v.attrs.Name
}

// CreatedAt returns when this version was created.
func (v *Version) CreatedAt() time.Time {
	return v.createdAt
}

// UpdatedAt returns when this version was last modified.
func (v *Version) UpdatedAt() time.Time {
	return v.updatedAt
}

// ClearRequestedStatus removes the pending transition marker.
func (v *Version) ClearRequestedStatus() {
	v.requestedStatus = nil
	v.updatedAt = time.Now().UTC()
}
