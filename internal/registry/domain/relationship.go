package domain

import "time"

// Obligation states whether a relationship must be populated.
type Obligation string

const (
	ObligationMandatory   Obligation = "mandatory"
	ObligationOptional    Obligation = "optional"
	ObligationConditional Obligation = "conditional"
)

// IsValid returns true if the obligation is a recognized value.
func (o Obligation) IsValid() bool {
	switch o {
	case ObligationMandatory, ObligationOptional, ObligationConditional:
		return true
	default:
		return false
	}
}

// Cardinality states how many target instances a relationship admits.
type Cardinality string

const (
	CardinalitySingle   Cardinality = "single"
	CardinalityMultiple Cardinality = "multiple"
)

// IsValid returns true if the cardinality is a recognized value.
func (c Cardinality) IsValid() bool {
	return c == CardinalitySingle || c == CardinalityMultiple
}

// Direction selects which end of the edge a relationship query anchors on.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// RelationshipAttributes is the payload of a relationship edge. Name and
// definition are required; obligation and cardinality are always present on
// a saved relationship. Condition carries the free-text condition when the
// obligation is conditional.
type RelationshipAttributes struct {
	Name        string
	Definition  string
	Obligation  Obligation
	Condition   string
	Cardinality Cardinality
	Notes       string
	Extensions  map[string]ExtensionValue
}

func (a RelationshipAttributes) clone() RelationshipAttributes {
	out := a
	if a.Extensions != nil {
		out.Extensions = make(map[string]ExtensionValue, len(a.Extensions))
		for k, v := range a.Extensions {
			out.Extensions[k] = v
		}
	}
	return out
}

// Relationship is a directed, attributed edge from a Data Set Definition to
// a Data Element or another Data Set Definition. The graph is a directed
// multigraph: several edges may share endpoints as long as their names
// differ.
type Relationship struct {
	id        string
	sourceID  string
	targetID  string
	attrs     RelationshipAttributes
	createdAt time.Time
}

// NewRelationship creates an edge between two resolved endpoints.
func NewRelationship(id, sourceID, targetID string, attrs RelationshipAttributes) *Relationship {
	return &Relationship{
		id:        id,
		sourceID:  sourceID,
		targetID:  targetID,
		attrs:     attrs.clone(),
		createdAt: time.Now().UTC(),
	}
}

// ReconstituteRelationship creates a Relationship from persisted data.
func ReconstituteRelationship(id, sourceID, targetID string, attrs RelationshipAttributes, createdAt time.Time) *Relationship {
	return &Relationship{
		id:        id,
		sourceID:  sourceID,
		targetID:  targetID,
		attrs:     attrs,
		createdAt: createdAt,
	}
}

// ID returns the relationship identifier.
func (r *Relationship) ID() string {
	return r.id
}

// SourceID returns the source item identifier.
func (r *Relationship) SourceID() string {
	return r.sourceID
}

// TargetID returns the target item identifier.
func (r *Relationship) TargetID() string {
	return r.targetID
}

// Name returns the edge name, unique per (source, target) pair.
func (r *Relationship) Name() string {
	return r.attrs.Name
}

// Attributes returns a copy of the edge payload.
func (r *Relationship) Attributes() RelationshipAttributes {
	return r.attrs.clone()
}

// CreatedAt returns when the relationship was created.
func (r *Relationship) CreatedAt() time.Time {
	return r.createdAt
}
