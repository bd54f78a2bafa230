package tracing

// Span attribute keys for registry tracing.
// These constants define the semantic conventions for span attributes
// across the governance core.
const (
	// Item attributes
	AttrItemID      = "item.id"
	AttrItemVariant = "item.variant"
	AttrItemStatus  = "item.status"
	AttrVersion     = "item.version"
	AttrBaseVersion = "item.base_version"

	// Request attributes
	AttrRequestID    = "request.id"
	AttrRequestState = "request.state"
	AttrTargetStatus = "request.target_status"
	AttrOutcome      = "request.outcome"
	AttrCommissionID = "request.commission_id"

	// Relationship attributes
	AttrRelationshipID = "relationship.id"
	AttrSourceID       = "relationship.source_id"
	AttrTargetID       = "relationship.target_id"

	// Actor attributes
	AttrActor = "actor.principal"
	AttrRole  = "actor.role"
)

// Span name prefixes by operation layer.
const (
	SpanPrefixRegistry = "registry."
	SpanPrefixWorkflow = "workflow."
)
