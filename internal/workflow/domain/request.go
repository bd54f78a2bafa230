package domain

import (
	"time"

	registry "github.com/registra-io/registra/internal/registry/domain"
)

// RequestState represents the review stage of an approval request.
type RequestState string

const (
	// StateOpened indicates the request was filed by its proposer and has
	// not yet been taken up.
	StateOpened RequestState = "opened"

	// StateUnderAuthorityReview indicates the registration authority is
	// reviewing the request.
	StateUnderAuthorityReview RequestState = "under_authority_review"

	// StateUnderCommitteeReview indicates the authority escalated to the
	// control committee.
	StateUnderCommitteeReview RequestState = "under_committee_review"

	// StateUnderAdvisoryReview indicates the committee fanned the request
	// out to advisory commissions for non-binding opinions. The committee
	// still owns the binding decision.
	StateUnderAdvisoryReview RequestState = "under_advisory_review"

	// StateDecided indicates a binding decision was issued but the item
	// transition has not been committed yet.
	StateDecided RequestState = "decided"

	// StateClosed indicates the request is finished and immutable.
	StateClosed RequestState = "closed"
)

// String returns the string representation of the state.
func (s RequestState) String() string {
	return string(s)
}

// IsValid returns true if the state is a recognized request state.
func (s RequestState) IsValid() bool {
	switch s {
	case StateOpened, StateUnderAuthorityReview, StateUnderCommitteeReview,
		StateUnderAdvisoryReview, StateDecided, StateClosed:
		return true
	default:
		return false
	}
}

// Outcome is the resolution a request closed with.
type Outcome string

const (
	OutcomeApproved  Outcome = "approved"
	OutcomeRejected  Outcome = "rejected"
	OutcomeWithdrawn Outcome = "withdrawn"

	// OutcomeEscalated is a routing verdict the authority may issue; it
	// hands the request to the control committee and is never stored.
	OutcomeEscalated Outcome = "escalated"
)

// CloseReason qualifies non-standard closures.
type CloseReason string

const (
	// ReasonItemRemoved marks a request auto-rejected because its item was
	// hard-deleted while the request was open.
	ReasonItemRemoved CloseReason = "item_removed"
)

// OpinionValue is an advisory commission member's stance.
type OpinionValue string

const (
	OpinionFavorable   OpinionValue = "favorable"
	OpinionUnfavorable OpinionValue = "unfavorable"
	OpinionAbstain     OpinionValue = "abstain"
)

// IsValid returns true if the opinion value is recognized.
func (o OpinionValue) IsValid() bool {
	switch o {
	case OpinionFavorable, OpinionUnfavorable, OpinionAbstain:
		return true
	default:
		return false
	}
}

// Opinion is one non-binding advisory record, keyed by (request,
// commission, member). It is mutable by its author until the enclosing
// request reaches Decided; it never blocks or auto-decides anything.
type Opinion struct {
	RequestID    string
	CommissionID string
	MemberID     string
	Value        OpinionValue
	Comment      string
	SubmittedAt  time.Time
}

// NewOpinion creates an opinion stamped with the current time.
func NewOpinion(requestID, commissionID, memberID string, value OpinionValue, comment string) *Opinion {
	return &Opinion{
		RequestID:    requestID,
		CommissionID: commissionID,
		MemberID:     memberID,
		Value:        value,
		Comment:      comment,
		SubmittedAt:  time.Now().UTC(),
	}
}

// ApprovalRequest tracks one status-transition request through its review
// stages. All fields are unexported to enforce encapsulation; use the
// constructor and getter methods to access data.
type ApprovalRequest struct {
	id           string
	itemID       string
	targetStatus registry.RegistrationStatus
	proposer     string
	state        RequestState
	outcome      Outcome
	rationale    string
	closeReason  CloseReason
	commissions  []string
	openedAt     time.Time
	decidedAt    *time.Time
	closedAt     *time.Time
	updatedAt    time.Time
}

// NewRequest files a request to move an item to targetStatus.
func NewRequest(id, itemID string, targetStatus registry.RegistrationStatus, proposer string) *ApprovalRequest {
	now := time.Now().UTC()
	return &ApprovalRequest{
		id:           id,
		itemID:       itemID,
		targetStatus: targetStatus,
		proposer:     proposer,
		state:        StateOpened,
		openedAt:     now,
		updatedAt:    now,
	}
}

// ReconstituteRequest creates an ApprovalRequest from persisted data.
func ReconstituteRequest(
	id, itemID string,
	targetStatus registry.RegistrationStatus,
	proposer string,
	state RequestState,
	outcome Outcome,
	rationale string,
	closeReason CloseReason,
	commissions []string,
	openedAt time.Time,
	decidedAt, closedAt *time.Time,
	updatedAt time.Time,
) *ApprovalRequest {
	return &ApprovalRequest{
		id:           id,
		itemID:       itemID,
		targetStatus: targetStatus,
		proposer:     proposer,
		state:        state,
		outcome:      outcome,
		rationale:    rationale,
		closeReason:  closeReason,
		commissions:  commissions,
		openedAt:     openedAt,
		decidedAt:    decidedAt,
		closedAt:     closedAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the request identifier.
func (r *ApprovalRequest) ID() string { return r.id }

// ItemID returns the item the request targets.
func (r *ApprovalRequest) ItemID() string { return r.itemID }

// TargetStatus returns the status the request asks for.
func (r *ApprovalRequest) TargetStatus() registry.RegistrationStatus { return r.targetStatus }

// Proposer returns the principal that filed the request.
func (r *ApprovalRequest) Proposer() string { return r.proposer }

// State returns the current review stage.
func (r *ApprovalRequest) State() RequestState { return r.state }

// Outcome returns the resolution, or empty while the request is pending.
func (r *ApprovalRequest) Outcome() Outcome { return r.outcome }

// Rationale returns the decision rationale, if one was recorded.
func (r *ApprovalRequest) Rationale() string { return r.rationale }

// CloseReason returns the non-standard closure reason, if any.
func (r *ApprovalRequest) CloseReason() CloseReason { return r.closeReason }

// Commissions returns the advisory commissions the committee consulted.
func (r *ApprovalRequest) Commissions() []string {
	return append([]string(nil), r.commissions...)
}

// OpenedAt returns when the request was filed.
func (r *ApprovalRequest) OpenedAt() time.Time { return r.openedAt }

// DecidedAt returns when the binding decision was issued, or nil.
func (r *ApprovalRequest) DecidedAt() *time.Time { return r.decidedAt }

// ClosedAt returns when the request was closed, or nil.
func (r *ApprovalRequest) ClosedAt() *time.Time { return r.closedAt }

// UpdatedAt returns when the request last changed.
func (r *ApprovalRequest) UpdatedAt() time.Time { return r.updatedAt }

// IsOpen reports whether the request still occupies the item's single
// pending-request slot.
func (r *ApprovalRequest) IsOpen() bool {
	return r.state != StateClosed
}

// IsDecided reports whether a binding decision has been issued.
func (r *ApprovalRequest) IsDecided() bool {
	return r.state == StateDecided || r.state == StateClosed
}

// StartAuthorityReview moves a freshly opened request under authority
// review.
func (r *ApprovalRequest) StartAuthorityReview() error {
	if r.state != StateOpened {
		return &IllegalRequestStateError{RequestID: r.id, State: r.state, Action: "start authority review"}
	}
	r.setState(StateUnderAuthorityReview)
	return nil
}

// Escalate hands the request from the authority to the control committee.
func (r *ApprovalRequest) Escalate() error {
	if r.state != StateUnderAuthorityReview {
		return &IllegalRequestStateError{RequestID: r.id, State: r.state, Action: "escalate"}
	}
	r.setState(StateUnderCommitteeReview)
	return nil
}

// RequestOpinions fans the request out to the named advisory commissions.
// Only the control committee may do this, and only while it owns the
// request.
func (r *ApprovalRequest) RequestOpinions(commissions []string) error {
	if r.state != StateUnderCommitteeReview && r.state != StateUnderAdvisoryReview {
		return &IllegalRequestStateError{RequestID: r.id, State: r.state, Action: "request opinions"}
	}
	if len(commissions) == 0 {
		return &IllegalRequestStateError{RequestID: r.id, State: r.state, Action: "request opinions from zero commissions"}
	}
	r.commissions = mergeCommissions(r.commissions, commissions)
	r.setState(StateUnderAdvisoryReview)
	return nil
}

// DecideByAuthority issues the authority's unilateral binding decision.
// Legal from Opened (taking up and deciding in one step) and from
// UnderAuthorityReview.
func (r *ApprovalRequest) DecideByAuthority(outcome Outcome, rationale string) error {
	if r.state != StateOpened && r.state != StateUnderAuthorityReview {
		return &IllegalRequestStateError{RequestID: r.id, State: r.state, Action: "authority decision"}
	}
	return r.decide(outcome, rationale)
}

// DecideByCommittee issues the committee's binding decision. Legal from
// committee review, including while advisory opinions are being collected;
// opinions never block the decision.
func (r *ApprovalRequest) DecideByCommittee(outcome Outcome, rationale string) error {
	if r.state != StateUnderCommitteeReview && r.state != StateUnderAdvisoryReview {
		return &IllegalRequestStateError{RequestID: r.id, State: r.state, Action: "committee decision"}
	}
	return r.decide(outcome, rationale)
}

func (r *ApprovalRequest) decide(outcome Outcome, rationale string) error {
	if outcome != OutcomeApproved && outcome != OutcomeRejected {
		return &IllegalRequestStateError{RequestID: r.id, State: r.state, Action: "decide with outcome " + string(outcome)}
	}
	now := time.Now().UTC()
	r.outcome = outcome
	r.rationale = rationale
	r.decidedAt = &now
	r.setState(StateDecided)
	return nil
}

// Withdraw closes the request at its proposer's initiative. Permitted only
// while the request is still Opened or under authority review; once the
// committee is involved the process must reach a decision.
func (r *ApprovalRequest) Withdraw() error {
	if r.state != StateOpened && r.state != StateUnderAuthorityReview {
		return &IllegalRequestStateError{RequestID: r.id, State: r.state, Action: "withdraw"}
	}
	r.outcome = OutcomeWithdrawn
	r.close()
	return nil
}

// Close finishes a decided request after its outcome has been committed to
// the item lifecycle.
func (r *ApprovalRequest) Close() error {
	if r.state != StateDecided {
		return &IllegalRequestStateError{RequestID: r.id, State: r.state, Action: "close"}
	}
	r.close()
	return nil
}

// CloseItemRemoved auto-rejects a request whose item was hard-deleted while
// the request was open.
func (r *ApprovalRequest) CloseItemRemoved() error {
	if !r.IsOpen() {
		return &RequestClosedError{RequestID: r.id}
	}
	now := time.Now().UTC()
	r.outcome = OutcomeRejected
	r.closeReason = ReasonItemRemoved
	r.decidedAt = &now
	r.close()
	return nil
}

// AcceptsOpinions reports whether advisory opinions may still be submitted
// or edited. Editing stops the instant the request is Decided.
func (r *ApprovalRequest) AcceptsOpinions() bool {
	return r.state == StateUnderAdvisoryReview
}

// ConsultedCommission reports whether the named commission was asked for an
// opinion on this request.
func (r *ApprovalRequest) ConsultedCommission(commissionID string) bool {
	for _, c := range r.commissions {
		if c == commissionID {
			return true
		}
	}
	return false
}

func (r *ApprovalRequest) close() {
	now := time.Now().UTC()
	r.closedAt = &now
	r.setState(StateClosed)
}

func (r *ApprovalRequest) setState(s RequestState) {
	r.state = s
	r.updatedAt = time.Now().UTC()
}

func mergeCommissions(existing, added []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := append([]string(nil), existing...)
	for _, c := range existing {
		seen[c] = struct{}{}
	}
	for _, c := range added {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
