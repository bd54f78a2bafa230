// Package domain provides the pure domain layer for approval workflow
// requests with no infrastructure dependencies.
//
// An ApprovalRequest has its own state machine, independent of the item
// lifecycle it gates: Opened -> UnderAuthorityReview -> optionally
// UnderCommitteeReview -> optionally UnderAdvisoryReview -> Decided ->
// Closed. The two machines touch at exactly one point: a Decided outcome
// drives one registration status transition.
package domain
