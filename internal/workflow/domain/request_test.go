package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	registry "github.com/registra-io/registra/internal/registry/domain"
)

func newTestRequest() *ApprovalRequest {
	return NewRequest("req-1", "item-1", registry.StatusRecorded, "alice")
}

func TestNewRequest(t *testing.T) {
	req := newTestRequest()

	require.Equal(t, "req-1", req.ID())
	require.Equal(t, "item-1", req.ItemID())
	require.Equal(t, registry.StatusRecorded, req.TargetStatus())
	require.Equal(t, "alice", req.Proposer())
	require.Equal(t, StateOpened, req.State())
	require.True(t, req.IsOpen())
	require.False(t, req.IsDecided())
}

func TestApprovalRequest_AuthorityPath(t *testing.T) {
	req := newTestRequest()

	require.NoError(t, req.StartAuthorityReview())
	require.Equal(t, StateUnderAuthorityReview, req.State())

	require.NoError(t, req.DecideByAuthority(OutcomeApproved, "complete and well-defined"))
	require.Equal(t, StateDecided, req.State())
	require.Equal(t, OutcomeApproved, req.Outcome())
	require.NotNil(t, req.DecidedAt())

	require.NoError(t, req.Close())
	require.Equal(t, StateClosed, req.State())
	require.NotNil(t, req.ClosedAt())
	require.False(t, req.IsOpen())
}

func TestApprovalRequest_AuthorityMayDecideFromOpened(t *testing.T) {
	req := newTestRequest()
	require.NoError(t, req.DecideByAuthority(OutcomeRejected, "definition too vague"))
	require.Equal(t, OutcomeRejected, req.Outcome())
}

func TestApprovalRequest_EscalationPath(t *testing.T) {
	req := newTestRequest()
	require.NoError(t, req.StartAuthorityReview())
	require.NoError(t, req.Escalate())
	require.Equal(t, StateUnderCommitteeReview, req.State())

	// The authority lost its say after escalation.
	require.Error(t, req.DecideByAuthority(OutcomeApproved, ""))

	require.NoError(t, req.RequestOpinions([]string{"medical", "statistics"}))
	require.Equal(t, StateUnderAdvisoryReview, req.State())
	require.True(t, req.AcceptsOpinions())
	require.True(t, req.ConsultedCommission("medical"))
	require.False(t, req.ConsultedCommission("legal"))

	// Opinions never block: the committee may decide during advisory review.
	require.NoError(t, req.DecideByCommittee(OutcomeApproved, "commissions favorable"))
	require.Equal(t, StateDecided, req.State())
	require.False(t, req.AcceptsOpinions())
}

func TestApprovalRequest_RequestOpinionsMerges(t *testing.T) {
	req := newTestRequest()
	require.NoError(t, req.StartAuthorityReview())
	require.NoError(t, req.Escalate())
	require.NoError(t, req.RequestOpinions([]string{"medical"}))
	require.NoError(t, req.RequestOpinions([]string{"medical", "legal"}))
	require.ElementsMatch(t, []string{"medical", "legal"}, req.Commissions())
}

func TestApprovalRequest_DecisionIsFinal(t *testing.T) {
	req := newTestRequest()
	require.NoError(t, req.DecideByAuthority(OutcomeApproved, ""))

	require.Error(t, req.DecideByAuthority(OutcomeRejected, "changed my mind"))
	require.Error(t, req.DecideByCommittee(OutcomeRejected, ""))
	require.Error(t, req.Withdraw())
	require.Equal(t, OutcomeApproved, req.Outcome())
}

func TestApprovalRequest_CommitteeRequiresCommitteeReview(t *testing.T) {
	req := newTestRequest()
	require.Error(t, req.DecideByCommittee(OutcomeApproved, ""))

	require.NoError(t, req.StartAuthorityReview())
	require.Error(t, req.DecideByCommittee(OutcomeApproved, ""))
}

func TestApprovalRequest_DecideRejectsInvalidOutcome(t *testing.T) {
	req := newTestRequest()
	require.Error(t, req.DecideByAuthority(OutcomeWithdrawn, ""))
	require.Error(t, req.DecideByAuthority(OutcomeEscalated, ""))
	require.Error(t, req.DecideByAuthority(Outcome("maybe"), ""))
}

func TestApprovalRequest_Withdraw(t *testing.T) {
	t.Run("from opened", func(t *testing.T) {
		req := newTestRequest()
		require.NoError(t, req.Withdraw())
		require.Equal(t, StateClosed, req.State())
		require.Equal(t, OutcomeWithdrawn, req.Outcome())
	})

	t.Run("from authority review", func(t *testing.T) {
		req := newTestRequest()
		require.NoError(t, req.StartAuthorityReview())
		require.NoError(t, req.Withdraw())
		require.Equal(t, OutcomeWithdrawn, req.Outcome())
	})

	t.Run("not once the committee is involved", func(t *testing.T) {
		req := newTestRequest()
		require.NoError(t, req.StartAuthorityReview())
		require.NoError(t, req.Escalate())

		err := req.Withdraw()
		var serr *IllegalRequestStateError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, StateUnderCommitteeReview, serr.State)
	})
}

func TestApprovalRequest_CloseRequiresDecided(t *testing.T) {
	req := newTestRequest()
	require.Error(t, req.Close())
}

func TestApprovalRequest_CloseItemRemoved(t *testing.T) {
	req := newTestRequest()
	require.NoError(t, req.StartAuthorityReview())
	require.NoError(t, req.CloseItemRemoved())

	require.Equal(t, StateClosed, req.State())
	require.Equal(t, OutcomeRejected, req.Outcome())
	require.Equal(t, ReasonItemRemoved, req.CloseReason())
	require.NotNil(t, req.DecidedAt())

	// Closing twice is rejected.
	require.Error(t, req.CloseItemRemoved())
}
