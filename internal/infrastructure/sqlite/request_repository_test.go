package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	registry "github.com/registra-io/registra/internal/registry/domain"
	"github.com/registra-io/registra/internal/workflow/domain"
)

func setupRequestRepo(t *testing.T) *requestRepository {
	t.Helper()

	db, err := NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newRequestRepository(db.Connection())
}

func TestRequestRepository_SaveAndFind(t *testing.T) {
	repo := setupRequestRepo(t)

	req := domain.NewRequest("req-1", "item-1", registry.StatusRecorded, "alice")
	require.NoError(t, repo.Save(req))

	got, err := repo.FindByID("req-1")
	require.NoError(t, err)
	require.Equal(t, "item-1", got.ItemID())
	require.Equal(t, registry.StatusRecorded, got.TargetStatus())
	require.Equal(t, "alice", got.Proposer())
	require.Equal(t, domain.StateOpened, got.State())
	require.Nil(t, got.DecidedAt())

	_, err = repo.FindByID("ghost")
	var nf *domain.RequestNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRequestRepository_SaveUpdatesByID(t *testing.T) {
	repo := setupRequestRepo(t)

	req := domain.NewRequest("req-1", "item-1", registry.StatusRecorded, "alice")
	require.NoError(t, repo.Save(req))

	require.NoError(t, req.StartAuthorityReview())
	require.NoError(t, req.Escalate())
	require.NoError(t, req.RequestOpinions([]string{"medical", "legal"}))
	require.NoError(t, repo.Save(req))

	got, err := repo.FindByID("req-1")
	require.NoError(t, err)
	require.Equal(t, domain.StateUnderAdvisoryReview, got.State())
	require.ElementsMatch(t, []string{"medical", "legal"}, got.Commissions())
}

func TestRequestRepository_SingleOpenRequestPerItem(t *testing.T) {
	repo := setupRequestRepo(t)

	require.NoError(t, repo.Save(domain.NewRequest("req-1", "item-1", registry.StatusRecorded, "alice")))

	// The partial unique index rejects a second open request for the item.
	err := repo.Save(domain.NewRequest("req-2", "item-1", registry.StatusRecorded, "bob"))
	var open *domain.RequestAlreadyOpenError
	require.ErrorAs(t, err, &open)
	require.Equal(t, "item-1", open.ItemID)

	// Another item is unaffected.
	require.NoError(t, repo.Save(domain.NewRequest("req-3", "item-2", registry.StatusRecorded, "bob")))

	// Closing the first request frees the slot.
	first, err := repo.FindByID("req-1")
	require.NoError(t, err)
	require.NoError(t, first.Withdraw())
	require.NoError(t, repo.Save(first))
	require.NoError(t, repo.Save(domain.NewRequest("req-4", "item-1", registry.StatusQualified, "alice")))
}

func TestRequestRepository_FindOpenForItem(t *testing.T) {
	repo := setupRequestRepo(t)

	got, err := repo.FindOpenForItem("item-1")
	require.NoError(t, err)
	require.Nil(t, got)

	req := domain.NewRequest("req-1", "item-1", registry.StatusRecorded, "alice")
	require.NoError(t, repo.Save(req))

	got, err = repo.FindOpenForItem("item-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "req-1", got.ID())

	require.NoError(t, req.Withdraw())
	require.NoError(t, repo.Save(req))

	got, err = repo.FindOpenForItem("item-1")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRequestRepository_ListForItem(t *testing.T) {
	repo := setupRequestRepo(t)

	first := domain.NewRequest("req-1", "item-1", registry.StatusRecorded, "alice")
	require.NoError(t, repo.Save(first))
	require.NoError(t, first.Withdraw())
	require.NoError(t, repo.Save(first))
	require.NoError(t, repo.Save(domain.NewRequest("req-2", "item-1", registry.StatusRecorded, "alice")))
	require.NoError(t, repo.Save(domain.NewRequest("req-9", "item-2", registry.StatusRecorded, "bob")))

	requests, err := repo.ListForItem("item-1")
	require.NoError(t, err)
	require.Len(t, requests, 2)
	for _, req := range requests {
		require.Equal(t, "item-1", req.ItemID())
	}
}

func TestRequestRepository_DecisionRoundTrip(t *testing.T) {
	repo := setupRequestRepo(t)

	req := domain.NewRequest("req-1", "item-1", registry.StatusRecorded, "alice")
	require.NoError(t, repo.Save(req))
	require.NoError(t, req.DecideByAuthority(domain.OutcomeApproved, "well-defined"))
	require.NoError(t, req.Close())
	require.NoError(t, repo.Save(req))

	got, err := repo.FindByID("req-1")
	require.NoError(t, err)
	require.Equal(t, domain.StateClosed, got.State())
	require.Equal(t, domain.OutcomeApproved, got.Outcome())
	require.Equal(t, "well-defined", got.Rationale())
	require.NotNil(t, got.DecidedAt())
	require.NotNil(t, got.ClosedAt())
}

func TestRequestRepository_OpinionUpsert(t *testing.T) {
	repo := setupRequestRepo(t)

	req := domain.NewRequest("req-1", "item-1", registry.StatusRecorded, "alice")
	require.NoError(t, repo.Save(req))

	first := domain.NewOpinion("req-1", "medical", "dr-jones", domain.OpinionUnfavorable, "too vague")
	require.NoError(t, repo.SaveOpinion(first))

	// Same (request, commission, member) replaces the record.
	revised := domain.NewOpinion("req-1", "medical", "dr-jones", domain.OpinionFavorable, "clarified")
	require.NoError(t, repo.SaveOpinion(revised))

	// A different member is a distinct record.
	require.NoError(t, repo.SaveOpinion(
		domain.NewOpinion("req-1", "medical", "dr-smith", domain.OpinionAbstain, "")))

	opinions, err := repo.OpinionsFor("req-1")
	require.NoError(t, err)
	require.Len(t, opinions, 2)

	byMember := make(map[string]*domain.Opinion, len(opinions))
	for _, op := range opinions {
		byMember[op.MemberID] = op
	}
	require.Equal(t, domain.OpinionFavorable, byMember["dr-jones"].Value)
	require.Equal(t, "clarified", byMember["dr-jones"].Comment)
	require.Equal(t, domain.OpinionAbstain, byMember["dr-smith"].Value)
}
