package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/registra-io/registra/internal/registry/domain"
)

func setupRelRepo(t *testing.T) (*relationshipRepository, *catalogStore) {
	t.Helper()

	db, err := NewMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newRelationshipRepository(db.Connection()), newCatalogStore(db.Connection())
}

func seedItem(t *testing.T, store *catalogStore, id string, variant domain.Variant) {
	t.Helper()
	_, err := store.Put(domain.NewFirstVersion(id, variant, domain.Attributes{Name: id}), 0)
	require.NoError(t, err)
}

func containsEdge(name string) domain.RelationshipAttributes {
	return domain.RelationshipAttributes{
		Name:        name,
		Definition:  "the set contains the element",
		Obligation:  domain.ObligationMandatory,
		Cardinality: domain.CardinalityMultiple,
	}
}

func TestRelationshipRepository_SaveAndFind(t *testing.T) {
	repo, store := setupRelRepo(t)
	seedItem(t, store, "dsd-1", domain.VariantDataSetDefinition)
	seedItem(t, store, "de-1", domain.VariantDataElement)

	attrs := containsEdge("contains")
	attrs.Extensions = map[string]domain.ExtensionValue{
		"reviewed": domain.BooleanValue(true),
	}
	rel := domain.NewRelationship("rel-1", "dsd-1", "de-1", attrs)
	require.NoError(t, repo.Save(rel))

	got, err := repo.FindByID("rel-1")
	require.NoError(t, err)
	require.Equal(t, "dsd-1", got.SourceID())
	require.Equal(t, "de-1", got.TargetID())
	require.Equal(t, "contains", got.Name())
	require.Equal(t, domain.ObligationMandatory, got.Attributes().Obligation)
	require.Equal(t, domain.BooleanValue(true), got.Attributes().Extensions["reviewed"])
}

func TestRelationshipRepository_DuplicateTriple(t *testing.T) {
	repo, store := setupRelRepo(t)
	seedItem(t, store, "dsd-1", domain.VariantDataSetDefinition)
	seedItem(t, store, "de-1", domain.VariantDataElement)

	require.NoError(t, repo.Save(domain.NewRelationship("rel-1", "dsd-1", "de-1", containsEdge("contains"))))

	err := repo.Save(domain.NewRelationship("rel-2", "dsd-1", "de-1", containsEdge("contains")))
	var dup *domain.DuplicateRelationshipError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "contains", dup.Name)

	// A different name between the same endpoints is a different edge.
	require.NoError(t, repo.Save(domain.NewRelationship("rel-3", "dsd-1", "de-1", containsEdge("requires"))))
}

func TestRelationshipRepository_RelationshipsOf(t *testing.T) {
	repo, store := setupRelRepo(t)
	seedItem(t, store, "dsd-1", domain.VariantDataSetDefinition)
	seedItem(t, store, "dsd-2", domain.VariantDataSetDefinition)
	seedItem(t, store, "de-1", domain.VariantDataElement)

	require.NoError(t, repo.Save(domain.NewRelationship("rel-1", "dsd-1", "de-1", containsEdge("contains"))))
	require.NoError(t, repo.Save(domain.NewRelationship("rel-2", "dsd-2", "de-1", containsEdge("contains"))))

	out, err := repo.RelationshipsOf("dsd-1", domain.DirectionOutgoing)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "rel-1", out[0].ID())

	in, err := repo.RelationshipsOf("de-1", domain.DirectionIncoming)
	require.NoError(t, err)
	require.Len(t, in, 2)

	none, err := repo.RelationshipsOf("de-1", domain.DirectionOutgoing)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestRelationshipRepository_CountForItem(t *testing.T) {
	repo, store := setupRelRepo(t)
	seedItem(t, store, "dsd-1", domain.VariantDataSetDefinition)
	seedItem(t, store, "de-1", domain.VariantDataElement)

	count, err := repo.CountForItem("de-1")
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, repo.Save(domain.NewRelationship("rel-1", "dsd-1", "de-1", containsEdge("contains"))))

	count, err = repo.CountForItem("de-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = repo.CountForItem("dsd-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRelationshipRepository_Delete(t *testing.T) {
	repo, store := setupRelRepo(t)
	seedItem(t, store, "dsd-1", domain.VariantDataSetDefinition)
	seedItem(t, store, "de-1", domain.VariantDataElement)

	require.NoError(t, repo.Save(domain.NewRelationship("rel-1", "dsd-1", "de-1", containsEdge("contains"))))
	require.NoError(t, repo.Delete("rel-1"))

	_, err := repo.FindByID("rel-1")
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)

	require.ErrorAs(t, repo.Delete("rel-1"), &nf)

	// The triple is free again after deletion.
	require.NoError(t, repo.Save(domain.NewRelationship("rel-4", "dsd-1", "de-1", containsEdge("contains"))))
}
