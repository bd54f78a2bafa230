package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/registra-io/registra/internal/registry/domain"
)

// relationshipColumns is the list of columns to select for relationship queries.
const relationshipColumns = `id, source_id, target_id, name, attrs, created_at`

// relationshipRepository implements domain.RelationshipRepository using SQLite.
type relationshipRepository struct {
	db *sql.DB
}

// newRelationshipRepository creates a new relationshipRepository instance.
func newRelationshipRepository(db *sql.DB) *relationshipRepository {
	return &relationshipRepository{db: db}
}

// Ensure relationshipRepository implements domain.RelationshipRepository.
var _ domain.RelationshipRepository = (*relationshipRepository)(nil)

// scanRelationship scans a row into a RelationshipModel.
func scanRelationship(scanner interface{ Scan(...any) error }) (*RelationshipModel, error) {
	var model RelationshipModel
	err := scanner.Scan(
		&model.ID, &model.SourceID, &model.TargetID, &model.Name,
		&model.Attrs, &model.CreatedAt,
	)
	return &model, err
}

// Save persists a relationship edge.
func (r *relationshipRepository) Save(rel *domain.Relationship) error {
	model, err := toRelationshipModel(rel)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(
		`INSERT INTO relationships (id, source_id, target_id, name, attrs, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		model.ID, model.SourceID, model.TargetID, model.Name, model.Attrs, model.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &domain.DuplicateRelationshipError{
				SourceID: model.SourceID,
				TargetID: model.TargetID,
				Name:     model.Name,
			}
		}
		return fmt.Errorf("insert relationship: %w", err)
	}
	return nil
}

// FindByID retrieves one relationship.
func (r *relationshipRepository) FindByID(id string) (*domain.Relationship, error) {
	row := r.db.QueryRow(
		`SELECT `+relationshipColumns+` FROM relationships WHERE id = ?`, id,
	)
	model, err := scanRelationship(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "relationship", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query relationship: %w", err)
	}
	return model.toDomain()
}

// RelationshipsOf lists the edges touching an item in the given direction.
func (r *relationshipRepository) RelationshipsOf(itemID string, dir domain.Direction) ([]*domain.Relationship, error) {
	column := "source_id"
	if dir == domain.DirectionIncoming {
		column = "target_id"
	}
	rows, err := r.db.Query(
		`SELECT `+relationshipColumns+` FROM relationships
		WHERE `+column+` = ?
		ORDER BY created_at ASC, id ASC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rels []*domain.Relationship
	for rows.Next() {
		model, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rel, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}
	return rels, nil
}

// CountForItem returns the number of edges referencing the item on either end.
func (r *relationshipRepository) CountForItem(itemID string) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM relationships WHERE source_id = ? OR target_id = ?`,
		itemID, itemID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count relationships: %w", err)
	}
	return count, nil
}

// Delete removes an edge.
func (r *relationshipRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete relationship: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete relationship: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Kind: "relationship", ID: id}
	}
	return nil
}
