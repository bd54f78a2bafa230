package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/registra-io/registra/internal/registry/domain"
)

// versionColumns is the list of columns to select for version queries.
const versionColumns = `v.item_id, i.variant, v.number, v.status, v.requested_status,
	v.rationale, v.attrs, v.created_at, v.updated_at`

// catalogStore implements domain.CatalogStore using SQLite. Version numbers
// are assigned inside the insert transaction, so two concurrent writers over
// the same base cannot both commit.
type catalogStore struct {
	db *sql.DB
}

// newCatalogStore creates a new catalogStore instance.
func newCatalogStore(db *sql.DB) *catalogStore {
	return &catalogStore{db: db}
}

// Ensure catalogStore implements domain.CatalogStore.
var _ domain.CatalogStore = (*catalogStore)(nil)

// scanVersion scans a row into a VersionModel.
func scanVersion(scanner interface{ Scan(...any) error }) (*VersionModel, error) {
	var model VersionModel
	err := scanner.Scan(
		&model.ItemID, &model.Variant, &model.Number, &model.Status,
		&model.RequestedStatus, &model.Rationale, &model.Attrs,
		&model.CreatedAt, &model.UpdatedAt,
	)
	return &model, err
}

// Put appends a version to the item's log and returns the assigned number.
func (s *catalogStore) Put(version *domain.Version, expectedBase int) (int, error) {
	model, err := toVersionModel(version)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var base int
	err = tx.QueryRow(
		`SELECT COALESCE(MAX(number), 0) FROM versions WHERE item_id = ?`,
		model.ItemID,
	).Scan(&base)
	if err != nil {
		return 0, fmt.Errorf("read current version: %w", err)
	}
	if base != expectedBase {
		return 0, &domain.ConflictError{
			ItemID:       model.ItemID,
			ExpectedBase: expectedBase,
			ActualBase:   base,
		}
	}

	if base == 0 {
		_, err = tx.Exec(
			`INSERT INTO items (id, variant, created_at) VALUES (?, ?, ?)`,
			model.ItemID, model.Variant, model.CreatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert item: %w", err)
		}
	}

	number := base + 1
	_, err = tx.Exec(
		`INSERT INTO versions (
			item_id, number, status, requested_status, rationale, attrs, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		model.ItemID, number, model.Status, model.RequestedStatus,
		model.Rationale, model.Attrs, model.CreatedAt, model.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit version: %w", err)
	}
	return number, nil
}

// Get resolves one version of an item per the selector.
func (s *catalogStore) Get(itemID string, sel domain.VersionSelector) (*domain.Version, error) {
	var row *sql.Row
	switch {
	case sel.IsCurrent():
		row = s.db.QueryRow(
			`SELECT `+versionColumns+` FROM versions v
			JOIN items i ON i.id = v.item_id
			WHERE v.item_id = ?
			ORDER BY v.number DESC LIMIT 1`,
			itemID,
		)
	case sel.AsOf() != nil:
		row = s.db.QueryRow(
			`SELECT `+versionColumns+` FROM versions v
			JOIN items i ON i.id = v.item_id
			WHERE v.item_id = ? AND v.created_at <= ?
			ORDER BY v.number DESC LIMIT 1`,
			itemID, sel.AsOf().Unix(),
		)
	default:
		row = s.db.QueryRow(
			`SELECT `+versionColumns+` FROM versions v
			JOIN items i ON i.id = v.item_id
			WHERE v.item_id = ? AND v.number = ?`,
			itemID, sel.Number(),
		)
	}

	model, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Kind: "version", ID: itemID}
	}
	if err != nil {
		return nil, fmt.Errorf("query version: %w", err)
	}
	return model.toDomain()
}

// ListVersions returns every version of an item ordered by number ascending.
func (s *catalogStore) ListVersions(itemID string) ([]*domain.Version, error) {
	rows, err := s.db.Query(
		`SELECT `+versionColumns+` FROM versions v
		JOIN items i ON i.id = v.item_id
		WHERE v.item_id = ?
		ORDER BY v.number ASC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []*domain.Version
	for rows.Next() {
		model, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, &domain.NotFoundError{Kind: "item", ID: itemID}
	}
	return versions, nil
}

// SetRequestedStatus marks or clears the pending transition on the current
// version row.
func (s *catalogStore) SetRequestedStatus(itemID string, target *domain.RegistrationStatus) error {
	var value *string
	if target != nil {
		v := string(*target)
		value = &v
	}
	result, err := s.db.Exec(
		`UPDATE versions SET requested_status = ?
		WHERE item_id = ? AND number = (SELECT MAX(number) FROM versions WHERE item_id = ?)`,
		value, itemID, itemID,
	)
	if err != nil {
		return fmt.Errorf("set requested status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set requested status: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Kind: "item", ID: itemID}
	}
	return nil
}

// DeleteItem hard-deletes every version of an item.
func (s *catalogStore) DeleteItem(itemID string) error {
	result, err := s.db.Exec(`DELETE FROM items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if affected == 0 {
		return &domain.NotFoundError{Kind: "item", ID: itemID}
	}
	return nil
}

// Close is a no-op; the connection is owned by DB.
func (s *catalogStore) Close() error {
	return nil
}
