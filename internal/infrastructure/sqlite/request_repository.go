package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/registra-io/registra/internal/workflow/domain"
)

// requestColumns is the list of columns to select for request queries.
const requestColumns = `id, item_id, target_status, proposer, state, outcome,
	rationale, close_reason, commissions, opened_at, decided_at, closed_at, updated_at`

// opinionColumns is the list of columns to select for opinion queries.
const opinionColumns = `request_id, commission_id, member_id, value, comment, submitted_at`

// requestRepository implements domain.RequestRepository using SQLite.
type requestRepository struct {
	db *sql.DB
}

// newRequestRepository creates a new requestRepository instance.
func newRequestRepository(db *sql.DB) *requestRepository {
	return &requestRepository{db: db}
}

// Ensure requestRepository implements domain.RequestRepository.
var _ domain.RequestRepository = (*requestRepository)(nil)

// scanRequest scans a row into a RequestModel.
func scanRequest(scanner interface{ Scan(...any) error }) (*RequestModel, error) {
	var model RequestModel
	err := scanner.Scan(
		&model.ID, &model.ItemID, &model.TargetStatus, &model.Proposer,
		&model.State, &model.Outcome, &model.Rationale, &model.CloseReason,
		&model.Commissions, &model.OpenedAt, &model.DecidedAt, &model.ClosedAt,
		&model.UpdatedAt,
	)
	return &model, err
}

// scanOpinion scans a row into an OpinionModel.
func scanOpinion(scanner interface{ Scan(...any) error }) (*OpinionModel, error) {
	var model OpinionModel
	err := scanner.Scan(
		&model.RequestID, &model.CommissionID, &model.MemberID,
		&model.Value, &model.Comment, &model.SubmittedAt,
	)
	return &model, err
}

// Save persists a request, inserting or updating by id. The partial unique
// index on (item_id) for non-closed rows rejects a second open request.
func (r *requestRepository) Save(req *domain.ApprovalRequest) error {
	model := toRequestModel(req)
	_, err := r.db.Exec(
		`INSERT INTO requests (
			id, item_id, target_status, proposer, state, outcome,
			rationale, close_reason, commissions, opened_at, decided_at, closed_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			state = excluded.state,
			outcome = excluded.outcome,
			rationale = excluded.rationale,
			close_reason = excluded.close_reason,
			commissions = excluded.commissions,
			decided_at = excluded.decided_at,
			closed_at = excluded.closed_at,
			updated_at = excluded.updated_at`,
		model.ID, model.ItemID, model.TargetStatus, model.Proposer,
		model.State, model.Outcome, model.Rationale, model.CloseReason,
		model.Commissions, model.OpenedAt, model.DecidedAt, model.ClosedAt,
		model.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: requests.item_id") {
			return &domain.RequestAlreadyOpenError{ItemID: model.ItemID}
		}
		return fmt.Errorf("save request: %w", err)
	}
	return nil
}

// FindByID retrieves a request by id.
func (r *requestRepository) FindByID(id string) (*domain.ApprovalRequest, error) {
	row := r.db.QueryRow(
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id,
	)
	model, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.RequestNotFoundError{RequestID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	return model.toDomain(), nil
}

// FindOpenForItem retrieves the single non-closed request for an item.
func (r *requestRepository) FindOpenForItem(itemID string) (*domain.ApprovalRequest, error) {
	row := r.db.QueryRow(
		`SELECT `+requestColumns+` FROM requests WHERE item_id = ? AND state != 'closed'`,
		itemID,
	)
	model, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query open request: %w", err)
	}
	return model.toDomain(), nil
}

// ListForItem retrieves all requests ever filed for an item, newest first.
func (r *requestRepository) ListForItem(itemID string) ([]*domain.ApprovalRequest, error) {
	rows, err := r.db.Query(
		`SELECT `+requestColumns+` FROM requests WHERE item_id = ?
		ORDER BY opened_at DESC, id DESC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var requests []*domain.ApprovalRequest
	for rows.Next() {
		model, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return requests, nil
}

// SaveOpinion inserts or replaces an opinion keyed by
// (request, commission, member).
func (r *requestRepository) SaveOpinion(op *domain.Opinion) error {
	model := toOpinionModel(op)
	_, err := r.db.Exec(
		`INSERT INTO opinions (request_id, commission_id, member_id, value, comment, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (request_id, commission_id, member_id) DO UPDATE SET
			value = excluded.value,
			comment = excluded.comment,
			submitted_at = excluded.submitted_at`,
		model.RequestID, model.CommissionID, model.MemberID,
		model.Value, model.Comment, model.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("save opinion: %w", err)
	}
	return nil
}

// OpinionsFor lists all opinions recorded on a request.
func (r *requestRepository) OpinionsFor(requestID string) ([]*domain.Opinion, error) {
	rows, err := r.db.Query(
		`SELECT `+opinionColumns+` FROM opinions WHERE request_id = ?
		ORDER BY submitted_at ASC, commission_id ASC, member_id ASC`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("query opinions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var opinions []*domain.Opinion
	for rows.Next() {
		model, err := scanOpinion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opinion: %w", err)
		}
		opinions = append(opinions, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opinions: %w", err)
	}
	return opinions, nil
}

// Close is a no-op; the connection is owned by DB.
func (r *requestRepository) Close() error {
	return nil
}
