package domain

// RequestRepository defines the persistence interface for approval requests
// and their advisory opinions. Opinion writes from distinct members never
// contend: opinions are keyed by (request, commission, member).
type RequestRepository interface {
	// Save persists a request, inserting or updating by id.
	Save(req *ApprovalRequest) error

	// FindByID retrieves a request by id.
	// Returns *RequestNotFoundError if no matching request exists.
	FindByID(id string) (*ApprovalRequest, error)

	// FindOpenForItem retrieves the single non-closed request for an item,
	// or nil when none is open.
	FindOpenForItem(itemID string) (*ApprovalRequest, error)

	// ListForItem retrieves all requests ever filed for an item, newest
	// first.
	ListForItem(itemID string) ([]*ApprovalRequest, error)

	// SaveOpinion inserts or replaces an opinion keyed by
	// (request, commission, member).
	SaveOpinion(op *Opinion) error

	// OpinionsFor lists all opinions recorded on a request, ordered by
	// submission time ascending.
	OpinionsFor(requestID string) ([]*Opinion, error)

	// Close releases any resources held by the repository.
	Close() error
}
