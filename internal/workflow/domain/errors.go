package domain

import "fmt"

// RequestNotFoundError indicates an unknown request id.
type RequestNotFoundError struct {
	RequestID string
}

func (e *RequestNotFoundError) Error() string {
	return fmt.Sprintf("request %s not found", e.RequestID)
}

// RequestClosedError indicates an operation on a request that has already
// been decided or closed. Decisions are final: no opinion edits or further
// decision calls succeed.
type RequestClosedError struct {
	RequestID string
}

func (e *RequestClosedError) Error() string {
	return fmt.Sprintf("request %s is already decided or closed", e.RequestID)
}

// RequestAlreadyOpenError indicates an attempt to open a second request for
// an item that already has one in flight.
type RequestAlreadyOpenError struct {
	ItemID string
}

func (e *RequestAlreadyOpenError) Error() string {
	return fmt.Sprintf("item %s already has an open request", e.ItemID)
}

// IllegalRequestStateError indicates an action that is not legal in the
// request's current review stage.
type IllegalRequestStateError struct {
	RequestID string
	State     RequestState
	Action    string
}

func (e *IllegalRequestStateError) Error() string {
	return fmt.Sprintf("request %s: cannot %s while %s", e.RequestID, e.Action, e.State)
}
