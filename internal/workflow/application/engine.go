// Package application hosts the workflow engine: the operation surface over
// approval requests. It serializes state changes per request, enforces
// governance roles, and drives the registry commit when a request is
// decided.
package application

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/registra-io/registra/internal/identity"
	"github.com/registra-io/registra/internal/log"
	registryapp "github.com/registra-io/registra/internal/registry/application"
	registry "github.com/registra-io/registra/internal/registry/domain"
	"github.com/registra-io/registra/internal/tracing"
	"github.com/registra-io/registra/internal/workflow/domain"
)

// WorkflowEngine runs approval requests through their review stages:
// proposer opens, registration authority reviews or escalates, control
// committee decides, advisory commissions comment. A decided request commits
// exactly one status transition on its item and then closes.
type WorkflowEngine struct {
	requests domain.RequestRepository
	registry *registryapp.RegistryService
	identity identity.Provider
	tracer   trace.Tracer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewWorkflowEngine creates a new workflow engine. Tracer is optional.
func NewWorkflowEngine(requests domain.RequestRepository, reg *registryapp.RegistryService, provider identity.Provider, tracer trace.Tracer) *WorkflowEngine {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("registra")
	}
	return &WorkflowEngine{
		requests: requests,
		registry: reg,
		identity: provider,
		tracer:   tracer,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Ensure the engine satisfies the removed-item hook the registry calls.
var _ registryapp.OpenRequestCloser = (*WorkflowEngine)(nil)

// lock serializes on an arbitrary key.
func (e *WorkflowEngine) lock(key string) func() {
	e.mu.Lock()
	m, ok := e.locks[key]
	if !ok {
		m = &sync.Mutex{}
		e.locks[key] = m
	}
	e.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// lockRequest serializes workflow state changes per request id.
func (e *WorkflowEngine) lockRequest(id string) func() {
	return e.lock("request:" + id)
}

// lockItem serializes request opening per item id, so the one-open-request
// check and the save it guards are atomic.
func (e *WorkflowEngine) lockItem(id string) func() {
	return e.lock("item:" + id)
}

// RequestTransition opens an approval request to move an item to the target
// status. Fails when the move is illegal from the item's current status,
// when the item is not yet complete enough to leave Candidate, or when
// another request is already open for the item.
func (e *WorkflowEngine) RequestTransition(ctx context.Context, actor, itemID string, target registry.RegistrationStatus) (string, error) {
	ctx, span := e.tracer.Start(ctx, tracing.SpanPrefixWorkflow+"request_transition",
		trace.WithAttributes(
			attribute.String(tracing.AttrItemID, itemID),
			attribute.String(tracing.AttrTargetStatus, target.String()),
		))
	defer span.End()

	if err := e.requireRole(actor, identity.RoleProposer); err != nil {
		return "", e.fail(span, err)
	}

	unlock := e.lockItem(itemID)
	defer unlock()

	current, err := e.registry.GetItem(ctx, itemID, registry.SelectCurrent())
	if err != nil {
		return "", e.fail(span, err)
	}
	if !current.Status().CanTransition(target) {
		return "", e.fail(span, &registry.IllegalTransitionError{
			ItemID: itemID, From: current.Status(), To: target,
		})
	}
	if current.Status() == registry.StatusCandidate {
		if err := e.registry.ValidateForTransition(itemID); err != nil {
			return "", e.fail(span, err)
		}
	}

	if open, err := e.requests.FindOpenForItem(itemID); err != nil {
		return "", e.fail(span, err)
	} else if open != nil {
		return "", e.fail(span, &registry.RequestAlreadyPendingError{
			ItemID: itemID, PendingRequestID: open.ID(),
		})
	}

	req := domain.NewRequest(uuid.NewString(), itemID, target, actor)
	if err := e.requests.Save(req); err != nil {
		return "", e.fail(span, err)
	}
	if err := e.registry.MarkRequested(ctx, itemID, &target); err != nil {
		return "", e.fail(span, err)
	}

	log.Info(log.CatWorkflow, "transition requested",
		"request_id", req.ID(), "item_id", itemID, "target", target, "actor", actor)
	span.SetAttributes(attribute.String(tracing.AttrRequestID, req.ID()))
	span.SetStatus(codes.Ok, "")
	return req.ID(), nil
}

// BeginAuthorityReview marks the request as taken up by the registration
// authority.
func (e *WorkflowEngine) BeginAuthorityReview(ctx context.Context, actor, requestID string) error {
	if err := e.requireRole(actor, identity.RoleAuthority); err != nil {
		return err
	}

	unlock := e.lockRequest(requestID)
	defer unlock()

	req, err := e.requests.FindByID(requestID)
	if err != nil {
		return err
	}
	if err := req.StartAuthorityReview(); err != nil {
		return err
	}
	if err := e.requests.Save(req); err != nil {
		return err
	}
	log.Info(log.CatWorkflow, "authority review started",
		"request_id", requestID, "actor", actor)
	return nil
}

// RecordAuthorityDecision records the registration authority's verdict:
// Approved or Rejected settles the request unilaterally; Escalated hands it
// to the control committee.
func (e *WorkflowEngine) RecordAuthorityDecision(ctx context.Context, actor, requestID string, outcome domain.Outcome, rationale string) (domain.RequestState, error) {
	ctx, span := e.tracer.Start(ctx, tracing.SpanPrefixWorkflow+"authority_decision",
		trace.WithAttributes(
			attribute.String(tracing.AttrRequestID, requestID),
			attribute.String(tracing.AttrOutcome, string(outcome)),
		))
	defer span.End()

	if err := e.requireRole(actor, identity.RoleAuthority); err != nil {
		return "", e.fail(span, err)
	}

	unlock := e.lockRequest(requestID)
	defer unlock()

	req, err := e.requests.FindByID(requestID)
	if err != nil {
		return "", e.fail(span, err)
	}

	if outcome == domain.OutcomeEscalated {
		if req.State() == domain.StateOpened {
			if err := req.StartAuthorityReview(); err != nil {
				return "", e.fail(span, err)
			}
		}
		if err := req.Escalate(); err != nil {
			return "", e.fail(span, err)
		}
		if err := e.requests.Save(req); err != nil {
			return "", e.fail(span, err)
		}
		log.Info(log.CatWorkflow, "request escalated",
			"request_id", requestID, "actor", actor)
		span.SetStatus(codes.Ok, "")
		return req.State(), nil
	}

	if err := req.DecideByAuthority(outcome, rationale); err != nil {
		return "", e.fail(span, err)
	}
	if err := e.settle(ctx, req, actor); err != nil {
		return "", e.fail(span, err)
	}
	span.SetStatus(codes.Ok, "")
	return req.State(), nil
}

// RequestOpinions fans the request out to the named advisory commissions.
func (e *WorkflowEngine) RequestOpinions(ctx context.Context, actor, requestID string, commissions []string) error {
	if err := e.requireRole(actor, identity.RoleControlCommittee); err != nil {
		return err
	}

	unlock := e.lockRequest(requestID)
	defer unlock()

	req, err := e.requests.FindByID(requestID)
	if err != nil {
		return err
	}
	if err := req.RequestOpinions(commissions); err != nil {
		return err
	}
	if err := e.requests.Save(req); err != nil {
		return err
	}
	log.Info(log.CatWorkflow, "opinions requested",
		"request_id", requestID, "commissions", commissions, "actor", actor)
	return nil
}

// RecordCommitteeDecision records the control committee's binding verdict.
// Legal while the committee owns the request, including during advisory
// review: opinions inform, they never block.
func (e *WorkflowEngine) RecordCommitteeDecision(ctx context.Context, actor, requestID string, outcome domain.Outcome, rationale string) (domain.RequestState, error) {
	ctx, span := e.tracer.Start(ctx, tracing.SpanPrefixWorkflow+"committee_decision",
		trace.WithAttributes(
			attribute.String(tracing.AttrRequestID, requestID),
			attribute.String(tracing.AttrOutcome, string(outcome)),
		))
	defer span.End()

	if err := e.requireRole(actor, identity.RoleControlCommittee); err != nil {
		return "", e.fail(span, err)
	}

	unlock := e.lockRequest(requestID)
	defer unlock()

	req, err := e.requests.FindByID(requestID)
	if err != nil {
		return "", e.fail(span, err)
	}
	if err := req.DecideByCommittee(outcome, rationale); err != nil {
		return "", e.fail(span, err)
	}
	if err := e.settle(ctx, req, actor); err != nil {
		return "", e.fail(span, err)
	}
	span.SetStatus(codes.Ok, "")
	return req.State(), nil
}

// SubmitAdvisoryOpinion records (or, before the decision, replaces) one
// commission member's opinion on the request.
func (e *WorkflowEngine) SubmitAdvisoryOpinion(ctx context.Context, actor, requestID, commissionID string, value domain.OpinionValue, comment string) (*domain.Opinion, error) {
	_, span := e.tracer.Start(ctx, tracing.SpanPrefixWorkflow+"submit_opinion",
		trace.WithAttributes(
			attribute.String(tracing.AttrRequestID, requestID),
			attribute.String(tracing.AttrCommissionID, commissionID),
		))
	defer span.End()

	if e.identity != nil && !e.identity.MemberOfCommission(actor, commissionID) {
		return nil, e.fail(span, &identity.RoleError{
			Principal: actor, Role: identity.RoleAdvisoryCommission, Scope: commissionID,
		})
	}
	if !value.IsValid() {
		return nil, e.fail(span, &domain.IllegalRequestStateError{
			RequestID: requestID, Action: "submit opinion " + string(value),
		})
	}

	// Hold the request lock so an opinion cannot slip in between a
	// concurrent decision's state change and its save.
	unlock := e.lockRequest(requestID)
	defer unlock()

	req, err := e.requests.FindByID(requestID)
	if err != nil {
		return nil, e.fail(span, err)
	}
	if !req.AcceptsOpinions() {
		if req.IsDecided() || !req.IsOpen() {
			return nil, e.fail(span, &domain.RequestClosedError{RequestID: requestID})
		}
		return nil, e.fail(span, &domain.IllegalRequestStateError{
			RequestID: requestID, State: req.State(), Action: "submit opinion",
		})
	}
	if !req.ConsultedCommission(commissionID) {
		return nil, e.fail(span, &identity.RoleError{
			Principal: actor, Role: identity.RoleAdvisoryCommission, Scope: commissionID,
		})
	}

	op := domain.NewOpinion(requestID, commissionID, actor, value, comment)
	if err := e.requests.SaveOpinion(op); err != nil {
		return nil, e.fail(span, err)
	}
	log.Info(log.CatWorkflow, "opinion submitted",
		"request_id", requestID, "commission", commissionID, "member", actor, "value", value)
	span.SetStatus(codes.Ok, "")
	return op, nil
}

// WithdrawRequest closes a still-early request at its proposer's initiative.
func (e *WorkflowEngine) WithdrawRequest(ctx context.Context, actor, requestID string) error {
	ctx, span := e.tracer.Start(ctx, tracing.SpanPrefixWorkflow+"withdraw_request",
		trace.WithAttributes(attribute.String(tracing.AttrRequestID, requestID)))
	defer span.End()

	unlock := e.lockRequest(requestID)
	defer unlock()

	req, err := e.requests.FindByID(requestID)
	if err != nil {
		return e.fail(span, err)
	}
	if req.Proposer() != actor {
		return e.fail(span, &identity.RoleError{
			Principal: actor, Role: identity.RoleProposer, Scope: req.ItemID(),
		})
	}
	if err := req.Withdraw(); err != nil {
		return e.fail(span, err)
	}
	if err := e.requests.Save(req); err != nil {
		return e.fail(span, err)
	}
	if err := e.registry.MarkRequested(ctx, req.ItemID(), nil); err != nil {
		return e.fail(span, err)
	}
	log.Info(log.CatWorkflow, "request withdrawn",
		"request_id", requestID, "actor", actor)
	span.SetStatus(codes.Ok, "")
	return nil
}

// CloseForRemovedItem closes the item's open request, if any, marking it
// rejected because the item was removed. Called by the registry when a
// Candidate item is hard-deleted.
func (e *WorkflowEngine) CloseForRemovedItem(itemID string) error {
	req, err := e.requests.FindOpenForItem(itemID)
	if err != nil {
		return err
	}
	if req == nil {
		return nil
	}

	unlock := e.lockRequest(req.ID())
	defer unlock()

	if err := req.CloseItemRemoved(); err != nil {
		return err
	}
	if err := e.requests.Save(req); err != nil {
		return err
	}
	log.Info(log.CatWorkflow, "request closed, item removed",
		"request_id", req.ID(), "item_id", itemID)
	return nil
}

// GetRequest retrieves a request by id.
func (e *WorkflowEngine) GetRequest(_ context.Context, requestID string) (*domain.ApprovalRequest, error) {
	return e.requests.FindByID(requestID)
}

// ListRequestsForItem retrieves every request filed for an item, newest
// first.
func (e *WorkflowEngine) ListRequestsForItem(_ context.Context, itemID string) ([]*domain.ApprovalRequest, error) {
	return e.requests.ListForItem(itemID)
}

// OpinionsFor lists all opinions recorded on a request.
func (e *WorkflowEngine) OpinionsFor(_ context.Context, requestID string) ([]*domain.Opinion, error) {
	return e.requests.OpinionsFor(requestID)
}

// settle commits a decided request's outcome to the item lifecycle and
// closes the request. Approved commits the transition; Rejected records the
// rationale on a new version without changing status.
func (e *WorkflowEngine) settle(ctx context.Context, req *domain.ApprovalRequest, actor string) error {
	switch req.Outcome() {
	case domain.OutcomeApproved:
		if _, err := e.registry.CommitTransition(ctx, req.ItemID(), req.TargetStatus(), req.Rationale(), actor); err != nil {
			return err
		}
	case domain.OutcomeRejected:
		if _, err := e.registry.RecordRejection(ctx, req.ItemID(), req.Rationale(), actor); err != nil {
			return err
		}
	}
	if err := req.Close(); err != nil {
		return err
	}
	if err := e.requests.Save(req); err != nil {
		return err
	}
	log.Info(log.CatWorkflow, "request settled",
		"request_id", req.ID(), "item_id", req.ItemID(), "outcome", req.Outcome(), "actor", actor)
	return nil
}

func (e *WorkflowEngine) requireRole(actor string, role identity.Role) error {
	if e.identity == nil || e.identity.HasRole(actor, role) {
		return nil
	}
	return &identity.RoleError{Principal: actor, Role: role}
}

func (e *WorkflowEngine) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
