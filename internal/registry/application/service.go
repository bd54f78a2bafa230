// Package application hosts the registry service: the operation surface over
// the catalog store and relationship graph. It owns per-item write
// serialization, current-version caching, role checks, and the best-effort
// notification fan-out.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/registra-io/registra/internal/cachemanager"
	"github.com/registra-io/registra/internal/identity"
	"github.com/registra-io/registra/internal/log"
	"github.com/registra-io/registra/internal/notify"
	"github.com/registra-io/registra/internal/registry/domain"
	"github.com/registra-io/registra/internal/schema"
	"github.com/registra-io/registra/internal/tracing"
)

// currentVersionTTL bounds staleness of the read-through current-version
// cache between explicit invalidations.
const currentVersionTTL = 30 * time.Second

// OpenRequestCloser closes any open approval request for an item removed
// from the catalog. Implemented by the workflow engine.
type OpenRequestCloser interface {
	CloseForRemovedItem(itemID string) error
}

// RegistryService exposes the catalog operations: item creation and
// revision, version reads, relationship edges, and the commit hooks the
// workflow engine drives when a transition request is decided.
type RegistryService struct {
	store    domain.CatalogStore
	rels     domain.RelationshipRepository
	schemas  *schema.Holder
	identity identity.Provider
	notifier notify.Sink
	requests OpenRequestCloser
	tracer   trace.Tracer

	locks   *keyedMutex
	current *cachemanager.ReadThroughCache[string, *domain.Version, string]
}

// Deps carries the collaborators a RegistryService needs. Notifier, Requests
// and Tracer are optional; the rest are required.
type Deps struct {
	Store    domain.CatalogStore
	Rels     domain.RelationshipRepository
	Schemas  *schema.Holder
	Identity identity.Provider
	Notifier notify.Sink
	Requests OpenRequestCloser
	Tracer   trace.Tracer
}

// NewRegistryService creates a new registry service.
func NewRegistryService(deps Deps) *RegistryService {
	tracer := deps.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("registra")
	}
	s := &RegistryService{
		store:    deps.Store,
		rels:     deps.Rels,
		schemas:  deps.Schemas,
		identity: deps.Identity,
		notifier: deps.Notifier,
		requests: deps.Requests,
		tracer:   tracer,
		locks:    newKeyedMutex(),
	}
	cache := cachemanager.NewInMemoryCacheManager[string, *domain.Version](
		"current_version", currentVersionTTL, time.Minute,
	)
	s.current = cachemanager.NewReadThroughCache(cache,
		func(_ context.Context, itemID string) (*domain.Version, error) {
			return s.store.Get(itemID, domain.SelectCurrent())
		}, false)
	return s
}

// SetRequestCloser wires the workflow engine after construction. The service
// and the engine reference each other, so one side is attached late.
func (s *RegistryService) SetRequestCloser(c OpenRequestCloser) {
	s.requests = c
}

// validator builds a Validator bound to the live extension schema and the
// store's current-version resolver.
func (s *RegistryService) validator() *domain.Validator {
	v := &domain.Validator{
		Resolve: func(itemID string) (*domain.Version, error) {
			return s.store.Get(itemID, domain.SelectCurrent())
		},
	}
	if s.schemas != nil {
		v.Schema = s.schemas.Current()
	}
	return v
}

// CreateItem registers a new item at version 1. Status is forced to
// Candidate regardless of what the caller intends to request later.
func (s *RegistryService) CreateItem(ctx context.Context, actor string, variant domain.Variant, attrs domain.Attributes) (string, int, error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanPrefixRegistry+"create_item")
	defer span.End()

	if err := s.requireRole(actor, identity.RoleProposer); err != nil {
		return "", 0, s.fail(span, err)
	}
	if !variant.IsValid() {
		return "", 0, s.fail(span, &domain.ValidationError{Fields: []string{"variant: unknown item kind"}})
	}
	normalized, err := s.validator().ValidateItem(variant, attrs)
	if err != nil {
		return "", 0, s.fail(span, err)
	}

	itemID := uuid.NewString()
	span.SetAttributes(
		attribute.String(tracing.AttrItemID, itemID),
		attribute.String(tracing.AttrItemVariant, variant.String()),
	)

	unlock := s.locks.Lock(itemID)
	defer unlock()

	version := domain.NewFirstVersion(itemID, variant, normalized)
	number, err := s.store.Put(version, 0)
	if err != nil {
		return "", 0, s.fail(span, err)
	}
	s.invalidate(ctx, itemID)

	log.Info(log.CatRegistry, "item created",
		"item_id", itemID, "variant", variant, "actor", actor)
	span.SetStatus(codes.Ok, "")
	return itemID, number, nil
}

// ReviseItem appends a new version with updated attributes. expectedBase is
// the version number the caller last read; a stale base fails with
// *ConflictError and nothing is written.
func (s *RegistryService) ReviseItem(ctx context.Context, actor, itemID string, expectedBase int, attrs domain.Attributes) (int, error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanPrefixRegistry+"revise_item",
		trace.WithAttributes(
			attribute.String(tracing.AttrItemID, itemID),
			attribute.Int(tracing.AttrBaseVersion, expectedBase),
		))
	defer span.End()

	if err := s.requireRole(actor, identity.RoleProposer); err != nil {
		return 0, s.fail(span, err)
	}

	unlock := s.locks.Lock(itemID)
	defer unlock()

	current, err := s.store.Get(itemID, domain.SelectCurrent())
	if err != nil {
		return 0, s.fail(span, err)
	}
	normalized, err := s.validator().ValidateItem(current.Variant(), attrs)
	if err != nil {
		return 0, s.fail(span, err)
	}

	number, err := s.store.Put(current.Successor(normalized), expectedBase)
	if err != nil {
		return 0, s.fail(span, err)
	}
	s.invalidate(ctx, itemID)

	log.Info(log.CatRegistry, "item revised",
		"item_id", itemID, "version", number, "actor", actor)
	span.SetAttributes(attribute.Int(tracing.AttrVersion, number))
	span.SetStatus(codes.Ok, "")
	return number, nil
}

// GetItem resolves one version of an item: a concrete number, the current
// version, or the version that was current at a point in time. Reads never
// take the item lock.
func (s *RegistryService) GetItem(ctx context.Context, itemID string, sel domain.VersionSelector) (*domain.Version, error) {
	if sel.IsCurrent() {
		return s.current.Get(ctx, itemID, itemID, currentVersionTTL)
	}
	return s.store.Get(itemID, sel)
}

// ListVersions returns the full version history of an item, oldest first.
func (s *RegistryService) ListVersions(_ context.Context, itemID string) ([]*domain.Version, error) {
	return s.store.ListVersions(itemID)
}

// DeleteItem hard-deletes an item that has never left Candidate. Items at
// Recorded or above are locked forever; items referenced by relationship
// edges must be detached first. Any open transition request is closed as
// item-removed.
func (s *RegistryService) DeleteItem(ctx context.Context, actor, itemID string) error {
	ctx, span := s.tracer.Start(ctx, tracing.SpanPrefixRegistry+"delete_item",
		trace.WithAttributes(attribute.String(tracing.AttrItemID, itemID)))
	defer span.End()

	if err := s.requireRole(actor, identity.RoleProposer); err != nil {
		return s.fail(span, err)
	}

	unlock := s.locks.Lock(itemID)
	defer unlock()

	versions, err := s.store.ListVersions(itemID)
	if err != nil {
		return s.fail(span, err)
	}
	for _, v := range versions {
		if v.Status() != domain.StatusCandidate {
			return s.fail(span, &domain.LockedItemError{ItemID: itemID, Status: v.Status()})
		}
	}

	edges, err := s.rels.CountForItem(itemID)
	if err != nil {
		return s.fail(span, err)
	}
	if edges > 0 {
		return s.fail(span, &domain.EndpointInUseError{ItemID: itemID, Edges: edges})
	}

	if s.requests != nil {
		if err := s.requests.CloseForRemovedItem(itemID); err != nil {
			return s.fail(span, err)
		}
	}
	if err := s.store.DeleteItem(itemID); err != nil {
		return s.fail(span, err)
	}
	s.invalidate(ctx, itemID)

	log.Info(log.CatRegistry, "item deleted", "item_id", itemID, "actor", actor)
	span.SetStatus(codes.Ok, "")
	return nil
}

// AddRelationship attaches a named edge from a Data Set Definition to
// another item.
func (s *RegistryService) AddRelationship(ctx context.Context, actor, sourceID, targetID string, attrs domain.RelationshipAttributes) (string, error) {
	_, span := s.tracer.Start(ctx, tracing.SpanPrefixRegistry+"add_relationship",
		trace.WithAttributes(
			attribute.String(tracing.AttrSourceID, sourceID),
			attribute.String(tracing.AttrTargetID, targetID),
		))
	defer span.End()

	if err := s.requireRole(actor, identity.RoleProposer); err != nil {
		return "", s.fail(span, err)
	}
	normalized, err := s.validator().ValidateRelationship(sourceID, targetID, attrs)
	if err != nil {
		return "", s.fail(span, err)
	}

	rel := domain.NewRelationship(uuid.NewString(), sourceID, targetID, normalized)
	if err := s.rels.Save(rel); err != nil {
		return "", s.fail(span, err)
	}

	log.Info(log.CatRegistry, "relationship added",
		"relationship_id", rel.ID(), "source_id", sourceID, "target_id", targetID,
		"name", normalized.Name, "actor", actor)
	span.SetAttributes(attribute.String(tracing.AttrRelationshipID, rel.ID()))
	span.SetStatus(codes.Ok, "")
	return rel.ID(), nil
}

// DetachRelationship removes an edge.
func (s *RegistryService) DetachRelationship(ctx context.Context, actor, relationshipID string) error {
	_, span := s.tracer.Start(ctx, tracing.SpanPrefixRegistry+"detach_relationship",
		trace.WithAttributes(attribute.String(tracing.AttrRelationshipID, relationshipID)))
	defer span.End()

	if err := s.requireRole(actor, identity.RoleProposer); err != nil {
		return s.fail(span, err)
	}
	if err := s.rels.Delete(relationshipID); err != nil {
		return s.fail(span, err)
	}

	log.Info(log.CatRegistry, "relationship detached",
		"relationship_id", relationshipID, "actor", actor)
	span.SetStatus(codes.Ok, "")
	return nil
}

// RelationshipsOf lists the edges touching an item in the given direction.
func (s *RegistryService) RelationshipsOf(_ context.Context, itemID string, dir domain.Direction) ([]*domain.Relationship, error) {
	return s.rels.RelationshipsOf(itemID, dir)
}

// DiffVersions renders a textual diff of the name and definition between two
// versions of the same item.
func (s *RegistryService) DiffVersions(_ context.Context, itemID string, a, b int) (string, error) {
	va, err := s.store.Get(itemID, domain.SelectNumber(a))
	if err != nil {
		return "", err
	}
	vb, err := s.store.Get(itemID, domain.SelectNumber(b))
	if err != nil {
		return "", err
	}

	textOf := func(v *domain.Version) string {
		attrs := v.Attributes()
		return fmt.Sprintf("name: %s\ndefinition: %s\n", attrs.Name, attrs.Definition)
	}

	dmp := diffmatchpatch.New()
	patches := dmp.PatchMake(textOf(va), textOf(vb))
	return dmp.PatchToText(patches), nil
}

// ValidateForTransition checks the item's current attributes satisfy the
// stricter rules that apply before a status request may leave Candidate.
func (s *RegistryService) ValidateForTransition(itemID string) error {
	current, err := s.store.Get(itemID, domain.SelectCurrent())
	if err != nil {
		return err
	}
	_, err = s.validator().ValidateForTransition(current.Variant(), current.Attributes())
	return err
}

// MarkRequested marks or clears (target nil) the pending transition flag on
// the item's current version. Driven by the workflow engine.
func (s *RegistryService) MarkRequested(ctx context.Context, itemID string, target *domain.RegistrationStatus) error {
	unlock := s.locks.Lock(itemID)
	defer unlock()

	if err := s.store.SetRequestedStatus(itemID, target); err != nil {
		return err
	}
	s.invalidate(ctx, itemID)
	return nil
}

// CommitTransition appends the version that moves an item to its approved
// target status, clears the pending flag, and notifies. Called exactly once
// per decided request; legality was verified when the request was opened and
// is re-verified here against the live status.
func (s *RegistryService) CommitTransition(ctx context.Context, itemID string, target domain.RegistrationStatus, rationale, actor string) (int, error) {
	ctx, span := s.tracer.Start(ctx, tracing.SpanPrefixRegistry+"commit_transition",
		trace.WithAttributes(
			attribute.String(tracing.AttrItemID, itemID),
			attribute.String(tracing.AttrItemStatus, target.String()),
		))
	defer span.End()

	unlock := s.locks.Lock(itemID)
	defer unlock()

	current, err := s.store.Get(itemID, domain.SelectCurrent())
	if err != nil {
		return 0, s.fail(span, err)
	}
	if !current.Status().CanTransition(target) {
		return 0, s.fail(span, &domain.IllegalTransitionError{
			ItemID: itemID, From: current.Status(), To: target,
		})
	}

	next := current.SuccessorWithStatus(target, rationale)
	number, err := s.store.Put(next, current.Number())
	if err != nil {
		return 0, s.fail(span, err)
	}
	s.invalidate(ctx, itemID)
	s.notifyChange(notify.StatusChange{
		ItemID:    itemID,
		OldStatus: current.Status(),
		NewStatus: target,
		Actor:     actor,
		At:        time.Now().UTC(),
	})

	log.Info(log.CatRegistry, "status committed",
		"item_id", itemID, "status", target, "version", number, "actor", actor)
	span.SetAttributes(attribute.Int(tracing.AttrVersion, number))
	span.SetStatus(codes.Ok, "")
	return number, nil
}

// RecordRejection appends a version that records the rejection rationale
// without changing the item's status, and clears the pending flag.
func (s *RegistryService) RecordRejection(ctx context.Context, itemID, rationale, actor string) (int, error) {
	unlock := s.locks.Lock(itemID)
	defer unlock()

	current, err := s.store.Get(itemID, domain.SelectCurrent())
	if err != nil {
		return 0, err
	}

	next := current.SuccessorWithStatus(current.Status(), rationale)
	number, err := s.store.Put(next, current.Number())
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, itemID)
	s.notifyChange(notify.StatusChange{
		ItemID:    itemID,
		OldStatus: current.Status(),
		NewStatus: current.Status(),
		Actor:     actor,
		At:        time.Now().UTC(),
	})

	log.Info(log.CatRegistry, "rejection recorded",
		"item_id", itemID, "version", number, "actor", actor)
	return number, nil
}

func (s *RegistryService) requireRole(actor string, role identity.Role) error {
	if s.identity == nil || s.identity.HasRole(actor, role) {
		return nil
	}
	return &identity.RoleError{Principal: actor, Role: role}
}

func (s *RegistryService) invalidate(ctx context.Context, itemID string) {
	if err := s.current.Invalidate(ctx, itemID); err != nil {
		log.ErrorErr(log.CatCache, "invalidate current version", err, "item_id", itemID)
	}
}

// notifyChange delivers a status change to the sink. Delivery is advisory:
// a sink failure is logged and never rolls back the governance write.
func (s *RegistryService) notifyChange(change notify.StatusChange) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(change); err != nil {
		log.ErrorErr(log.CatNotify, "status change notification failed", err,
			"item_id", change.ItemID)
	}
}

func (s *RegistryService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
