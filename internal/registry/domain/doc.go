// Package domain provides the pure domain layer for registry items with no
// infrastructure dependencies.
//
// This package follows Domain-Driven Design (DDD) principles:
//   - Contains only pure Go code with standard library imports
//   - Defines the Version entity (an item is an append-only log of Versions)
//     and the Relationship entity with encapsulated state and behavior
//   - Defines the registration status lifecycle and its one-way progression
//   - Defines the CatalogStore and RelationshipRepository interfaces for
//     persistence abstraction
//   - Provides domain-specific error types
//
// The domain layer has no knowledge of infrastructure concerns (databases,
// file I/O, etc.).
package domain
