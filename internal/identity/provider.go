// Package identity answers role-membership questions for the governance
// core: does principal P hold role R, optionally scoped to commission C.
// Membership is evaluated at call time and never retroactively changes past
// decisions.
package identity

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Role is one of the registry governance roles.
type Role string

const (
	RoleCoordinator        Role = "coordinator"
	RoleAdministrator      Role = "registry_software_administrator"
	RoleTrainer            Role = "trainer"
	RoleProposer           Role = "proposer"
	RoleAuthority          Role = "registration_authority"
	RoleControlCommittee   Role = "control_committee"
	RoleAdvisoryCommission Role = "advisory_commission"
)

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	switch r {
	case RoleCoordinator, RoleAdministrator, RoleTrainer, RoleProposer,
		RoleAuthority, RoleControlCommittee, RoleAdvisoryCommission:
		return true
	default:
		return false
	}
}

// Provider answers role-membership questions.
type Provider interface {
	// HasRole reports whether the principal currently holds the role.
	HasRole(principal string, role Role) bool

	// MemberOfCommission reports whether the principal is an advisory
	// commission member scoped to the named commission.
	MemberOfCommission(principal, commissionID string) bool
}

// Assignment binds a principal to a role, optionally scoped to named
// advisory commissions.
type Assignment struct {
	Principal   string   `yaml:"principal"`
	Role        Role     `yaml:"role"`
	Commissions []string `yaml:"commissions,omitempty"`
}

// StaticProvider is a Provider backed by an in-memory assignment list.
// Assignments are mutable at any time via Grant and Revoke.
type StaticProvider struct {
	mu          sync.RWMutex
	assignments []Assignment
}

// NewStaticProvider creates a provider with the given assignments.
func NewStaticProvider(assignments []Assignment) *StaticProvider {
	return &StaticProvider{assignments: append([]Assignment(nil), assignments...)}
}

// LoadAssignments reads a YAML assignment file:
//
//	assignments:
//	  - principal: alice
//	    role: registration_authority
//	  - principal: bob
//	    role: advisory_commission
//	    commissions: [privacy, terminology]
func LoadAssignments(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("read role assignments: %w", err)
	}
	var doc struct {
		Assignments []Assignment `yaml:"assignments"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse role assignments: %w", err)
	}
	for i, a := range doc.Assignments {
		if a.Principal == "" {
			return nil, fmt.Errorf("assignment %d: principal is required", i)
		}
		if !a.Role.IsValid() {
			return nil, fmt.Errorf("assignment %d: unknown role %q", i, a.Role)
		}
	}
	return NewStaticProvider(doc.Assignments), nil
}

// HasRole reports whether the principal currently holds the role.
func (p *StaticProvider) HasRole(principal string, role Role) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, a := range p.assignments {
		if a.Principal == principal && a.Role == role {
			return true
		}
	}
	return false
}

// MemberOfCommission reports whether the principal sits on the named
// advisory commission.
func (p *StaticProvider) MemberOfCommission(principal, commissionID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, a := range p.assignments {
		if a.Principal != principal || a.Role != RoleAdvisoryCommission {
			continue
		}
		for _, c := range a.Commissions {
			if c == commissionID {
				return true
			}
		}
	}
	return false
}

// Grant adds an assignment.
func (p *StaticProvider) Grant(a Assignment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assignments = append(p.assignments, a)
}

// Revoke removes every assignment matching principal and role.
func (p *StaticProvider) Revoke(principal string, role Role) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.assignments[:0]
	for _, a := range p.assignments {
		if a.Principal == principal && a.Role == role {
			continue
		}
		kept = append(kept, a)
	}
	p.assignments = kept
}
