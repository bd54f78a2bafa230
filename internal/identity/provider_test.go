package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRole_IsValid(t *testing.T) {
	for _, r := range []Role{
		RoleCoordinator, RoleAdministrator, RoleTrainer, RoleProposer,
		RoleAuthority, RoleControlCommittee, RoleAdvisoryCommission,
	} {
		require.True(t, r.IsValid(), string(r))
	}
	require.False(t, Role("janitor").IsValid())
	require.False(t, Role("").IsValid())
}

func TestStaticProvider_HasRole(t *testing.T) {
	p := NewStaticProvider([]Assignment{
		{Principal: "alice", Role: RoleProposer},
		{Principal: "alice", Role: RoleAuthority},
		{Principal: "bob", Role: RoleControlCommittee},
	})

	require.True(t, p.HasRole("alice", RoleProposer))
	require.True(t, p.HasRole("alice", RoleAuthority))
	require.False(t, p.HasRole("alice", RoleControlCommittee))
	require.False(t, p.HasRole("bob", RoleProposer))
	require.False(t, p.HasRole("eve", RoleProposer))
}

func TestStaticProvider_MemberOfCommission(t *testing.T) {
	p := NewStaticProvider([]Assignment{
		{Principal: "carol", Role: RoleAdvisoryCommission, Commissions: []string{"privacy", "terminology"}},
		{Principal: "dan", Role: RoleControlCommittee, Commissions: []string{"privacy"}},
	})

	require.True(t, p.MemberOfCommission("carol", "privacy"))
	require.True(t, p.MemberOfCommission("carol", "terminology"))
	require.False(t, p.MemberOfCommission("carol", "finance"))

	// Commission scope only counts on the advisory commission role.
	require.False(t, p.MemberOfCommission("dan", "privacy"))
}

func TestStaticProvider_GrantAndRevoke(t *testing.T) {
	p := NewStaticProvider(nil)
	require.False(t, p.HasRole("alice", RoleProposer))

	p.Grant(Assignment{Principal: "alice", Role: RoleProposer})
	require.True(t, p.HasRole("alice", RoleProposer))

	p.Grant(Assignment{Principal: "alice", Role: RoleAuthority})
	p.Revoke("alice", RoleProposer)
	require.False(t, p.HasRole("alice", RoleProposer))
	require.True(t, p.HasRole("alice", RoleAuthority), "revoke is scoped to one role")
}

func TestLoadAssignments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
assignments:
  - principal: alice
    role: registration_authority
  - principal: bob
    role: advisory_commission
    commissions: [privacy, terminology]
`), 0o600))

	p, err := LoadAssignments(path)
	require.NoError(t, err)
	require.True(t, p.HasRole("alice", RoleAuthority))
	require.True(t, p.MemberOfCommission("bob", "privacy"))
	require.False(t, p.MemberOfCommission("bob", "finance"))
}

func TestLoadAssignments_Invalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAssignments(filepath.Join(dir, "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		path := filepath.Join(dir, "bad-role.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
assignments:
  - principal: alice
    role: janitor
`), 0o600))
		_, err := LoadAssignments(path)
		require.ErrorContains(t, err, "unknown role")
	})

	t.Run("missing principal", func(t *testing.T) {
		path := filepath.Join(dir, "no-principal.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
assignments:
  - role: proposer
`), 0o600))
		_, err := LoadAssignments(path)
		require.ErrorContains(t, err, "principal is required")
	})
}

func TestRoleError_Error(t *testing.T) {
	err := &RoleError{Principal: "eve", Role: RoleProposer}
	require.Contains(t, err.Error(), "eve")
	require.Contains(t, err.Error(), "proposer")

	scoped := &RoleError{Principal: "eve", Role: RoleAdvisoryCommission, Scope: "privacy"}
	require.Contains(t, scoped.Error(), "privacy")
}
