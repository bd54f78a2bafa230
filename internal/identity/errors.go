package identity

import "fmt"

// RoleError indicates the acting principal does not hold the role an
// operation requires. Scope, when set, names the advisory commission the
// check was scoped to.
type RoleError struct {
	Principal string
	Role      Role
	Scope     string
}

func (e *RoleError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("principal %s does not hold role %s for %s", e.Principal, e.Role, e.Scope)
	}
	return fmt.Sprintf("principal %s does not hold role %s", e.Principal, e.Role)
}
