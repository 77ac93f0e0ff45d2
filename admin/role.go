package admin

import "strings"

// Role is an administrative privilege level.
type Role string

const (
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

var roleLevels = map[Role]int{
	RoleEditor:     1,
	RoleAdmin:      2,
	RoleSuperadmin: 3,
}

// ParseRole maps s to a Role. Anything that is not exactly one of the known
// role names, after trimming and lowercasing, becomes RoleEditor.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r.Valid() {
		return r
	}
	return RoleEditor
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// AtLeast reports whether r grants at least the privileges of min. Unknown
// roles grant nothing.
func (r Role) AtLeast(min Role) bool {
	have, ok := roleLevels[r]
	if !ok {
		return false
	}
	return have >= roleLevels[min]
}

func (r Role) String() string {
	return string(r)
}
