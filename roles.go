package portalauth

// Role is a fixed-vocabulary access-level code returned by the auth API.
type Role string

const (
	RoleStudent  Role = "STUDENT"
	RoleTPC      Role = "TPC"
	RoleDeptHead Role = "DEPT_HEAD"
	RoleAdmin    Role = "ADMIN"
)

// String returns the wire form of the role.
func (r Role) String() string { return string(r) }

// Known reports whether r is one of the four portal roles.
func (r Role) Known() bool {
	switch r {
	case RoleStudent, RoleTPC, RoleDeptHead, RoleAdmin:
		return true
	}
	return false
}

// AdminView reports whether r grants elevated (non-student) navigation.
// Comparison is exact: lowercase or padded values are not admin roles.
func (r Role) AdminView() bool {
	switch r {
	case RoleTPC, RoleDeptHead, RoleAdmin:
		return true
	}
	return false
}

// AdminOnly reports whether r is exactly ADMIN.
func (r Role) AdminOnly() bool {
	return r == RoleAdmin
}

// RegistrationRoles lists the access levels a user may pick when registering.
// ADMIN accounts are provisioned out of band.
var RegistrationRoles = []Role{RoleStudent, RoleTPC, RoleDeptHead}
