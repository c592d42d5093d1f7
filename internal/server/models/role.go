package models

// Role is the account role recorded on every account.
type Role string

const (
	RoleSuperAdmin       Role = "SuperAdmin"
	RoleAdmin            Role = "Admin"
	RolePublisher        Role = "Publisher"
	RoleCertificateOwner Role = "CertificateOwner"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RolePublisher, RoleCertificateOwner:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }
