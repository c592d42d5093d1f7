package access

import "github.com/chelseaoktaviany/sertifica-app-backend/internal/server/models"

// Role sets per operation group.
var (
	// Category management and certificate issuance/browsing.
	IssuerRoles = []models.Role{models.RolePublisher, models.RoleAdmin, models.RoleSuperAdmin}

	// Claiming and listing one's own certificates.
	OwnerRoles = []models.Role{models.RoleCertificateOwner}

	// Account listing.
	AdminRoles = []models.Role{models.RoleAdmin, models.RoleSuperAdmin}

	// Admin account registration.
	SuperAdminRoles = []models.Role{models.RoleSuperAdmin}

	AllRoles = []models.Role{models.RoleSuperAdmin, models.RoleAdmin, models.RolePublisher, models.RoleCertificateOwner}
)
