package auth

import "time"

// User is a portal account. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	RoleIDs      []string  `json:"roleIds"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Role groups permissions under a name. A user holds zero or more roles and
// its effective permission set is the union of all assigned roles' grants.
type Role struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	PermissionIDs []string  `json:"permissionIds"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Permission is an opaque capability tag, e.g. "page:eventos".
type Permission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// PermissionPages are the portal pages gated by a "page:" permission.
var PermissionPages = []string{
	"agenda",
	"eventos",
	"actividades",
	"oficios",
	"informes",
	"distritos",
	"responsables",
	"config/catalog",
	"users",
}

// PagePermission returns the permission string guarding a portal page.
func PagePermission(page string) string {
	return "page:" + page
}

// BuiltinPermissions returns the full page permission catalog.
func BuiltinPermissions() []Permission {
	perms := make([]Permission, 0, len(PermissionPages))
	for _, page := range PermissionPages {
		perms = append(perms, Permission{
			Name:        PagePermission(page),
			Description: "Acceso a la página de " + page,
		})
	}
	return perms
}
