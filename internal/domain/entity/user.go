package entity

import (
	"slices"
	"time"
)

// Roles válidos para User.
const (
	RoleAdmin       = "admin"
	RoleBodeguero   = "bodeguero"
	RoleSolicitante = "solicitante"
)

// Permisos que consume el motor de traslados.
const (
	PermissionManageWarehouse  = "MANAGE_WAREHOUSE"
	PermissionRequestInventory = "REQUEST_INVENTORY"
	PermissionViewRequests     = "VIEW_REQUESTS"
)

var rolePermissions = map[string][]string{
	RoleAdmin:       {PermissionManageWarehouse, PermissionRequestInventory, PermissionViewRequests},
	RoleBodeguero:   {PermissionManageWarehouse, PermissionViewRequests},
	RoleSolicitante: {PermissionRequestInventory, PermissionViewRequests},
}

// PermissionsForRole devuelve los permisos asociados a un rol (nil si el rol no existe).
func PermissionsForRole(role string) []string {
	return slices.Clone(rolePermissions[role])
}

// User representa un usuario del sistema (pertenece a una empresa).
type User struct {
	ID           string
	EnterpriseID string
	Email        string
	PasswordHash string // bcrypt hash
	Name         string
	Role         string
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor identidad autenticada que ejecuta una operación.
type Actor struct {
	ID           string
	EnterpriseID string
	Role         string
	Permissions  []string
}

// Can reporta si el actor tiene todos los permisos indicados.
func (a Actor) Can(perms ...string) bool {
	for _, p := range perms {
		if !slices.Contains(a.Permissions, p) {
			return false
		}
	}
	return true
}
