package model

// Role groups the privilege codes a user starts with
type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // MASTER_ADMIN, ADMIN, CLERK
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

// Role codes as constants
const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleAdmin       = "ADMIN"
	RoleClerk       = "CLERK"
)

// DefaultRoles defines the default roles in the system
var DefaultRoles = []Role{
	{
		Code:        RoleMasterAdmin,
		Name:        "Master Administrator",
		Description: "Full system access with all privileges",
	},
	{
		Code:        RoleAdmin,
		Name:        "Administrator",
		Description: "Manages stock, orders and exports; no user management",
	},
	{
		Code:        RoleClerk,
		Name:        "Order Clerk",
		Description: "Records orders against existing stock",
	},
}

var clerkPrivileges = map[string]bool{
	"purchase:view":  true,
	"order:view":     true,
	"order:create":   true,
	"order:update":   true,
	"tally:view":     true,
	"export:csv":     true,
	"dashboard:view": true,
}

// Grants reports whether a role receives privilege code by default.
func (r *Role) Grants(code string) bool {
	switch r.Code {
	case RoleMasterAdmin:
		return true
	case RoleAdmin:
		switch code {
		case "user:create", "user:update", "user:delete", "user:update_privilege", "tally:recompute":
			return false
		}
		return true
	case RoleClerk:
		return clerkPrivileges[code]
	}
	return false
}
