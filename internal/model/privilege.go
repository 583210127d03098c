package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "purchase:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Purchase"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: "user:view", Name: "View User"},
	{Code: "user:create", Name: "Create User"},
	{Code: "user:update", Name: "Update User"},
	{Code: "user:delete", Name: "Delete User"},
	{Code: "user:update_privilege", Name: "Update User Privileges"},
	// Purchase (stock) management
	{Code: "purchase:view", Name: "View Purchase"},
	{Code: "purchase:create", Name: "Create Purchase"},
	{Code: "purchase:update", Name: "Update Purchase"},
	{Code: "purchase:delete", Name: "Delete Purchase"},
	// Order management, including inline order items
	{Code: "order:view", Name: "View Order"},
	{Code: "order:create", Name: "Create Order"},
	{Code: "order:update", Name: "Update Order"},
	{Code: "order:delete", Name: "Delete Order"},
	// Tallies are derived; only viewing and forced recompute exist
	{Code: "tally:view", Name: "View Final Tally"},
	{Code: "tally:recompute", Name: "Recompute Final Tallies"},
	// CSV export of selected rows
	{Code: "export:csv", Name: "Export Selected as CSV"},
	// Dashboard
	{Code: "dashboard:view", Name: "View Dashboard"},
}
