// Package access decides which rows a requesting user may see or pick.
//
// A non-superuser sees exactly the purchases and orders they own. Order
// items and final tallies follow the owner of their order. Superusers see
// everything. There are no roles or delegation at this level; route-level
// privileges are checked separately by the middleware.
package access

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Principal is the authenticated identity a query runs on behalf of.
type Principal struct {
	UserID      uuid.UUID
	IsSuperuser bool
}

// System is used by seeders and maintenance commands.
var System = Principal{IsSuperuser: true}

// Visible reports whether a row owned by ownerID is visible to p.
func Visible(ownerID uuid.UUID, p Principal) bool {
	if p.IsSuperuser {
		return true
	}
	return p.UserID != uuid.Nil && ownerID == p.UserID
}

// Actor is the value stored in CreatedBy/UpdatedBy audit columns.
func (p Principal) Actor() string {
	if p.UserID == uuid.Nil {
		return "system"
	}
	return p.UserID.String()
}

// OwnedBy restricts a query on a table with a user_id column.
func OwnedBy(p Principal) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.IsSuperuser {
			return db
		}
		return db.Where("user_id = ?", p.UserID)
	}
}

// OrderOwnedBy restricts a query on a table with an order_id column to
// rows whose order is owned by p.
func OrderOwnedBy(p Principal) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.IsSuperuser {
			return db
		}
		owned := db.Session(&gorm.Session{NewDB: true}).
			Table("orders").
			Select("id").
			Where("user_id = ?", p.UserID)
		return db.Where("order_id IN (?)", owned)
	}
}
