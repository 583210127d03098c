package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// ListFilter carries the admin list-view search box and date filter.
type ListFilter struct {
	Search string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

func (f ListFilter) pattern() string {
	return "%" + strings.ToLower(strings.TrimSpace(f.Search)) + "%"
}

func (f ListFilter) hasSearch() bool {
	return strings.TrimSpace(f.Search) != ""
}

// dateRange applies From/To (inclusive) on column.
func (f ListFilter) dateRange(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.From != nil {
			db = db.Where(column+" >= ?", *f.From)
		}
		if f.To != nil {
			db = db.Where(column+" <= ?", *f.To)
		}
		return db
	}
}

func (f ListFilter) paginate(db *gorm.DB) *gorm.DB {
	if f.Limit > 0 {
		db = db.Limit(f.Limit)
	}
	if f.Offset > 0 {
		db = db.Offset(f.Offset)
	}
	return db
}

// forUpdate locks the selected rows until the surrounding transaction ends.
// SQLite ignores the clause; it serialises writers on its own.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(lockingUpdate)
}
