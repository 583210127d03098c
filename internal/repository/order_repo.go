package repository

import (
	"go-accounting/internal/access"
	"go-accounting/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(order *model.Order) error
	Update(order *model.Order) error
	Delete(id uuid.UUID) error
	FindByID(id uuid.UUID, p access.Principal) (*model.Order, error)
	FindForUpdate(id uuid.UUID, p access.Principal) (*model.Order, error)
	FindAll(p access.Principal, f ListFilter) ([]model.Order, error)
	FindByIDs(ids []uuid.UUID, p access.Principal) ([]model.Order, error)
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepo{tx}
}

func (r *orderRepo) Create(order *model.Order) error {
	return r.db.Omit(clause.Associations).Create(order).Error
}

func (r *orderRepo) Update(order *model.Order) error {
	return r.db.Omit(clause.Associations).Save(order).Error
}

func (r *orderRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Order{}, "id = ?", id).Error
}

// FindByID loads the order with its items (and their purchases) and tally,
// the shape of the admin edit view.
func (r *orderRepo) FindByID(id uuid.UUID, p access.Principal) (*model.Order, error) {
	var order model.Order
	err := r.db.Scopes(access.OwnedBy(p)).
		Preload("OrderItems", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("OrderItems.Purchase").
		Preload("FinalTally").
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindForUpdate(id uuid.UUID, p access.Principal) (*model.Order, error) {
	var order model.Order
	if err := r.db.Scopes(access.OwnedBy(p), forUpdate).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindAll(p access.Principal, f ListFilter) ([]model.Order, error) {
	var orders []model.Order
	q := r.db.Scopes(access.OwnedBy(p), f.dateRange("date"), f.paginate).Preload("FinalTally")
	if f.hasSearch() {
		q = q.Where("LOWER(customer_name) LIKE ? OR CAST(id AS TEXT) LIKE ?", f.pattern(), f.pattern())
	}
	err := q.Order("date DESC, created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) FindByIDs(ids []uuid.UUID, p access.Principal) ([]model.Order, error) {
	var orders []model.Order
	q := r.db.Scopes(access.OwnedBy(p))
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	err := q.Order("date DESC, created_at DESC").Find(&orders).Error
	return orders, err
}
