package repository

import (
	"go-accounting/internal/access"
	"go-accounting/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderItemRepository interface {
	WithTx(tx *gorm.DB) OrderItemRepository
	Create(item *model.OrderItem) error
	Update(item *model.OrderItem) error
	Delete(id uuid.UUID) error
	DeleteByPurchase(purchaseID uuid.UUID) error
	DeleteByOrder(orderID uuid.UUID) error
	FindByID(id uuid.UUID, p access.Principal) (*model.OrderItem, error)
	FindForUpdate(id uuid.UUID, p access.Principal) (*model.OrderItem, error)
	FindByOrder(orderID uuid.UUID) ([]model.OrderItem, error)
	FindAll(p access.Principal, f ListFilter) ([]model.OrderItem, error)
	FindByIDs(ids []uuid.UUID, p access.Principal) ([]model.OrderItem, error)
	OrderIDsByPurchase(purchaseID uuid.UUID) ([]uuid.UUID, error)
}

type orderItemRepo struct {
	db *gorm.DB
}

func NewOrderItemRepo(db *gorm.DB) OrderItemRepository {
	return &orderItemRepo{db}
}

func (r *orderItemRepo) WithTx(tx *gorm.DB) OrderItemRepository {
	return &orderItemRepo{tx}
}

func (r *orderItemRepo) Create(item *model.OrderItem) error {
	return r.db.Omit(clause.Associations).Create(item).Error
}

func (r *orderItemRepo) Update(item *model.OrderItem) error {
	return r.db.Omit(clause.Associations).Save(item).Error
}

func (r *orderItemRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.OrderItem{}, "id = ?", id).Error
}

func (r *orderItemRepo) DeleteByPurchase(purchaseID uuid.UUID) error {
	return r.db.Where("purchase_id = ?", purchaseID).Delete(&model.OrderItem{}).Error
}

func (r *orderItemRepo) DeleteByOrder(orderID uuid.UUID) error {
	return r.db.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error
}

func (r *orderItemRepo) FindByID(id uuid.UUID, p access.Principal) (*model.OrderItem, error) {
	var item model.OrderItem
	if err := r.db.Scopes(access.OrderOwnedBy(p)).Preload("Purchase").First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindForUpdate locks the item row. The previous quantity read here is the
// baseline for the stock delta.
func (r *orderItemRepo) FindForUpdate(id uuid.UUID, p access.Principal) (*model.OrderItem, error) {
	var item model.OrderItem
	if err := r.db.Scopes(access.OrderOwnedBy(p), forUpdate).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByOrder returns every item of the order joined with its purchase.
func (r *orderItemRepo) FindByOrder(orderID uuid.UUID) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.Preload("Purchase").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *orderItemRepo) FindAll(p access.Principal, f ListFilter) ([]model.OrderItem, error) {
	var items []model.OrderItem
	q := r.db.Scopes(access.OrderOwnedBy(p), f.paginate).Preload("Purchase")
	if f.hasSearch() {
		matching := r.db.Session(&gorm.Session{NewDB: true}).
			Table("purchases").
			Select("id").
			Where("LOWER(item) LIKE ?", f.pattern())
		q = q.Where("CAST(order_id AS TEXT) LIKE ? OR purchase_id IN (?)", f.pattern(), matching)
	}
	err := q.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *orderItemRepo) FindByIDs(ids []uuid.UUID, p access.Principal) ([]model.OrderItem, error) {
	var items []model.OrderItem
	q := r.db.Scopes(access.OrderOwnedBy(p))
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	err := q.Order("created_at DESC").Find(&items).Error
	return items, err
}

func (r *orderItemRepo) OrderIDsByPurchase(purchaseID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Model(&model.OrderItem{}).
		Where("purchase_id = ?", purchaseID).
		Distinct().
		Pluck("order_id", &ids).Error
	return ids, err
}
