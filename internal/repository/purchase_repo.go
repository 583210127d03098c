package repository

import (
	"go-accounting/internal/access"
	"go-accounting/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var lockingUpdate = clause.Locking{Strength: "UPDATE"}

type PurchaseRepository interface {
	WithTx(tx *gorm.DB) PurchaseRepository
	Create(purchase *model.Purchase) error
	Update(purchase *model.Purchase) error
	Delete(id uuid.UUID) error
	FindByID(id uuid.UUID, p access.Principal) (*model.Purchase, error)
	FindForUpdate(id uuid.UUID, p access.Principal) (*model.Purchase, error)
	FindAll(p access.Principal, f ListFilter) ([]model.Purchase, error)
	FindByIDs(ids []uuid.UUID, p access.Principal) ([]model.Purchase, error)
	AdjustQuantity(id uuid.UUID, change int, updatedBy string) error
}

type purchaseRepo struct {
	db *gorm.DB
}

func NewPurchaseRepo(db *gorm.DB) PurchaseRepository {
	return &purchaseRepo{db}
}

func (r *purchaseRepo) WithTx(tx *gorm.DB) PurchaseRepository {
	return &purchaseRepo{tx}
}

func (r *purchaseRepo) Create(purchase *model.Purchase) error {
	return r.db.Omit(clause.Associations).Create(purchase).Error
}

func (r *purchaseRepo) Update(purchase *model.Purchase) error {
	return r.db.Omit(clause.Associations).Save(purchase).Error
}

func (r *purchaseRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Purchase{}, "id = ?", id).Error
}

func (r *purchaseRepo) FindByID(id uuid.UUID, p access.Principal) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := r.db.Scopes(access.OwnedBy(p)).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindForUpdate is FindByID plus a row lock.
func (r *purchaseRepo) FindForUpdate(id uuid.UUID, p access.Principal) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := r.db.Scopes(access.OwnedBy(p), forUpdate).First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepo) FindAll(p access.Principal, f ListFilter) ([]model.Purchase, error) {
	var purchases []model.Purchase
	q := r.db.Scopes(access.OwnedBy(p), f.dateRange("purchase_date"), f.paginate)
	if f.hasSearch() {
		q = q.Where("LOWER(item) LIKE ? OR CAST(id AS TEXT) LIKE ?", f.pattern(), f.pattern())
	}
	err := q.Order("purchase_date DESC, item ASC").Find(&purchases).Error
	return purchases, err
}

func (r *purchaseRepo) FindByIDs(ids []uuid.UUID, p access.Principal) ([]model.Purchase, error) {
	var purchases []model.Purchase
	q := r.db.Scopes(access.OwnedBy(p))
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	err := q.Order("purchase_date DESC, item ASC").Find(&purchases).Error
	return purchases, err
}

// AdjustQuantity adds change (negative when stock leaves) in a single
// UPDATE so concurrent writers cannot lose each other's delta.
func (r *purchaseRepo) AdjustQuantity(id uuid.UUID, change int, updatedBy string) error {
	return r.db.Model(&model.Purchase{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", change),
			"updated_by": updatedBy,
		}).Error
}
