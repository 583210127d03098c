package repository

import (
	"go-accounting/internal/access"
	"go-accounting/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TallyRepository interface {
	WithTx(tx *gorm.DB) TallyRepository
	Save(tally *model.FinalTally) error
	DeleteByOrder(orderID uuid.UUID) error
	FindByOrderID(orderID uuid.UUID) (*model.FinalTally, error)
	FindVisibleByOrderID(orderID uuid.UUID, p access.Principal) (*model.FinalTally, error)
	FindAll(p access.Principal, f ListFilter) ([]model.FinalTally, error)
	FindByIDs(ids []uuid.UUID, p access.Principal) ([]model.FinalTally, error)
	OrderIDs(p access.Principal) ([]uuid.UUID, error)
}

type tallyRepo struct {
	db *gorm.DB
}

func NewTallyRepo(db *gorm.DB) TallyRepository {
	return &tallyRepo{db}
}

func (r *tallyRepo) WithTx(tx *gorm.DB) TallyRepository {
	return &tallyRepo{tx}
}

// Save inserts a new tally or overwrites the amounts of an existing one.
func (r *tallyRepo) Save(tally *model.FinalTally) error {
	if tally.ID == uuid.Nil {
		return r.db.Omit(clause.Associations).Create(tally).Error
	}
	return r.db.Omit(clause.Associations).Save(tally).Error
}

func (r *tallyRepo) DeleteByOrder(orderID uuid.UUID) error {
	return r.db.Where("order_id = ?", orderID).Delete(&model.FinalTally{}).Error
}

func (r *tallyRepo) FindByOrderID(orderID uuid.UUID) (*model.FinalTally, error) {
	var tally model.FinalTally
	if err := r.db.First(&tally, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &tally, nil
}

func (r *tallyRepo) FindVisibleByOrderID(orderID uuid.UUID, p access.Principal) (*model.FinalTally, error) {
	var tally model.FinalTally
	if err := r.db.Scopes(access.OrderOwnedBy(p)).First(&tally, "order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &tally, nil
}

func (r *tallyRepo) FindAll(p access.Principal, f ListFilter) ([]model.FinalTally, error) {
	var tallies []model.FinalTally
	q := r.db.Scopes(access.OrderOwnedBy(p), f.paginate)
	if f.hasSearch() {
		q = q.Where("CAST(order_id AS TEXT) LIKE ?", f.pattern())
	}
	err := q.Order("updated_at DESC").Find(&tallies).Error
	return tallies, err
}

func (r *tallyRepo) FindByIDs(ids []uuid.UUID, p access.Principal) ([]model.FinalTally, error) {
	var tallies []model.FinalTally
	q := r.db.Scopes(access.OrderOwnedBy(p))
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	err := q.Order("updated_at DESC").Find(&tallies).Error
	return tallies, err
}

// OrderIDs lists every order visible to p, with or without a tally, so a
// full recompute can also repair missing rows.
func (r *tallyRepo) OrderIDs(p access.Principal) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Model(&model.Order{}).Scopes(access.OwnedBy(p)).Pluck("id", &ids).Error
	return ids, err
}
