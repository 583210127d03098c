package service

import (
	"errors"
	"fmt"

	"go-accounting/internal/access"
	"go-accounting/internal/model"
	"go-accounting/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Totals is what a FinalTally stores.
type Totals struct {
	PurchaseAmount decimal.Decimal `json:"purchase_amount"`
	SellAmount     decimal.Decimal `json:"sell_amount"`
	ProfitLoss     decimal.Decimal `json:"profit_loss"`
}

// ComputeTally sums unit price x quantity over items. An empty set yields
// zeros; an item without its Purchase loaded is an error, not a zero line.
func ComputeTally(items []model.OrderItem) (Totals, error) {
	purchaseSum := decimal.Zero
	sellSum := decimal.Zero
	for _, item := range items {
		if item.Purchase == nil {
			return Totals{}, fmt.Errorf("order item %s has no purchase loaded", item.ID)
		}
		qty := decimal.NewFromInt(int64(item.QuantitySent))
		purchaseSum = purchaseSum.Add(item.Purchase.PurchasePrice.Mul(qty))
		sellSum = sellSum.Add(item.Purchase.SalePrice.Mul(qty))
	}
	return Totals{
		PurchaseAmount: purchaseSum,
		SellAmount:     sellSum,
		ProfitLoss:     sellSum.Sub(purchaseSum),
	}, nil
}

type TallyService interface {
	// Recompute must be called inside the transaction that mutated the order
	// or its items. It creates the tally when it does not exist yet.
	Recompute(tx *gorm.DB, orderID uuid.UUID, actor string) (*model.FinalTally, error)
	RecomputeAll(p access.Principal) (int, error)
	GetByOrderID(orderID uuid.UUID, p access.Principal) (*model.FinalTally, error)
	GetAll(p access.Principal, f repository.ListFilter) ([]model.FinalTally, error)
	GetByIDs(ids []uuid.UUID, p access.Principal) ([]model.FinalTally, error)
}

type tallyService struct {
	tallyRepo repository.TallyRepository
	itemRepo  repository.OrderItemRepository
	db        *gorm.DB
}

func NewTallyService(tRepo repository.TallyRepository, iRepo repository.OrderItemRepository, db *gorm.DB) TallyService {
	return &tallyService{
		tallyRepo: tRepo,
		itemRepo:  iRepo,
		db:        db,
	}
}

func (s *tallyService) Recompute(tx *gorm.DB, orderID uuid.UUID, actor string) (*model.FinalTally, error) {
	items, err := s.itemRepo.WithTx(tx).FindByOrder(orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	totals, err := ComputeTally(items)
	if err != nil {
		return nil, err
	}

	tallies := s.tallyRepo.WithTx(tx)
	tally, err := tallies.FindByOrderID(orderID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load final tally: %w", err)
		}
		// Missing tallies (e.g. orders that predate this rule) are recreated
		tally = &model.FinalTally{OrderID: orderID}
		tally.CreatedBy = actor
	}

	tally.PurchaseAmount = totals.PurchaseAmount
	tally.SellAmount = totals.SellAmount
	tally.ProfitLoss = totals.ProfitLoss
	tally.UpdatedBy = actor

	if err := tallies.Save(tally); err != nil {
		return nil, fmt.Errorf("save final tally: %w", err)
	}
	return tally, nil
}

// RecomputeAll rebuilds every tally visible to p, one transaction per order.
func (s *tallyService) RecomputeAll(p access.Principal) (int, error) {
	orderIDs, err := s.tallyRepo.OrderIDs(p)
	if err != nil {
		return 0, err
	}
	for i, id := range orderIDs {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			_, err := s.Recompute(tx, id, p.Actor())
			return err
		})
		if err != nil {
			return i, err
		}
	}
	return len(orderIDs), nil
}

func (s *tallyService) GetByOrderID(orderID uuid.UUID, p access.Principal) (*model.FinalTally, error) {
	tally, err := s.tallyRepo.FindVisibleByOrderID(orderID, p)
	if err != nil {
		return nil, notFound(err, ErrTallyNotFound)
	}
	return tally, nil
}

func (s *tallyService) GetAll(p access.Principal, f repository.ListFilter) ([]model.FinalTally, error) {
	return s.tallyRepo.FindAll(p, f)
}

func (s *tallyService) GetByIDs(ids []uuid.UUID, p access.Principal) ([]model.FinalTally, error) {
	return s.tallyRepo.FindByIDs(ids, p)
}
