package service

import (
	"bytes"
	"fmt"
	"sort"

	"go-accounting/internal/access"
	"go-accounting/internal/model"
	"go-accounting/internal/repository"
	"go-accounting/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItemInput is the body of create/update requests and of inline rows
// in an order edit.
type OrderItemInput struct {
	OrderID      uuid.UUID `json:"order_id"`
	PurchaseID   uuid.UUID `json:"purchase_id"`
	QuantitySent int       `json:"quantity_sent"`
}

func (in OrderItemInput) validate() error {
	return validator.Check(&model.OrderItem{
		OrderID:      in.OrderID,
		PurchaseID:   in.PurchaseID,
		QuantitySent: in.QuantitySent,
	})
}

type OrderItemService interface {
	CreateOrderItem(in OrderItemInput, p access.Principal) (*model.OrderItem, error)
	UpdateOrderItem(id uuid.UUID, in OrderItemInput, p access.Principal) (*model.OrderItem, error)
	DeleteOrderItem(id uuid.UUID, p access.Principal) error
	GetOrderItem(id uuid.UUID, p access.Principal) (*model.OrderItem, error)
	GetAllOrderItems(p access.Principal, f repository.ListFilter) ([]model.OrderItem, error)
	GetOrderItemsByIDs(ids []uuid.UUID, p access.Principal) ([]model.OrderItem, error)
}

// itemWriter applies the stock adjustment rule and the tally recomputation
// rule for one item mutation. Every method runs inside the caller's
// transaction and returns the stock and tally events to broadcast after
// commit.
type itemWriter struct {
	purchaseRepo repository.PurchaseRepository
	orderRepo    repository.OrderRepository
	itemRepo     repository.OrderItemRepository
	tallies      TallyService
}

type stockChange struct {
	quantity int
	owner    uuid.UUID
}

type tallyChange struct {
	tally *model.FinalTally
	owner uuid.UUID
}

type itemEvents struct {
	stock   map[uuid.UUID]stockChange
	tallies map[uuid.UUID]tallyChange
}

func newItemEvents() *itemEvents {
	return &itemEvents{stock: map[uuid.UUID]stockChange{}, tallies: map[uuid.UUID]tallyChange{}}
}

func (w *itemWriter) adjust(tx *gorm.DB, ev *itemEvents, purchaseID uuid.UUID, change int, actor string) error {
	if change == 0 {
		return nil
	}
	purchases := w.purchaseRepo.WithTx(tx)
	if err := purchases.AdjustQuantity(purchaseID, change, actor); err != nil {
		return fmt.Errorf("adjust purchase quantity: %w", err)
	}
	updated, err := purchases.FindByID(purchaseID, access.System)
	if err != nil {
		return notFound(err, ErrPurchaseNotFound)
	}
	ev.stock[purchaseID] = stockChange{quantity: updated.Quantity, owner: updated.UserID}
	return nil
}

// lockOrders takes row locks on orders in ascending id order. Writers lock
// orders before purchases, so two transactions touching the same rows
// queue instead of deadlocking.
func lockOrders(tx *gorm.DB, orders repository.OrderRepository, ids ...uuid.UUID) error {
	sorted := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			sorted = append(sorted, id)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i][:], sorted[j][:]) < 0 })

	repo := orders.WithTx(tx)
	for _, id := range sorted {
		if _, err := repo.FindForUpdate(id, access.System); err != nil {
			return notFound(err, ErrOrderNotFound)
		}
	}
	return nil
}

// recomputeTally rewrites an order's tally under the order's row lock so
// concurrent item writers cannot overwrite each other's totals.
func recomputeTally(tx *gorm.DB, orders repository.OrderRepository, tallies TallyService, ev *itemEvents, orderID uuid.UUID, actor string) error {
	order, err := orders.WithTx(tx).FindForUpdate(orderID, access.System)
	if err != nil {
		return notFound(err, ErrOrderNotFound)
	}
	tally, err := tallies.Recompute(tx, orderID, actor)
	if err != nil {
		return err
	}
	ev.tallies[orderID] = tallyChange{tally: tally, owner: order.UserID}
	return nil
}

func (w *itemWriter) recompute(tx *gorm.DB, ev *itemEvents, orderID uuid.UUID, actor string) error {
	return recomputeTally(tx, w.orderRepo, w.tallies, ev, orderID, actor)
}

// lockTargets locks the order and purchase an item points at, proving both
// are selectable by p.
func (w *itemWriter) lockTargets(tx *gorm.DB, in OrderItemInput, p access.Principal) error {
	if _, err := w.orderRepo.WithTx(tx).FindForUpdate(in.OrderID, p); err != nil {
		return notFound(err, ErrOrderNotFound)
	}
	if _, err := w.purchaseRepo.WithTx(tx).FindForUpdate(in.PurchaseID, p); err != nil {
		return notFound(err, ErrPurchaseNotFound)
	}
	return nil
}

func (w *itemWriter) create(tx *gorm.DB, ev *itemEvents, id uuid.UUID, in OrderItemInput, p access.Principal) (*model.OrderItem, error) {
	if err := w.lockTargets(tx, in, p); err != nil {
		return nil, err
	}

	item := &model.OrderItem{
		OrderID:      in.OrderID,
		PurchaseID:   in.PurchaseID,
		QuantitySent: in.QuantitySent,
	}
	item.ID = id
	item.CreatedBy = p.Actor()
	item.UpdatedBy = p.Actor()
	if err := w.itemRepo.WithTx(tx).Create(item); err != nil {
		return nil, fmt.Errorf("create order item: %w", err)
	}

	if err := w.adjust(tx, ev, item.PurchaseID, StockChangeOnCreate(item.QuantitySent), p.Actor()); err != nil {
		return nil, err
	}
	if err := w.recompute(tx, ev, item.OrderID, p.Actor()); err != nil {
		return nil, err
	}
	return item, nil
}

func (w *itemWriter) update(tx *gorm.DB, ev *itemEvents, existing *model.OrderItem, in OrderItemInput, p access.Principal) (*model.OrderItem, error) {
	if err := lockOrders(tx, w.orderRepo, existing.OrderID, in.OrderID); err != nil {
		return nil, err
	}
	if err := w.lockTargets(tx, in, p); err != nil {
		return nil, err
	}

	previousQty := existing.QuantitySent
	previousOrder := existing.OrderID
	previousPurchase := existing.PurchaseID

	if in.PurchaseID == previousPurchase {
		if err := w.adjust(tx, ev, in.PurchaseID, StockChangeOnUpdate(&previousQty, in.QuantitySent), p.Actor()); err != nil {
			return nil, err
		}
	} else {
		// Moving to another purchase: the old one gets its stock back and
		// the new one loses the full new quantity
		if _, err := w.purchaseRepo.WithTx(tx).FindForUpdate(previousPurchase, access.System); err != nil {
			return nil, notFound(err, ErrPurchaseNotFound)
		}
		if err := w.adjust(tx, ev, previousPurchase, StockChangeOnDelete(previousQty), p.Actor()); err != nil {
			return nil, err
		}
		if err := w.adjust(tx, ev, in.PurchaseID, StockChangeOnUpdate(nil, in.QuantitySent), p.Actor()); err != nil {
			return nil, err
		}
	}

	existing.OrderID = in.OrderID
	existing.PurchaseID = in.PurchaseID
	existing.QuantitySent = in.QuantitySent
	existing.UpdatedBy = p.Actor()
	existing.Order = nil
	existing.Purchase = nil
	if err := w.itemRepo.WithTx(tx).Update(existing); err != nil {
		return nil, fmt.Errorf("update order item: %w", err)
	}

	if previousOrder != existing.OrderID {
		if err := w.recompute(tx, ev, previousOrder, p.Actor()); err != nil {
			return nil, err
		}
	}
	if err := w.recompute(tx, ev, existing.OrderID, p.Actor()); err != nil {
		return nil, err
	}
	return existing, nil
}

func (w *itemWriter) remove(tx *gorm.DB, ev *itemEvents, item *model.OrderItem, p access.Principal) error {
	if err := lockOrders(tx, w.orderRepo, item.OrderID); err != nil {
		return err
	}
	if _, err := w.purchaseRepo.WithTx(tx).FindForUpdate(item.PurchaseID, access.System); err != nil {
		return notFound(err, ErrPurchaseNotFound)
	}
	if err := w.adjust(tx, ev, item.PurchaseID, StockChangeOnDelete(item.QuantitySent), p.Actor()); err != nil {
		return err
	}
	if err := w.itemRepo.WithTx(tx).Delete(item.ID); err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}
	return w.recompute(tx, ev, item.OrderID, p.Actor())
}

// broadcast sends each change to the clients allowed to see the changed
// row's owner.
func broadcast(n Notifier, ev *itemEvents, action string, p access.Principal) {
	for purchaseID, change := range ev.stock {
		n.Notify(change.owner, map[string]interface{}{
			"type":        "stock_update",
			"action":      action,
			"purchase_id": purchaseID,
			"quantity":    change.quantity,
			"owner_id":    change.owner,
			"user_id":     p.Actor(),
		})
	}
	for orderID, change := range ev.tallies {
		n.Notify(change.owner, map[string]interface{}{
			"type":            "tally_update",
			"action":          action,
			"order_id":        orderID,
			"purchase_amount": change.tally.PurchaseAmount.StringFixed(2),
			"sell_amount":     change.tally.SellAmount.StringFixed(2),
			"profit_loss":     change.tally.ProfitLoss.StringFixed(2),
			"owner_id":        change.owner,
			"user_id":         p.Actor(),
		})
	}
}

type orderItemService struct {
	*itemWriter
	db       *gorm.DB
	notifier Notifier
}

func NewOrderItemService(pRepo repository.PurchaseRepository, oRepo repository.OrderRepository, iRepo repository.OrderItemRepository, tallies TallyService, db *gorm.DB, n Notifier) OrderItemService {
	return &orderItemService{
		itemWriter: &itemWriter{
			purchaseRepo: pRepo,
			orderRepo:    oRepo,
			itemRepo:     iRepo,
			tallies:      tallies,
		},
		db:       db,
		notifier: notifierOrNop(n),
	}
}

func (s *orderItemService) CreateOrderItem(in OrderItemInput, p access.Principal) (*model.OrderItem, error) {
	// Rejected before any row is touched
	if err := in.validate(); err != nil {
		return nil, err
	}

	ev := newItemEvents()
	var created *model.OrderItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.create(tx, ev, uuid.Nil, in, p)
		created = item
		return err
	})
	if err != nil {
		return nil, err
	}

	broadcast(s.notifier, ev, "order_item_created", p)
	return created, nil
}

func (s *orderItemService) UpdateOrderItem(id uuid.UUID, in OrderItemInput, p access.Principal) (*model.OrderItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	ev := newItemEvents()
	var updated *model.OrderItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.itemRepo.WithTx(tx).FindForUpdate(id, p)
		if err != nil {
			return notFound(err, ErrOrderItemNotFound)
		}
		updated, err = s.update(tx, ev, existing, in, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	broadcast(s.notifier, ev, "order_item_updated", p)
	return updated, nil
}

func (s *orderItemService) DeleteOrderItem(id uuid.UUID, p access.Principal) error {
	ev := newItemEvents()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.itemRepo.WithTx(tx).FindForUpdate(id, p)
		if err != nil {
			return notFound(err, ErrOrderItemNotFound)
		}
		return s.remove(tx, ev, item, p)
	})
	if err != nil {
		return err
	}

	broadcast(s.notifier, ev, "order_item_deleted", p)
	return nil
}

func (s *orderItemService) GetOrderItem(id uuid.UUID, p access.Principal) (*model.OrderItem, error) {
	item, err := s.itemRepo.FindByID(id, p)
	if err != nil {
		return nil, notFound(err, ErrOrderItemNotFound)
	}
	return item, nil
}

func (s *orderItemService) GetAllOrderItems(p access.Principal, f repository.ListFilter) ([]model.OrderItem, error) {
	return s.itemRepo.FindAll(p, f)
}

func (s *orderItemService) GetOrderItemsByIDs(ids []uuid.UUID, p access.Principal) ([]model.OrderItem, error) {
	return s.itemRepo.FindByIDs(ids, p)
}
