package service

import (
	"errors"
	"fmt"
	"time"

	"go-accounting/internal/access"
	"go-accounting/internal/model"
	"go-accounting/internal/repository"
	"go-accounting/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InlineItem is one row of the item table embedded in the order edit view.
// A row without ID is new; a row with an ID that does not exist yet is
// created under that ID; Delete removes the row.
type InlineItem struct {
	ID           *uuid.UUID `json:"id"`
	PurchaseID   uuid.UUID  `json:"purchase_id"`
	QuantitySent int        `json:"quantity_sent"`
	Delete       bool       `json:"delete"`
}

type OrderInput struct {
	CustomerName string       `json:"customer_name"`
	Date         *time.Time   `json:"date"`
	UserID       *uuid.UUID   `json:"user_id"` // Superusers may file orders for another owner
	Items        []InlineItem `json:"items"`
}

type OrderService interface {
	CreateOrder(in OrderInput, p access.Principal) (*model.Order, error)
	UpdateOrder(id uuid.UUID, in OrderInput, p access.Principal) (*model.Order, error)
	DeleteOrder(id uuid.UUID, p access.Principal) error
	GetOrder(id uuid.UUID, p access.Principal) (*model.Order, error)
	GetAllOrders(p access.Principal, f repository.ListFilter) ([]model.Order, error)
	GetOrdersByIDs(ids []uuid.UUID, p access.Principal) ([]model.Order, error)
}

type orderService struct {
	*itemWriter
	tallyRepo repository.TallyRepository
	db        *gorm.DB
	notifier  Notifier
}

func NewOrderService(pRepo repository.PurchaseRepository, oRepo repository.OrderRepository, iRepo repository.OrderItemRepository, tRepo repository.TallyRepository, tallies TallyService, db *gorm.DB, n Notifier) OrderService {
	return &orderService{
		itemWriter: &itemWriter{
			purchaseRepo: pRepo,
			orderRepo:    oRepo,
			itemRepo:     iRepo,
			tallies:      tallies,
		},
		tallyRepo: tRepo,
		db:        db,
		notifier:  notifierOrNop(n),
	}
}

func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// resolveOwner picks the owner of a new or reassigned row. Only superusers
// may name someone other than themselves.
func resolveOwner(requested *uuid.UUID, current uuid.UUID, p access.Principal) (uuid.UUID, error) {
	if requested == nil || *requested == uuid.Nil || *requested == current {
		return current, nil
	}
	if !p.IsSuperuser {
		return uuid.Nil, ErrForbidden
	}
	return *requested, nil
}

// validateItems checks every inline row before the transaction starts.
func validateItems(orderID uuid.UUID, items []InlineItem) error {
	for _, it := range items {
		if it.Delete {
			continue
		}
		in := OrderItemInput{OrderID: orderID, PurchaseID: it.PurchaseID, QuantitySent: it.QuantitySent}
		if err := in.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *orderService) applyItems(tx *gorm.DB, ev *itemEvents, orderID uuid.UUID, items []InlineItem, p access.Principal) error {
	for _, it := range items {
		in := OrderItemInput{OrderID: orderID, PurchaseID: it.PurchaseID, QuantitySent: it.QuantitySent}

		if it.ID == nil {
			if it.Delete {
				continue
			}
			if _, err := s.create(tx, ev, uuid.Nil, in, p); err != nil {
				return err
			}
			continue
		}

		items := s.itemRepo.WithTx(tx)
		existing, err := items.FindForUpdate(*it.ID, p)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load order item: %w", err)
		}
		if existing == nil {
			// An id taken by a row p cannot see is reported like a missing
			// row, never created over
			_, err := items.FindByID(*it.ID, access.System)
			switch {
			case err == nil:
				return ErrOrderItemNotFound
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return fmt.Errorf("load order item: %w", err)
			}
		}

		switch {
		case existing == nil && it.Delete:
			// Already gone
		case existing == nil:
			// No prior state: the full quantity leaves stock
			if _, err := s.create(tx, ev, *it.ID, in, p); err != nil {
				return err
			}
		case existing.OrderID != orderID:
			return ErrOrderItemNotFound
		case it.Delete:
			if err := s.remove(tx, ev, existing, p); err != nil {
				return err
			}
		default:
			if _, err := s.update(tx, ev, existing, in, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *orderService) CreateOrder(in OrderInput, p access.Principal) (*model.Order, error) {
	owner, err := resolveOwner(in.UserID, p.UserID, p)
	if err != nil {
		return nil, err
	}
	order := &model.Order{
		CustomerName: in.CustomerName,
		Date:         today(),
		UserID:       owner,
	}
	if in.Date != nil && !in.Date.IsZero() {
		order.Date = *in.Date
	}
	order.CreatedBy = p.Actor()
	order.UpdatedBy = p.Actor()

	if err := validator.Check(order); err != nil {
		return nil, err
	}
	// Inline rows reference the order id, which is only known later; a
	// placeholder is enough for field validation
	if err := validateItems(uuid.New(), in.Items); err != nil {
		return nil, err
	}

	ev := newItemEvents()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.recompute(tx, ev, order.ID, p.Actor()); err != nil {
			return err
		}
		return s.applyItems(tx, ev, order.ID, in.Items, p)
	})
	if err != nil {
		return nil, err
	}

	broadcast(s.notifier, ev, "order_created", p)
	return s.GetOrder(order.ID, p)
}

func (s *orderService) UpdateOrder(id uuid.UUID, in OrderInput, p access.Principal) (*model.Order, error) {
	if err := validateItems(id, in.Items); err != nil {
		return nil, err
	}

	ev := newItemEvents()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		order, err := orders.FindForUpdate(id, p)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}

		order.CustomerName = in.CustomerName
		if in.Date != nil && !in.Date.IsZero() {
			order.Date = *in.Date
		}
		if order.UserID, err = resolveOwner(in.UserID, order.UserID, p); err != nil {
			return err
		}
		order.UpdatedBy = p.Actor()
		if err := validator.Check(order); err != nil {
			return err
		}
		if err := orders.Update(order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if err := s.applyItems(tx, ev, order.ID, in.Items, p); err != nil {
			return err
		}
		// Also repairs orders that never had a tally
		return s.recompute(tx, ev, order.ID, p.Actor())
	})
	if err != nil {
		return nil, err
	}

	broadcast(s.notifier, ev, "order_updated", p)
	return s.GetOrder(id, p)
}

// DeleteOrder removes the order with its items and tally. Stock is not
// given back: removing an order is not the same as cancelling its items.
func (s *orderService) DeleteOrder(id uuid.UUID, p access.Principal) error {
	var owner uuid.UUID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.WithTx(tx).FindForUpdate(id, p)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}
		owner = order.UserID
		if err := s.tallyRepo.WithTx(tx).DeleteByOrder(id); err != nil {
			return err
		}
		if err := s.itemRepo.WithTx(tx).DeleteByOrder(id); err != nil {
			return err
		}
		return s.orderRepo.WithTx(tx).Delete(id)
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(owner, map[string]interface{}{
		"type":     "order_deleted",
		"order_id": id,
		"owner_id": owner,
		"user_id":  p.Actor(),
	})
	return nil
}

func (s *orderService) GetOrder(id uuid.UUID, p access.Principal) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id, p)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return order, nil
}

func (s *orderService) GetAllOrders(p access.Principal, f repository.ListFilter) ([]model.Order, error) {
	return s.orderRepo.FindAll(p, f)
}

func (s *orderService) GetOrdersByIDs(ids []uuid.UUID, p access.Principal) ([]model.Order, error) {
	return s.orderRepo.FindByIDs(ids, p)
}
