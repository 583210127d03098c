package service

import (
	"fmt"
	"time"

	"go-accounting/internal/access"
	"go-accounting/internal/model"
	"go-accounting/internal/repository"
	"go-accounting/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseInput struct {
	Item          string          `json:"item"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SalePrice     decimal.Decimal `json:"sale_price"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	Quantity      int             `json:"quantity"`
	Picture       *string         `json:"picture"`
	UserID        *uuid.UUID      `json:"user_id"` // Superusers may stock items for another owner
}

type PurchaseService interface {
	CreatePurchase(in PurchaseInput, p access.Principal) (*model.Purchase, error)
	UpdatePurchase(id uuid.UUID, in PurchaseInput, p access.Principal) (*model.Purchase, error)
	DeletePurchase(id uuid.UUID, p access.Principal) error
	GetPurchase(id uuid.UUID, p access.Principal) (*model.Purchase, error)
	GetAllPurchases(p access.Principal, f repository.ListFilter) ([]model.Purchase, error)
	GetPurchasesByIDs(ids []uuid.UUID, p access.Principal) ([]model.Purchase, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	orderRepo    repository.OrderRepository
	itemRepo     repository.OrderItemRepository
	tallies      TallyService
	db           *gorm.DB
	notifier     Notifier
}

func NewPurchaseService(pRepo repository.PurchaseRepository, oRepo repository.OrderRepository, iRepo repository.OrderItemRepository, tallies TallyService, db *gorm.DB, n Notifier) PurchaseService {
	return &purchaseService{
		purchaseRepo: pRepo,
		orderRepo:    oRepo,
		itemRepo:     iRepo,
		tallies:      tallies,
		db:           db,
		notifier:     notifierOrNop(n),
	}
}

func (s *purchaseService) CreatePurchase(in PurchaseInput, p access.Principal) (*model.Purchase, error) {
	owner, err := resolveOwner(in.UserID, p.UserID, p)
	if err != nil {
		return nil, err
	}
	purchase := &model.Purchase{
		Item:          in.Item,
		PurchasePrice: in.PurchasePrice,
		SalePrice:     in.SalePrice,
		PurchaseDate:  in.PurchaseDate,
		Quantity:      in.Quantity,
		Picture:       in.Picture,
		UserID:        owner,
	}
	purchase.CreatedBy = p.Actor()
	purchase.UpdatedBy = p.Actor()

	if err := validator.Check(purchase); err != nil {
		return nil, err
	}
	if err := s.purchaseRepo.Create(purchase); err != nil {
		return nil, err
	}

	s.notifier.Notify(purchase.UserID, map[string]interface{}{
		"type":        "stock_update",
		"action":      "purchase_created",
		"purchase_id": purchase.ID,
		"item":        purchase.Item,
		"quantity":    purchase.Quantity,
		"owner_id":    purchase.UserID,
		"user_id":     p.Actor(),
	})
	return purchase, nil
}

// lockUsingOrders locks the purchase and every order with an item on it,
// orders first like the item writers do. The order set is read again
// under the purchase lock; an order that gained its first item in between
// is locked too.
func (s *purchaseService) lockUsingOrders(tx *gorm.DB, id uuid.UUID, p access.Principal) (*model.Purchase, []uuid.UUID, error) {
	if _, err := s.purchaseRepo.WithTx(tx).FindByID(id, p); err != nil {
		return nil, nil, notFound(err, ErrPurchaseNotFound)
	}
	items := s.itemRepo.WithTx(tx)
	before, err := items.OrderIDsByPurchase(id)
	if err != nil {
		return nil, nil, err
	}
	if err := lockOrders(tx, s.orderRepo, before...); err != nil {
		return nil, nil, err
	}

	purchase, err := s.purchaseRepo.WithTx(tx).FindForUpdate(id, p)
	if err != nil {
		return nil, nil, notFound(err, ErrPurchaseNotFound)
	}

	orderIDs, err := items.OrderIDsByPurchase(id)
	if err != nil {
		return nil, nil, err
	}
	if err := lockOrders(tx, s.orderRepo, orderIDs...); err != nil {
		return nil, nil, err
	}
	return purchase, orderIDs, nil
}

// UpdatePurchase edits a purchase directly. A price change flows into the
// tallies of every order that already uses the purchase.
func (s *purchaseService) UpdatePurchase(id uuid.UUID, in PurchaseInput, p access.Principal) (*model.Purchase, error) {
	ev := newItemEvents()
	var updated *model.Purchase

	err := s.db.Transaction(func(tx *gorm.DB) error {
		purchases := s.purchaseRepo.WithTx(tx)
		existing, orderIDs, err := s.lockUsingOrders(tx, id, p)
		if err != nil {
			return err
		}

		pricesChanged := !existing.PurchasePrice.Equal(in.PurchasePrice) || !existing.SalePrice.Equal(in.SalePrice)

		existing.Item = in.Item
		existing.PurchasePrice = in.PurchasePrice
		existing.SalePrice = in.SalePrice
		existing.PurchaseDate = in.PurchaseDate
		existing.Quantity = in.Quantity
		existing.Picture = in.Picture
		if existing.UserID, err = resolveOwner(in.UserID, existing.UserID, p); err != nil {
			return err
		}
		existing.UpdatedBy = p.Actor()

		if err := validator.Check(existing); err != nil {
			return err
		}
		if err := purchases.Update(existing); err != nil {
			return fmt.Errorf("update purchase: %w", err)
		}
		ev.stock[existing.ID] = stockChange{quantity: existing.Quantity, owner: existing.UserID}

		if pricesChanged {
			for _, orderID := range orderIDs {
				if err := recomputeTally(tx, s.orderRepo, s.tallies, ev, orderID, p.Actor()); err != nil {
					return err
				}
			}
		}

		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	broadcast(s.notifier, ev, "purchase_updated", p)
	return updated, nil
}

// DeletePurchase cascades to the purchase's order items and recomputes the
// tallies of the orders that lose them.
func (s *purchaseService) DeletePurchase(id uuid.UUID, p access.Principal) error {
	ev := newItemEvents()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		_, orderIDs, err := s.lockUsingOrders(tx, id, p)
		if err != nil {
			return err
		}
		if err := s.itemRepo.WithTx(tx).DeleteByPurchase(id); err != nil {
			return err
		}
		if err := s.purchaseRepo.WithTx(tx).Delete(id); err != nil {
			return err
		}

		for _, orderID := range orderIDs {
			if err := recomputeTally(tx, s.orderRepo, s.tallies, ev, orderID, p.Actor()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	broadcast(s.notifier, ev, "purchase_deleted", p)
	return nil
}

func (s *purchaseService) GetPurchase(id uuid.UUID, p access.Principal) (*model.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(id, p)
	if err != nil {
		return nil, notFound(err, ErrPurchaseNotFound)
	}
	return purchase, nil
}

func (s *purchaseService) GetAllPurchases(p access.Principal, f repository.ListFilter) ([]model.Purchase, error) {
	return s.purchaseRepo.FindAll(p, f)
}

func (s *purchaseService) GetPurchasesByIDs(ids []uuid.UUID, p access.Principal) ([]model.Purchase, error) {
	return s.purchaseRepo.FindByIDs(ids, p)
}
