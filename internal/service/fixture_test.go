package service

import (
	"sync"
	"testing"
	"time"

	"go-accounting/internal/access"
	"go-accounting/internal/model"
	"go-accounting/internal/repository"
	"go-accounting/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var listAll = repository.ListFilter{}

type recorder struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
	owners   []uuid.UUID
}

func (r *recorder) Notify(owner uuid.UUID, payload map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
	r.owners = append(r.owners, owner)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads, r.owners = nil, nil
}

// ownersOf lists the audience owner of every event of kind.
func (r *recorder) ownersOf(kind string) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for i, p := range r.payloads {
		if p["type"] == kind {
			out = append(out, r.owners[i])
		}
	}
	return out
}

func (r *recorder) ofType(kind string) []map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []map[string]interface{}
	for _, p := range r.payloads {
		if p["type"] == kind {
			out = append(out, p)
		}
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	notes     *recorder
	purchases PurchaseService
	orders    OrderService
	items     OrderItemService
	tallies   TallyService
	tallyRepo repository.TallyRepository
	owner     access.Principal
	other     access.Principal
	admin     access.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	pRepo := repository.NewPurchaseRepo(db)
	oRepo := repository.NewOrderRepo(db)
	iRepo := repository.NewOrderItemRepo(db)
	tRepo := repository.NewTallyRepo(db)
	notes := &recorder{}
	tallies := NewTallyService(tRepo, iRepo, db)

	return &fixture{
		db:        db,
		notes:     notes,
		purchases: NewPurchaseService(pRepo, oRepo, iRepo, tallies, db, notes),
		orders:    NewOrderService(pRepo, oRepo, iRepo, tRepo, tallies, db, notes),
		items:     NewOrderItemService(pRepo, oRepo, iRepo, tallies, db, notes),
		tallies:   tallies,
		tallyRepo: tRepo,
		owner:     testutil.CreateUser(t, db, "owner@example.com", false),
		other:     testutil.CreateUser(t, db, "other@example.com", false),
		admin:     testutil.CreateUser(t, db, "admin@example.com", true),
	}
}

func day(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func (f *fixture) purchase(t *testing.T, p access.Principal, item, buy, sell string, qty int) *model.Purchase {
	t.Helper()
	created, err := f.purchases.CreatePurchase(PurchaseInput{
		Item:          item,
		PurchasePrice: decimal.RequireFromString(buy),
		SalePrice:     decimal.RequireFromString(sell),
		PurchaseDate:  day("2024-03-01"),
		Quantity:      qty,
	}, p)
	require.NoError(t, err)
	return created
}

func (f *fixture) order(t *testing.T, p access.Principal, customer string) *model.Order {
	t.Helper()
	d := day("2024-03-02")
	created, err := f.orders.CreateOrder(OrderInput{CustomerName: customer, Date: &d}, p)
	require.NoError(t, err)
	return created
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var purchase model.Purchase
	require.NoError(t, f.db.First(&purchase, "id = ?", id).Error)
	return purchase.Quantity
}

func requireTally(t *testing.T, tally *model.FinalTally, purchase, sell, profit string) {
	t.Helper()
	require.NotNil(t, tally)
	require.Equal(t, purchase, tally.PurchaseAmount.StringFixed(2), "purchase_amount")
	require.Equal(t, sell, tally.SellAmount.StringFixed(2), "sell_amount")
	require.Equal(t, profit, tally.ProfitLoss.StringFixed(2), "profit_loss")
	require.True(t, tally.ProfitLoss.Equal(tally.SellAmount.Sub(tally.PurchaseAmount)), "profit_loss = sell_amount - purchase_amount")
}
