package repository

import (
	"testing"
	"time"

	"go-accounting/internal/access"
	"go-accounting/internal/model"
	"go-accounting/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func date(s string) time.Time {
	d, _ := time.Parse(model.DateLayout, s)
	return d
}

func seedPurchase(t *testing.T, db *gorm.DB, owner access.Principal, item string, buy, sell string, qty int, on string) *model.Purchase {
	t.Helper()
	p := &model.Purchase{
		Item:          item,
		PurchasePrice: decimal.RequireFromString(buy),
		SalePrice:     decimal.RequireFromString(sell),
		PurchaseDate:  date(on),
		Quantity:      qty,
		UserID:        owner.UserID,
	}
	require.NoError(t, NewPurchaseRepo(db).Create(p))
	return p
}

func seedOrder(t *testing.T, db *gorm.DB, owner access.Principal, customer, on string) *model.Order {
	t.Helper()
	o := &model.Order{CustomerName: customer, Date: date(on), UserID: owner.UserID}
	require.NoError(t, NewOrderRepo(db).Create(o))
	return o
}

func seedItem(t *testing.T, db *gorm.DB, o *model.Order, p *model.Purchase, qty int) *model.OrderItem {
	t.Helper()
	i := &model.OrderItem{OrderID: o.ID, PurchaseID: p.ID, QuantitySent: qty}
	require.NoError(t, NewOrderItemRepo(db).Create(i))
	return i
}

func TestPurchaseRepo_AdjustQuantity(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", false)
	p := seedPurchase(t, db, owner, "Widget", "1.00", "2.00", 10, "2024-01-01")
	repo := NewPurchaseRepo(db)

	require.NoError(t, repo.AdjustQuantity(p.ID, -4, owner.Actor()))
	require.NoError(t, repo.AdjustQuantity(p.ID, -9, owner.Actor()))
	require.NoError(t, repo.AdjustQuantity(p.ID, 1, owner.Actor()))

	got, err := repo.FindByID(p.ID, owner)
	require.NoError(t, err)
	require.Equal(t, -2, got.Quantity)
	require.Equal(t, owner.Actor(), got.UpdatedBy)
}

func TestPurchaseRepo_FindAllFilters(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", false)
	other := testutil.CreateUser(t, db, "other@example.com", false)
	seedPurchase(t, db, owner, "Red Widget", "1.00", "2.00", 1, "2024-01-01")
	seedPurchase(t, db, owner, "Blue Widget", "1.00", "2.00", 1, "2024-02-01")
	seedPurchase(t, db, owner, "Gadget", "1.00", "2.00", 1, "2024-03-01")
	seedPurchase(t, db, other, "Green Widget", "1.00", "2.00", 1, "2024-02-01")
	repo := NewPurchaseRepo(db)

	from, to := date("2024-01-15"), date("2024-03-01")
	tests := []struct {
		name   string
		p      access.Principal
		filter ListFilter
		want   []string
	}{
		{"own rows newest first", owner, ListFilter{}, []string{"Gadget", "Blue Widget", "Red Widget"}},
		{"search is case insensitive", owner, ListFilter{Search: "WIDGET"}, []string{"Blue Widget", "Red Widget"}},
		{"date range inclusive", owner, ListFilter{From: &from, To: &to}, []string{"Gadget", "Blue Widget"}},
		{"paginated", owner, ListFilter{Limit: 1, Offset: 1}, []string{"Blue Widget"}},
		{"superuser sees all", access.System, ListFilter{Search: "widget"}, []string{"Blue Widget", "Green Widget", "Red Widget"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindAll(tt.p, tt.filter)
			require.NoError(t, err)
			var names []string
			for _, p := range got {
				names = append(names, p.Item)
			}
			require.Equal(t, tt.want, names)
		})
	}
}

func TestPurchaseRepo_FindByIDs(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", false)
	other := testutil.CreateUser(t, db, "other@example.com", false)
	a := seedPurchase(t, db, owner, "A", "1.00", "2.00", 1, "2024-01-01")
	seedPurchase(t, db, owner, "B", "1.00", "2.00", 1, "2024-01-02")
	c := seedPurchase(t, db, other, "C", "1.00", "2.00", 1, "2024-01-03")
	repo := NewPurchaseRepo(db)

	got, err := repo.FindByIDs([]uuid.UUID{a.ID, c.ID}, owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, a.ID, got[0].ID)

	got, err = repo.FindByIDs(nil, owner)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestOrderItemRepo_ScopedByOrderOwner(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", false)
	other := testutil.CreateUser(t, db, "other@example.com", false)
	p := seedPurchase(t, db, owner, "Widget", "1.00", "2.00", 10, "2024-01-01")
	mine := seedOrder(t, db, owner, "Acme", "2024-01-02")
	theirs := seedOrder(t, db, other, "Globex", "2024-01-02")
	seedItem(t, db, mine, p, 1)
	seedItem(t, db, mine, p, 2)
	foreign := seedItem(t, db, theirs, p, 3)
	repo := NewOrderItemRepo(db)

	items, err := repo.FindAll(owner, ListFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	_, err = repo.FindByID(foreign.ID, owner)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindAll(access.System, ListFilter{Search: "widget"})
	require.NoError(t, err)
	require.Len(t, found, 3)

	ids, err := repo.OrderIDsByPurchase(p.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{mine.ID, theirs.ID}, ids)
}

func TestTallyRepo_SaveCreatesThenUpdates(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", false)
	o := seedOrder(t, db, owner, "Acme", "2024-01-02")
	repo := NewTallyRepo(db)

	tally := &model.FinalTally{OrderID: o.ID, SellAmount: decimal.NewFromInt(5)}
	require.NoError(t, repo.Save(tally))
	require.NotEqual(t, uuid.Nil, tally.ID)

	tally.SellAmount = decimal.NewFromInt(9)
	require.NoError(t, repo.Save(tally))

	got, err := repo.FindVisibleByOrderID(o.ID, owner)
	require.NoError(t, err)
	require.Equal(t, tally.ID, got.ID)
	require.Equal(t, "9.00", got.SellAmount.StringFixed(2))

	// One tally per order
	require.Error(t, repo.Save(&model.FinalTally{OrderID: o.ID}))
}

func TestDashboardRepo(t *testing.T) {
	db := testutil.NewDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", false)
	other := testutil.CreateUser(t, db, "other@example.com", false)
	seedPurchase(t, db, owner, "Widget", "10.00", "15.00", 3, "2024-01-01")
	seedPurchase(t, db, owner, "Gadget", "2.00", "4.00", -1, "2024-01-01")
	seedPurchase(t, db, other, "Sprocket", "1.00", "2.00", 100, "2024-01-01")

	tallies := NewTallyRepo(db)
	for _, o := range []struct {
		customer, on string
		sell, profit int64
	}{
		{"Acme", "2024-02-01", 60, 20},
		{"Initech", "2024-02-01", 30, 10},
		{"Umbrella", "2024-02-03", 15, 5},
	} {
		order := seedOrder(t, db, owner, o.customer, o.on)
		require.NoError(t, tallies.Save(&model.FinalTally{
			OrderID:    order.ID,
			SellAmount: decimal.NewFromInt(o.sell),
			ProfitLoss: decimal.NewFromInt(o.profit),
		}))
	}
	seedOrder(t, db, other, "Globex", "2024-02-01")

	repo := NewDashboardRepo(db)

	stats, err := repo.GetDashboardStats(owner)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.TotalPurchases)
	require.Equal(t, int64(1), stats.NeedsReorder)
	require.Equal(t, "30.00", stats.StockValuation.StringFixed(2))
	require.Equal(t, int64(3), stats.TotalOrders)
	require.Equal(t, "105.00", stats.TotalSellAmount.StringFixed(2))
	require.Equal(t, "35.00", stats.TotalProfitLoss.StringFixed(2))

	series, err := repo.GetSalesSeries(owner, date("2024-02-01"), date("2024-02-02"))
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Equal(t, "2024-02-01", series[0].Date)
	require.Equal(t, int64(2), series[0].Orders)
	require.Equal(t, "90.00", series[0].SellAmount.StringFixed(2))
	require.Equal(t, "30.00", series[0].ProfitLoss.StringFixed(2))

	all, err := repo.GetSalesSeries(access.System, date("2024-01-01"), date("2024-12-31"))
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, int64(3), all[0].Orders)
}
