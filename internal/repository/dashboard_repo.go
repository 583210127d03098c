package repository

import (
	"time"

	"go-accounting/internal/access"
	"go-accounting/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardRepository interface {
	GetDashboardStats(p access.Principal) (*DashboardStats, error)
	GetSalesSeries(p access.Principal, startDate, endDate time.Time) ([]SalesData, error)
}

// SalesData untuk chart data: one point per order date
type SalesData struct {
	Date       string          `json:"date"`
	Orders     int64           `json:"orders"`
	SellAmount decimal.Decimal `json:"sell_amount"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
}

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalPurchases  int64           `json:"total_purchases"`
	NeedsReorder    int64           `json:"needs_reorder"`
	StockValuation  decimal.Decimal `json:"stock_valuation"`
	TotalOrders     int64           `json:"total_orders"`
	TotalSellAmount decimal.Decimal `json:"total_sell_amount"`
	TotalProfitLoss decimal.Decimal `json:"total_profit_loss"`
}

type dashboardRepo struct {
	db *gorm.DB
}

func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db}
}

func (r *dashboardRepo) GetDashboardStats(p access.Principal) (*DashboardStats, error) {
	var stats DashboardStats

	purchases := func() *gorm.DB { return r.db.Model(&model.Purchase{}).Scopes(access.OwnedBy(p)) }

	if err := purchases().Count(&stats.TotalPurchases).Error; err != nil {
		return nil, err
	}
	if err := purchases().Where("quantity <= ?", 0).Count(&stats.NeedsReorder).Error; err != nil {
		return nil, err
	}

	// Only stock on hand has value; negative quantities are pending reorders
	row := purchases().Where("quantity > ?", 0).
		Select("COALESCE(SUM(quantity * purchase_price), 0)").
		Row()
	if err := row.Scan(&stats.StockValuation); err != nil {
		return nil, err
	}

	if err := r.db.Model(&model.Order{}).Scopes(access.OwnedBy(p)).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	row = r.db.Model(&model.FinalTally{}).Scopes(access.OrderOwnedBy(p)).
		Select("COALESCE(SUM(sell_amount), 0), COALESCE(SUM(profit_loss), 0)").
		Row()
	if err := row.Scan(&stats.TotalSellAmount, &stats.TotalProfitLoss); err != nil {
		return nil, err
	}

	stats.StockValuation = stats.StockValuation.Round(2)
	stats.TotalSellAmount = stats.TotalSellAmount.Round(2)
	stats.TotalProfitLoss = stats.TotalProfitLoss.Round(2)
	return &stats, nil
}

func (r *dashboardRepo) GetSalesSeries(p access.Principal, startDate, endDate time.Time) ([]SalesData, error) {
	var orders []model.Order
	err := r.db.Scopes(access.OwnedBy(p)).
		Preload("FinalTally").
		Where("date BETWEEN ? AND ?", startDate, endDate).
		Order("date ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	// Aggregate per day in Go so the date rendering is identical on every driver
	var results []SalesData
	index := map[string]int{}
	for _, o := range orders {
		day := o.Date.Format(model.DateLayout)
		i, ok := index[day]
		if !ok {
			results = append(results, SalesData{Date: day})
			i = len(results) - 1
			index[day] = i
		}
		results[i].Orders++
		if o.FinalTally != nil {
			results[i].SellAmount = results[i].SellAmount.Add(o.FinalTally.SellAmount)
			results[i].ProfitLoss = results[i].ProfitLoss.Add(o.FinalTally.ProfitLoss)
		}
	}
	return results, nil
}
