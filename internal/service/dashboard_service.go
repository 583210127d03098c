package service

import (
	"go-accounting/internal/access"
	"go-accounting/internal/repository"
)

type DashboardService interface {
	GetSales(p access.Principal, days int) ([]repository.SalesData, error)
	GetDashboardStats(p access.Principal) (*repository.DashboardStats, error)
}

type dashboardService struct {
	dashRepo repository.DashboardRepository
}

func NewDashboardService(dashRepo repository.DashboardRepository) DashboardService {
	return &dashboardService{dashRepo: dashRepo}
}

func (s *dashboardService) GetSales(p access.Principal, days int) ([]repository.SalesData, error) {
	endDate := today()
	startDate := endDate.AddDate(0, 0, -days)

	return s.dashRepo.GetSalesSeries(p, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(p access.Principal) (*repository.DashboardStats, error) {
	return s.dashRepo.GetDashboardStats(p)
}
