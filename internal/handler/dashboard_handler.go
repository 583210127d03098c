package handler

import (
	"strconv"

	"go-accounting/internal/middleware"
	"go-accounting/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetSales returns per-day order count, sell amount and profit for charts
// GET /api/v1/dashboard/sales?days=30 (default 7, capped at a year)
func (h *DashboardHandler) GetSales(c *fiber.Ctx) error {
	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "days must be a positive integer")
	}
	if days > 366 {
		days = 366
	}

	data, err := h.service.GetSales(middleware.CurrentPrincipal(c), days)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}

	return c.JSON(stats)
}
