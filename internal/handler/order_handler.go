package handler

import (
	"go-accounting/internal/export"
	"go-accounting/internal/middleware"
	"go-accounting/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// GetOrders lists orders with their tallies
// GET /api/v1/orders?search=&from=&to=
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	f, err := listFilter(c)
	if err != nil {
		return err
	}
	orders, err := h.service.GetAllOrders(middleware.CurrentPrincipal(c), f)
	if err != nil {
		return err
	}
	return c.JSON(orders)
}

// GetOrder returns the edit view: order, inline items and tally
// GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := paramUUID(c, "order")
	if err != nil {
		return err
	}
	order, err := h.service.GetOrder(id, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(order)
}

func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.OrderInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	order, err := h.service.CreateOrder(req, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return c.Status(201).JSON(fiber.Map{"message": "Order created", "data": order})
}

// UpdateOrder edits the order and, optionally, its inline items
// PUT /api/v1/orders/:id
func (h *OrderHandler) UpdateOrder(c *fiber.Ctx) error {
	id, err := paramUUID(c, "order")
	if err != nil {
		return err
	}
	var req service.OrderInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	order, err := h.service.UpdateOrder(id, req, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Order updated", "data": order})
}

func (h *OrderHandler) DeleteOrder(c *fiber.Ctx) error {
	id, err := paramUUID(c, "order")
	if err != nil {
		return err
	}
	if err := h.service.DeleteOrder(id, middleware.CurrentPrincipal(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Order deleted"})
}

// POST /api/v1/orders/export
func (h *OrderHandler) ExportOrders(c *fiber.Ctx) error {
	req, err := parseExportRequest(c)
	if err != nil {
		return err
	}
	rows, err := h.service.GetOrdersByIDs(req.IDs, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return sendCSV(c, export.ModelOrder, export.Pointers(rows))
}
