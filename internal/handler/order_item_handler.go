package handler

import (
	"go-accounting/internal/export"
	"go-accounting/internal/middleware"
	"go-accounting/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderItemHandler struct {
	service service.OrderItemService
}

func NewOrderItemHandler(s service.OrderItemService) *OrderItemHandler {
	return &OrderItemHandler{service: s}
}

// GET /api/v1/order-items?search=
func (h *OrderItemHandler) GetOrderItems(c *fiber.Ctx) error {
	f, err := listFilter(c)
	if err != nil {
		return err
	}
	items, err := h.service.GetAllOrderItems(middleware.CurrentPrincipal(c), f)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

func (h *OrderItemHandler) GetOrderItem(c *fiber.Ctx) error {
	id, err := paramUUID(c, "order item")
	if err != nil {
		return err
	}
	item, err := h.service.GetOrderItem(id, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// CreateOrderItem takes stock from the purchase and refreshes the tally
// POST /api/v1/order-items
func (h *OrderItemHandler) CreateOrderItem(c *fiber.Ctx) error {
	var req service.OrderItemInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.CreateOrderItem(req, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return c.Status(201).JSON(fiber.Map{"message": "Order item created", "data": item})
}

func (h *OrderItemHandler) UpdateOrderItem(c *fiber.Ctx) error {
	id, err := paramUUID(c, "order item")
	if err != nil {
		return err
	}
	var req service.OrderItemInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.service.UpdateOrderItem(id, req, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Order item updated", "data": item})
}

func (h *OrderItemHandler) DeleteOrderItem(c *fiber.Ctx) error {
	id, err := paramUUID(c, "order item")
	if err != nil {
		return err
	}
	if err := h.service.DeleteOrderItem(id, middleware.CurrentPrincipal(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Order item deleted"})
}

// POST /api/v1/order-items/export
func (h *OrderItemHandler) ExportOrderItems(c *fiber.Ctx) error {
	req, err := parseExportRequest(c)
	if err != nil {
		return err
	}
	rows, err := h.service.GetOrderItemsByIDs(req.IDs, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return sendCSV(c, export.ModelOrderItem, export.Pointers(rows))
}
