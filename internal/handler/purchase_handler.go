package handler

import (
	"go-accounting/internal/export"
	"go-accounting/internal/middleware"
	"go-accounting/internal/service"

	"github.com/gofiber/fiber/v2"
)

type PurchaseHandler struct {
	service service.PurchaseService
}

func NewPurchaseHandler(s service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: s}
}

// GetPurchases lists purchases visible to the caller
// GET /api/v1/purchases?search=&from=&to=
func (h *PurchaseHandler) GetPurchases(c *fiber.Ctx) error {
	f, err := listFilter(c)
	if err != nil {
		return err
	}
	purchases, err := h.service.GetAllPurchases(middleware.CurrentPrincipal(c), f)
	if err != nil {
		return err
	}
	return c.JSON(purchases)
}

func (h *PurchaseHandler) GetPurchase(c *fiber.Ctx) error {
	id, err := paramUUID(c, "purchase")
	if err != nil {
		return err
	}
	purchase, err := h.service.GetPurchase(id, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(purchase)
}

func (h *PurchaseHandler) CreatePurchase(c *fiber.Ctx) error {
	var req service.PurchaseInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	purchase, err := h.service.CreatePurchase(req, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return c.Status(201).JSON(fiber.Map{"message": "Purchase created", "data": purchase})
}

func (h *PurchaseHandler) UpdatePurchase(c *fiber.Ctx) error {
	id, err := paramUUID(c, "purchase")
	if err != nil {
		return err
	}
	var req service.PurchaseInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdatePurchase(id, req, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Purchase updated", "data": updated})
}

func (h *PurchaseHandler) DeletePurchase(c *fiber.Ctx) error {
	id, err := paramUUID(c, "purchase")
	if err != nil {
		return err
	}
	if err := h.service.DeletePurchase(id, middleware.CurrentPrincipal(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Purchase deleted"})
}

// ExportPurchases downloads the selected purchases
// POST /api/v1/purchases/export
func (h *PurchaseHandler) ExportPurchases(c *fiber.Ctx) error {
	req, err := parseExportRequest(c)
	if err != nil {
		return err
	}
	rows, err := h.service.GetPurchasesByIDs(req.IDs, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return sendCSV(c, export.ModelPurchase, export.Pointers(rows))
}
