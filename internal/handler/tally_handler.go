package handler

import (
	"go-accounting/internal/export"
	"go-accounting/internal/middleware"
	"go-accounting/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TallyHandler is read-only apart from the forced recompute: tallies are
// derived and never edited by hand.
type TallyHandler struct {
	service service.TallyService
}

func NewTallyHandler(s service.TallyService) *TallyHandler {
	return &TallyHandler{service: s}
}

// GET /api/v1/tallies?search=
func (h *TallyHandler) GetTallies(c *fiber.Ctx) error {
	f, err := listFilter(c)
	if err != nil {
		return err
	}
	tallies, err := h.service.GetAll(middleware.CurrentPrincipal(c), f)
	if err != nil {
		return err
	}
	return c.JSON(tallies)
}

// GET /api/v1/orders/:id/tally
func (h *TallyHandler) GetOrderTally(c *fiber.Ctx) error {
	id, err := paramUUID(c, "order")
	if err != nil {
		return err
	}
	tally, err := h.service.GetByOrderID(id, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(tally)
}

// RecomputeTallies rebuilds every visible tally
// POST /api/v1/tallies/recompute
func (h *TallyHandler) RecomputeTallies(c *fiber.Ctx) error {
	n, err := h.service.RecomputeAll(middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Tallies recomputed", "count": n})
}

// POST /api/v1/tallies/export
func (h *TallyHandler) ExportTallies(c *fiber.Ctx) error {
	req, err := parseExportRequest(c)
	if err != nil {
		return err
	}
	rows, err := h.service.GetByIDs(req.IDs, middleware.CurrentPrincipal(c))
	if err != nil {
		return err
	}
	return sendCSV(c, export.ModelFinalTally, export.Pointers(rows))
}
