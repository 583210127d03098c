package handler

import (
	"time"

	"go-accounting/internal/export"
	"go-accounting/internal/model"
	"go-accounting/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func paramUUID(c *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid "+what+" ID")
	}
	return id, nil
}

func parseDateQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+key+" date, use YYYY-MM-DD")
	}
	return &t, nil
}

// listFilter reads ?search=&from=&to=&limit=&offset= as shown by the admin
// list views.
func listFilter(c *fiber.Ctx) (repository.ListFilter, error) {
	f := repository.ListFilter{
		Search: c.Query("search"),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	var err error
	if f.From, err = parseDateQuery(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = parseDateQuery(c, "to"); err != nil {
		return f, err
	}
	return f, nil
}

// ExportRequest selects the rows to export. No ids means every visible row.
type ExportRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

func parseExportRequest(c *fiber.Ctx) (ExportRequest, error) {
	var req ExportRequest
	if len(c.Body()) == 0 {
		return req, nil
	}
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "Invalid JSON")
	}
	return req, nil
}

// sendCSV delivers rows as a downloadable <modelName>.csv document.
func sendCSV[T export.Exportable](c *fiber.Ctx, modelName string, rows []T) error {
	body, err := export.Render(rows)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, export.Disposition(modelName))
	return c.Send(body)
}
