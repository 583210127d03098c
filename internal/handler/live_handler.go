package handler

import (
	"go-accounting/internal/access"
	"go-accounting/internal/middleware"
	"go-accounting/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RegisterLiveFeed mounts the WebSocket feed at /ws. Only upgrade requests
// that pass auth get through, and each socket receives the events its
// principal may see.
// GET /ws?token=<jwt>
func RegisterLiveFeed(r fiber.Router, auth fiber.Handler, hub *ws.Hub) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.SendStatus(fiber.StatusUpgradeRequired)
		}
		return c.Next()
	}, auth)

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		p, _ := c.Locals(middleware.PrincipalKey).(access.Principal)
		hub.Attach(c, p)
	}))
}
