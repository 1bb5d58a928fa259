package handlers

import (
	"gerai/pkg/ws"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterWebSocketRoutes mounts the realtime orders channel. Clients that
// connect to /ws/orders receive every order status update as a JSON frame.
func RegisterWebSocketRoutes(app *fiber.App, hub *ws.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/orders", websocket.New(hub.Handle))
}
