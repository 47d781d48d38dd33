package realtime

import (
	"github.com/gatherup/backend/pkg/logger"
	"github.com/gatherup/backend/pkg/utils"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the websocket endpoint. The client authenticates with
// a token query parameter since browsers cannot set headers on the upgrade
// request.
func RegisterRoutes(app *fiber.App, coordinator *Coordinator, sendBufferSize int) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		claims, err := utils.ValidateToken(c.Query("token"))
		if err != nil {
			return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired token")
		}
		c.Locals("userID", claims.UserID)
		return c.Next()
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals("userID").(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		session := NewSession(userID, conn, sendBufferSize)
		logger.Info("socket_connected", map[string]interface{}{
			"session": session.ID,
			"user_id": userID,
		})

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			coordinator.HandleMessage(session, raw)
		}

		coordinator.HandleDisconnect(session)
		logger.Info("socket_disconnected", map[string]interface{}{
			"session": session.ID,
			"user_id": userID,
		})
	}))
}
