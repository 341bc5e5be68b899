package controller

import (
	"os"

	"ai-companion-be/internal/pkg/logger"
	internalWS "ai-companion-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type IWsController interface {
	RegisterRoutes(r fiber.Router)
	ServeWs(ctx *fiber.Ctx) error
}

type wsController struct {
	hub *internalWS.Hub
	log logger.ILogger
}

func NewWsController(hub *internalWS.Hub, log logger.ILogger) IWsController {
	return &wsController{
		hub: hub,
		log: log,
	}
}

func (c *wsController) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", c.ServeWs)
}

// ServeWs authenticates the handshake and upgrades to a hub client.
// Browsers cannot set headers on websocket requests, so the token may
// arrive as a query param instead of the Authorization header.
func (c *wsController) ServeWs(ctx *fiber.Ctx) error {
	tokenStr := ctx.Query("token")

	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		c.log.Warn("ws_controller", "invalid token in handshake", map[string]interface{}{"error": err})
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	userIdStr, ok := claims["user_id"].(string)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}

	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			c.log.Info("ws_controller", "websocket session started", map[string]interface{}{"user_id": userId})
			internalWS.ServeWs(c.hub, conn, userId)
			c.log.Info("ws_controller", "websocket session ended", map[string]interface{}{"user_id": userId})
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}
