// Package gateway exposes local HTTP access to in-memory resources. Playback
// components cannot attach authorization headers, so instead of remote URLs
// they get short-lived local ones: /blobs/<token> serves a live handle's
// bytes and turns 404 the moment the handle is revoked. It also bridges the
// notification emitter to WebSocket observers.
package gateway

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/cleartrack/client/internal/blob"
	"github.com/cleartrack/client/internal/notify"
	"github.com/cleartrack/client/pkg/response"
)

type Server struct {
	app     *fiber.App
	blobs   *blob.Store
	emitter *notify.Emitter
}

func New(blobs *blob.Store, emitter *notify.Emitter) *Server {
	s := &Server{blobs: blobs, emitter: emitter}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return response.OK(c, fiber.Map{"status": "ok"})
	})
	app.Get("/blobs/:token", s.handleBlob)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/notifications", websocket.New(s.handleNotifications))

	s.app = app
	return s
}

// App returns the underlying fiber app, used by tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until Shutdown.
func (s *Server) Listen(addr string) error {
	log.Printf("[Gateway] listening on %s", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

func (s *Server) handleBlob(c *fiber.Ctx) error {
	content, ok := s.blobs.Get(c.Params("token"))
	if !ok {
		return response.NotFound(c, "unknown or revoked token")
	}
	c.Set("Content-Type", "application/octet-stream")
	c.Set("Cache-Control", "no-store")
	return c.Send(content)
}

// handleNotifications streams notification events to one WebSocket client.
func (s *Server) handleNotifications(c *websocket.Conn) {
	id, events := s.emitter.Subscribe(64)
	defer s.emitter.Unsubscribe(id)

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				payload, err := json.Marshal(ev)
				if err != nil {
					log.Printf("[Gateway] failed to marshal event: %v", err)
					continue
				}
				if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			case <-ticker.C:
				// Keep-alive
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop: we expect nothing from the client, but reading is how we
	// notice disconnects.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] websocket error: %v", err)
			}
			break
		}
	}
}
