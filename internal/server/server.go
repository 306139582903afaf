// Package server is the Fiber app wiring: middleware, the ingress
// websocket mount, the SSE push channel, and the REST request/reply
// shell over the View Function Host.
//
// Grounded on the teacher's api/core/server.go Server type
// (NewServer/Setup/setupMiddleware/setupRoutes/healthCheck), narrowed
// from the teacher's multi-tenant channel-proxy surface down to this
// hub's fixed endpoint set.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"

	"github.com/jflamy/owlcms-tracker-sub001/internal/broker"
	"github.com/jflamy/owlcms-tracker-sub001/internal/hub"
	"github.com/jflamy/owlcms-tracker-sub001/internal/projection"
	"github.com/jflamy/owlcms-tracker-sub001/internal/protocol"
)

// heartbeatInterval keeps the SSE connection alive through
// intermediary proxies that close idle sockets, matching the
// teacher's StreamEvents ticker.
const heartbeatInterval = 20 * time.Second

// Server holds the Fiber app and the components it routes to.
type Server struct {
	App *fiber.App

	hub     *hub.Hub
	handler *protocol.Handler
	broker  *broker.Broker
	host    *projection.Host
	ingress string
}

// New constructs a Server wired to the Protocol Handler, Fan-out
// Broker and View Function Host, and mounts every route.
func New(h *hub.Hub, handler *protocol.Handler, b *broker.Broker, host *projection.Host, ingressPath string) *Server {
	app := fiber.New(fiber.Config{
		AppName: "owlcms-tracker-sub001",
	})

	s := &Server{
		App:     app,
		hub:     h,
		handler: handler,
		broker:  b,
		host:    host,
		ingress: ingressPath,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.App.Use(recover.New())
	s.App.Use(logger.New())

	s.App.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "SAMEORIGIN")
		c.Set("X-DNS-Prefetch-Control", "off")
		return c.Next()
	})

	s.App.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
}

func (s *Server) setupRoutes() {
	s.App.Get("/swagger/*", swagger.HandlerDefault)
	s.App.Get("/health", s.healthCheck)

	s.App.Get("/fops", s.listFops)
	s.App.Get("/scoreboards", s.listScoreboards)
	s.App.Get("/projection/:name/:fop", s.queryProjection)
	s.App.Post("/action", s.handleAction)

	s.App.Get("/events", s.streamEvents)

	s.App.Use(s.ingress, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.App.Get(s.ingress, websocket.New(s.handleIngress))
}

// healthCheck reports hub readiness, FOP count and broker subscriber
// count (§11). Per-subscriber drop counts are not included.
//
// @Summary Health check
// @Router /health [get]
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      healthStatus(s.hub.IsReady()),
		"ready":       s.hub.IsReady(),
		"fopCount":    len(s.hub.Fops()),
		"subscribers": s.broker.SubscriberCount(),
	})
}

func healthStatus(ready bool) string {
	if ready {
		return "healthy"
	}
	return "waiting_for_data"
}

// listFops answers the FOP-discovery request, §4.8.
//
// @Summary List known FOPs
// @Router /fops [get]
func (s *Server) listFops(c *fiber.Ctx) error {
	return c.JSON(s.hub.Fops())
}

// scoreboardInfo is the discovery shape from §4.8:
// {name, description, options: [{key, label, type, default, min, max, enum}]}.
type scoreboardInfo struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Options     []optionInfo `json:"options"`
}

type optionInfo struct {
	Key     string   `json:"key"`
	Type    string   `json:"type"`
	Default any      `json:"default,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Enum    []string `json:"enum,omitempty"`
}

// listScoreboards answers the projection-discovery request, §4.8.
//
// @Summary List registered projections
// @Router /scoreboards [get]
func (s *Server) listScoreboards(c *fiber.Ctx) error {
	defs := s.host.Definitions()
	out := make([]scoreboardInfo, 0, len(defs))
	for _, d := range defs {
		opts := make([]optionInfo, 0, len(d.Schema))
		for _, o := range d.Schema {
			opts = append(opts, optionInfo{
				Key: o.Key, Type: string(o.Type), Default: o.Default,
				Min: o.Min, Max: o.Max, Enum: o.Enum,
			})
		}
		out = append(out, scoreboardInfo{Name: d.Name, Description: d.Description, Options: opts})
	}
	return c.JSON(out)
}

// queryProjection is the GET-style projection query from §6:
// positional projectionName/fopName, arbitrary option query keys,
// returning {success, type, fop, options, data, timestamp}.
//
// @Summary Query a projection
// @Router /projection/{name}/{fop} [get]
func (s *Server) queryProjection(c *fiber.Ctx) error {
	name := c.Params("name")
	fop := c.Params("fop")
	locale := c.Query("locale")

	rawOptions := make(map[string]string, len(c.Queries()))
	for k, v := range c.Queries() {
		if k == "locale" {
			continue
		}
		rawOptions[k] = v
	}

	// Query-string values arrive as strings regardless of the declared
	// option type; coerce against the projection's own schema before
	// validation so e.g. ?includeSpacers=false reaches Schema.Validate
	// as a bool, not a string (§6, §4.8).
	var options map[string]any
	if def, ok := s.host.Definition(name); ok {
		options = def.Schema.CoerceQueryStrings(rawOptions)
	} else {
		options = make(map[string]any, len(rawOptions))
		for k, v := range rawOptions {
			options[k] = v
		}
	}

	result := s.host.Query(name, fop, options, locale)
	return c.JSON(fiber.Map{
		"success":   result.Success,
		"type":      name,
		"fop":       fop,
		"options":   options,
		"data":      result.Data,
		"waiting":   result.Waiting,
		"error":     result.Error,
		"timestamp": time.Now().UnixMilli(),
	})
}

// actionRequest is the POST-style envelope from §6: {action: ...}.
type actionRequest struct {
	Action         string         `json:"action"`
	ProjectionName string         `json:"projectionName"`
	Fop            string         `json:"fop"`
	Options        map[string]any `json:"options"`
	Locale         string         `json:"locale"`
}

// handleAction answers list_scoreboards/list_fops/get_state POST
// requests, §4.8.
//
// @Summary Dispatch a discovery/metadata action
// @Router /action [post]
func (s *Server) handleAction(c *fiber.Ctx) error {
	var req actionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid action request body"})
	}

	switch req.Action {
	case "list_scoreboards":
		return s.listScoreboards(c)
	case "list_fops":
		return s.listFops(c)
	case "get_state":
		result := s.host.Query(req.ProjectionName, req.Fop, req.Options, req.Locale)
		return c.JSON(fiber.Map{"success": result.Success, "data": result.Data, "error": result.Error})
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("unknown action %q", req.Action)})
	}
}

// streamEvents is the downstream push channel, §4.7/§6: one SSE
// connection per client, carrying coalesced {eventKind, fopName,
// timestamp} notifications. Grounded on the teacher's StreamEvents /
// RegisterClient / UnregisterClient pattern, replacing its per-process
// Redis-fed client list with a direct Fan-out Broker subscription.
func (s *Server) streamEvents(c *fiber.Ctx) error {
	fopFilter := c.Query("fop")
	sub := s.broker.Subscribe(fopFilter)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.broker.Unsubscribe(sub)
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case n, ok := <-sub.Queue:
				if !ok {
					return
				}
				if err := writeSSE(w, n); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": heartbeat\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

// writeSSE encodes one notification as a single `data: ...\n\n` SSE
// frame and flushes it immediately, per the teacher's StreamEvents
// per-event flush behavior.
func writeSSE(w *bufio.Writer, n broker.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("data: "); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if _, err := w.WriteString("\n\n"); err != nil {
		return err
	}
	return w.Flush()
}

// handleIngress is the ingress websocket handler, §6: one connection
// per upstream process, text frames routed to HandleText, binary
// frames to HandleBinary, replies written back over the same socket.
func (s *Server) handleIngress(conn *websocket.Conn) {
	defer conn.Close()
	ctx := context.Background()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var reply protocol.Reply
		switch mt {
		case websocket.TextMessage:
			reply = s.handler.HandleText(ctx, data)
		case websocket.BinaryMessage:
			reply = s.handler.HandleBinary(ctx, data)
		default:
			continue
		}

		out, err := json.Marshal(reply)
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			return
		}
	}
}

// Listen starts the HTTP server on the given port.
func (s *Server) Listen(port string) error {
	return s.App.Listen(":" + port)
}
