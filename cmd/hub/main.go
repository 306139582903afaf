// Command hub runs the real-time competition data relay: it loads
// configuration, wires the Event Emitter, Hub State Store, Archive
// Extractor, Protocol Handler, Fan-out Broker and View Function Host
// together, and serves the ingress/push/request-reply surface over
// Fiber.
//
// Mirrors the teacher's api/main.go imperative wiring order: load env,
// connect dependencies, init subsystems, build the Fiber app, mount
// middleware, listen.
package main

import (
	"log"

	"github.com/jflamy/owlcms-tracker-sub001/internal/archive"
	"github.com/jflamy/owlcms-tracker-sub001/internal/broker"
	"github.com/jflamy/owlcms-tracker-sub001/internal/config"
	"github.com/jflamy/owlcms-tracker-sub001/internal/events"
	"github.com/jflamy/owlcms-tracker-sub001/internal/hub"
	"github.com/jflamy/owlcms-tracker-sub001/internal/projection"
	"github.com/jflamy/owlcms-tracker-sub001/internal/protocol"
	"github.com/jflamy/owlcms-tracker-sub001/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Hub] fatal configuration error: %v", err)
	}

	emitter := events.New()
	h := hub.New(emitter)
	extractor := archive.New(cfg.LocalFilesDir)
	handler := protocol.New(h, emitter, extractor, cfg.MinProtocolVersion, cfg.MaxBinaryFrameBytes, cfg.EnableLegacyDatabaseFormat)

	b := broker.New(cfg.SubscriberQueueDepth, cfg.CoalesceWindow)
	detach := b.Attach(emitter)
	defer detach()
	defer b.Shutdown()

	host := projection.NewHost(h, cfg.DefaultLocale, cfg.ProjectionCacheCap)
	registerProjections(host)

	srv := server.New(h, handler, b, host, cfg.IngressPath)

	log.Printf("[Hub] listening on port %s, ingress mounted at %s", cfg.IngressPort, cfg.IngressPath)
	if err := srv.Listen(cfg.IngressPort); err != nil {
		log.Fatalf("[Hub] server exited: %v", err)
	}
}

// registerProjections wires every known scoreboard variant into the
// View Function Host. New projections are added here as they are
// implemented.
func registerProjections(host *projection.Host) {
	host.Register(projection.Definition{
		Name:        "liftingOrder",
		Description: "current lifting order for a FOP, resolved to display-ready athletes",
		Schema:      projection.LiftingOrderSchema,
		Fn:          projection.LiftingOrder,
	})
}
