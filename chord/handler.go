package chord

import (
	"net/http"

	"go.miragespace.co/copper/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func ChordStatsHandler(node *LocalNode) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Get("/stats", node.StatsHandler)
	router.Get("/graph", RingGraphHandler(node))
	router.Get("/metrics", metrics.MetricsHandler)

	return router
}
