package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-checkout/api/handlers"
	"github.com/angelmondragon/storefront-checkout/api/middleware"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Deps are what the ops router exposes.
type Deps struct {
	Env      string
	Logger   *logger.Logger
	Checks   map[string]handlers.Pinger
	Gatherer prometheus.Gatherer
}

// NewRouter serves health and Prometheus endpoints for the storefront host.
func NewRouter(deps Deps) http.Handler {
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/healthz", func(r chi.Router) {
		r.Get("/", handlers.Ready(deps.Env, logg, deps.Checks, readyTimeout))
		r.Get("/live", handlers.Live(deps.Env))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
