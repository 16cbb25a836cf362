package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/storefront-checkout/api/handlers"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func newTestServer(t *testing.T, reg *prometheus.Registry) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(Deps{
		Env:      "test",
		Logger:   logger.Nop(),
		Checks:   map[string]handlers.Pinger{"database": stubPinger{}},
		Gatherer: reg,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthRoutes(t *testing.T) {
	srv := newTestServer(t, prometheus.NewRegistry())

	for _, path := range []string{"/healthz", "/healthz/live"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
		}
		if resp.Header.Get("X-Request-Id") == "" {
			t.Fatalf("GET %s: missing request id", path)
		}
	}
}

func TestMetricsRouteExposesCheckoutMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCheckoutMetrics(reg)
	m.IncCartMutation("item_added")

	srv := newTestServer(t, reg)
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), `cart_mutations_total{kind="item_added"} 1`) {
		t.Fatalf("metric missing from scrape:\n%s", body)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, prometheus.NewRegistry())
	resp, err := http.Get(srv.URL + "/orders")
	if err != nil {
		t.Fatalf("GET /orders: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
