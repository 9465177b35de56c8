package http_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/Gestion-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Métricas
// ──────────────────────────────────────────────────────────────────────────────

func metricsApp(reg *prometheus.Registry) *fiber.App {
	m := apphttp.NewMetrics(reg)
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", m.Handler())
	return app
}

func TestMetrics_CuentaPorPatronDeRuta(t *testing.T) {
	reg := prometheus.NewRegistry()
	app := metricsApp(reg)

	for _, id := range []string{"1", "2"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/items/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	n, err := testutil.GatherAndCount(reg, "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "ambas peticiones comparten la serie /items/:id")
}

func TestMetrics_Exposicion(t *testing.T) {
	app := metricsApp(prometheus.NewRegistry())

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/items/7", nil))
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/items/:id",status="200"} 1`)
	assert.Contains(t, string(body), "http_request_duration_seconds_bucket")
}
