package http

import (
	"net/http"
	"time"

	"github.com/cashflow/payflow/internal/metrics"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewRouter builds the echo instance with middleware and all routes.
func NewRouter(handler *PaymentHandler, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(Metrics(m))

	api := e.Group("/api/v1")
	api.POST("/commands", handler.ExecuteCommand)
	api.POST("/payments", handler.CreatePayment)
	api.GET("/payments", handler.ListPayments)
	api.GET("/payments/:id", handler.GetPayment)
	api.POST("/payments/:id/authorize", handler.AuthorizePayment)
	api.POST("/payments/:id/capture", handler.CapturePayment)
	api.POST("/payments/:id/settle", handler.SettlePayment)
	api.POST("/payments/:id/void", handler.VoidPayment)
	api.POST("/payments/:id/refund", handler.RefundPayment)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	return e
}

// Metrics returns a middleware that records HTTP metrics.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path() // Use route pattern, not actual path
			if path == "" {
				path = c.Request().URL.Path
			}
			m.RecordHTTPRequest(c.Request().Method, path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
