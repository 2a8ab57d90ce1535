package http

import (
	"log/slog"
	"net/http"

	"persistence/internal/core/application/unitofwork"
	"persistence/internal/core/ports"

	"github.com/labstack/echo/v4"
)

// UnitOfWorkMiddleware gives every request its own work scope and unit of
// work: the scope is attached to the request context, a session is begun
// before the handler runs and ended once it returns.
//
// Example:
//
//	e := echo.New()
//	e.Use(http.UnitOfWorkMiddleware(manager, logger))
func UnitOfWorkMiddleware(uow ports.UnitOfWork, logger *slog.Logger) echo.MiddlewareFunc {
	logger = logger.With("component", "unit_of_work_middleware")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := unitofwork.NewScope(req.Context())

			if err := uow.Begin(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to begin unit of work", "path", req.URL.Path, "error", err)
				return c.JSON(http.StatusServiceUnavailable, Error{
					Code:    http.StatusServiceUnavailable,
					Message: "Persistence is unavailable",
				})
			}

			defer func() {
				if err := uow.End(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to end unit of work", "path", req.URL.Path, "error", err)
				}
			}()

			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
