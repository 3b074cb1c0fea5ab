package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin aborts the request with 403 unless the authenticated user
// carries the administrator flag. It assumes JWTAuth has already stored
// "is_admin" in the context.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			admin, ok := c.Get("is_admin").(bool)
			if !ok || !admin {
				return c.JSON(http.StatusForbidden, echo.Map{
					"success": false,
					"message": "Unauthorized",
					"data":    nil,
				})
			}
			return next(c)
		}
	}
}
