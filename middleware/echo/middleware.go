package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/format"
	"github.com/reoring/skemabind/middleware"
)

// ValidateJSON loads the request JSON through b, stores the model in the
// request context on success, or returns 400 with an issue payload.
func ValidateJSON[T any](b *skemabind.Binding[T], opts ...format.Option) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m, err := middleware.Decode(c.Request(), b, opts...)
			if err != nil {
				return c.JSON(http.StatusBadRequest, middleware.ErrorBody(err))
			}
			c.SetRequest(c.Request().WithContext(middleware.ContextWithModel(c.Request().Context(), m)))
			return next(c)
		}
	}
}

// GetModel fetches the model stored by ValidateJSON.
func GetModel[T any](c echo.Context) (*T, bool) {
	return middleware.ModelFromContext[T](c.Request().Context())
}
