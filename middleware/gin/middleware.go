package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reoring/skemabind"
	"github.com/reoring/skemabind/format"
	"github.com/reoring/skemabind/middleware"
)

// ValidateJSON loads the request JSON through b, stores the model in the
// request context, and on failure aborts with 400 and an issue payload.
func ValidateJSON[T any](b *skemabind.Binding[T], opts ...format.Option) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := middleware.Decode(c.Request, b, opts...)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrorBody(err))
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithModel(c.Request.Context(), m))
		c.Next()
	}
}

// GetModel fetches the model stored by ValidateJSON.
func GetModel[T any](c *gin.Context) (*T, bool) {
	return middleware.ModelFromContext[T](c.Request.Context())
}
