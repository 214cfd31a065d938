package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cms_server/server/common/transport/httpresp"
)

type tokenAuth interface {
	ParseAuthContext(token string) (username string, err error)
}

// AdminRequired guards mutating content routes. Read routes stay public,
// matching each collection's trust model.
func AdminRequired(auth tokenAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrMissingBearerToken))
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		username, err := auth.ParseAuthContext(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrInvalidToken))
			return
		}
		c.Set("auth_admin", username)
		c.Next()
	}
}
