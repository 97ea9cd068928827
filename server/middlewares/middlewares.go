package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/unihive/unihive/auth"
)

const (
	// ErrorTokenAuthFail is the error code returned on a missing or invalid
	// session token.
	ErrorTokenAuthFail = 40100
)

var (
	// authService validates session tokens. Before any middleware is used,
	// make sure it's initialized through Setup.
	authService *auth.Service
)

// Setup initializes all package scoped variables that are needed to perform
// middleware functionalities. This function must be called before any
// middleware is used.
func Setup(a *auth.Service) {
	authService = a
}

// JWT middleware fetches the session jwt in the http header, looking for
// field "token". It then parses the JWT and adds a new field "sub" that
// stores the user's id. It returns error on token not provided or token is
// invalid (wrong token or expired).
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		jwt := c.GetHeader("token")
		if jwt == "" {
			jwt = c.Query("token")
		}

		if jwt == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": ErrorTokenAuthFail,
				"msg":  "empty jwt token",
			})
			c.Abort()
			return
		}

		userId, err := authService.ParseToken(jwt)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": ErrorTokenAuthFail,
				"msg":  err.Error(),
			})
			c.Abort()
			return
		}

		// Successfully validated the jwt token, replace the header field
		// "token" with the user's sub (id).
		c.Request.Header.Del("token")
		c.Request.Header.Set("sub", userId)

		// before request
		c.Next()
	}
}
