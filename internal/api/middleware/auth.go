package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/postboard/internal/auth"
	"github.com/d60-Lab/postboard/internal/service"
	"github.com/d60-Lab/postboard/pkg/response"
)

const principalKey = "postboard.principal"

// LegacyTokenHeader is accepted alongside "Authorization: Bearer".
const LegacyTokenHeader = "x-auth-token"

// Authenticator resolves a bearer credential to a caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

// Auth 校验 token 并把 Principal 放进 gin.Context
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "No token, authorization denied.")
			return
		}

		p, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			var aerr *service.AuthorizationError
			if errors.As(err, &aerr) {
				response.Unauthorized(c, aerr.Msg)
				return
			}
			response.InternalError(c, err)
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// Principal returns the caller set by Auth.
func Principal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// SetPrincipal is used by tests that mount handlers without the Auth middleware.
func SetPrincipal(c *gin.Context, p auth.Principal) { c.Set(principalKey, p) }

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return strings.TrimSpace(c.GetHeader(LegacyTokenHeader))
}
