package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/postboard/internal/api/middleware"
	"github.com/d60-Lab/postboard/internal/auth"
	"github.com/d60-Lab/postboard/internal/service"
	"github.com/d60-Lab/postboard/pkg/response"
)

// Handler HTTP 处理器集合
type Handler struct {
	postService service.PostService
	authService service.AuthService
}

func New(postService service.PostService, authService service.AuthService) *Handler {
	return &Handler{postService: postService, authService: authService}
}

// fail 把服务层错误翻译为 HTTP 状态码
func fail(c *gin.Context, err error) {
	var (
		verr *service.ValidationError
		nerr *service.NotFoundError
		aerr *service.AuthorizationError
	)
	switch {
	case errors.As(err, &verr):
		response.BadRequest(c, verr.Fields)
	case errors.As(err, &nerr):
		response.NotFound(c, nerr.Msg)
	case errors.As(err, &aerr):
		response.Unauthorized(c, aerr.Msg)
	default:
		response.InternalError(c, err)
	}
}

// caller returns the authenticated principal; routes without Auth get a 401.
func caller(c *gin.Context) (auth.Principal, bool) {
	p, ok := middleware.Principal(c)
	if !ok {
		response.Unauthorized(c, "No token, authorization denied.")
	}
	return p, ok
}
