package response

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/postboard/pkg/logger"
)

// ServerErrorMsg is the only detail a client sees for an unexpected failure.
const ServerErrorMsg = "Server error."

// Message is the body of acknowledgement and error responses.
type Message struct {
	Msg string `json:"msg"`
}

// Errors is the body of validation failures.
type Errors struct {
	Errors any `json:"errors"`
}

// Success 直接返回资源本身
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func OK(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Message{Msg: msg})
}

// BadRequest 返回逐字段的校验错误
func BadRequest(c *gin.Context, errs any) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Errors{Errors: errs})
}

func Unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Message{Msg: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusNotFound, Message{Msg: msg})
}

// InternalError logs err and reports it to sentry; the client only gets a generic message.
func InternalError(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, Message{Msg: ServerErrorMsg})
}
