package router

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/postboard/docs"
	"github.com/d60-Lab/postboard/internal/api/handler"
	"github.com/d60-Lab/postboard/internal/api/middleware"
)

// Options toggles the optional middleware.
type Options struct {
	Mode        string
	Sentry      bool
	Tracing     bool
	ServiceName string
}

// Setup 注册全部路由
func Setup(h *handler.Handler, authn middleware.Authenticator, opts Options) (*gin.Engine, error) {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if opts.Tracing {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RequestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		api.POST("/users", h.Register)

		authRoutes := api.Group("/auth")
		authRoutes.POST("", h.Login)
		authRoutes.GET("", middleware.Auth(authn), h.CurrentUser)
		authRoutes.DELETE("", middleware.Auth(authn), h.Logout)

		posts := api.Group("/posts", middleware.Auth(authn))
		posts.POST("", h.CreatePost)
		posts.GET("", h.ListPosts)
		posts.GET("/:id", h.GetPost)
		posts.DELETE("/:id", h.DeletePost)
		posts.POST("/likes/:post_id", h.ToggleLike)
		posts.POST("/comments/:id", h.AddComment)
		posts.DELETE("/comments/:post_id/:comment_id", h.RemoveComment)
	}

	return r, nil
}
