package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/postboard/config"
	"github.com/d60-Lab/postboard/internal/api/handler"
	"github.com/d60-Lab/postboard/internal/api/router"
	"github.com/d60-Lab/postboard/internal/auth"
	"github.com/d60-Lab/postboard/internal/repository"
	"github.com/d60-Lab/postboard/internal/service"
	"github.com/d60-Lab/postboard/pkg/database"
	"github.com/d60-Lab/postboard/pkg/logger"
	"github.com/d60-Lab/postboard/pkg/monitor"
	"github.com/d60-Lab/postboard/pkg/tracing"
)

// App 手动装配的应用实例
type App struct {
	cfg    *config.Config
	db     *gorm.DB
	mongo  *mongo.Client
	rdb    *redis.Client
	engine *gin.Engine

	closers []func(context.Context) error
}

// New opens every backend named in cfg and builds the HTTP engine.
// On error the backends opened so far are closed again.
func New(ctx context.Context, cfg *config.Config) (a *App, err error) {
	a = &App{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close(context.Background())
			a = nil
		}
	}()

	flush, err := monitor.InitSentry(cfg.Sentry)
	if err != nil {
		return a, err
	}
	a.closers = append(a.closers, func(context.Context) error { flush(); return nil })

	shutdown, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return a, err
	}
	a.closers = append(a.closers, shutdown)

	a.db, err = database.InitDB(cfg)
	if err != nil {
		return a, err
	}
	a.closers = append(a.closers, func(context.Context) error { return database.CloseDB(a.db) })
	if cfg.Database.Driver == "sqlite" {
		// 本地运行时自动建表
		if err = database.Migrate(a.db); err != nil {
			return a, err
		}
	}

	posts, err := a.postRepository(ctx)
	if err != nil {
		return a, err
	}

	var tokens repository.TokenRepository
	if cfg.Redis.Addr != "" {
		a.rdb, err = database.InitRedis(ctx, cfg.Redis)
		if err != nil {
			return a, err
		}
		a.closers = append(a.closers, func(context.Context) error { return a.rdb.Close() })
		tokens = repository.NewTokenRepository(a.rdb)
	} else {
		logger.Warn("redis not configured, sign-out will not revoke tokens")
	}

	authSvc := service.NewAuthService(
		repository.NewUserRepository(a.db),
		tokens,
		auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expire, cfg.JWT.Issuer),
		0,
	)
	postSvc := service.NewPostService(posts, authSvc)

	mode := gin.DebugMode
	if cfg.IsRelease() {
		mode = gin.ReleaseMode
	}
	a.engine, err = router.Setup(handler.New(postSvc, authSvc), authSvc, router.Options{
		Mode:        mode,
		Sentry:      monitor.Enabled(),
		Tracing:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return a, fmt.Errorf("setup router: %w", err)
	}
	return a, nil
}

func (a *App) postRepository(ctx context.Context) (repository.PostRepository, error) {
	if a.cfg.PostStore == config.PostStoreSQL {
		logger.Info("post store", zap.String("backend", "sql"))
		return repository.NewSQLPostRepository(a.db), nil
	}

	client, err := database.InitMongo(ctx, a.cfg.Mongo)
	if err != nil {
		return nil, err
	}
	a.mongo = client
	a.closers = append(a.closers, client.Disconnect)

	repo := repository.NewMongoPostRepository(client.Database(a.cfg.Mongo.Database).Collection(a.cfg.Mongo.Collection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure post indexes: %w", err)
	}
	logger.Info("post store", zap.String("backend", "mongo"), zap.String("collection", a.cfg.Mongo.Collection))
	return repo, nil
}

// Handler exposes the engine, mostly for tests.
func (a *App) Handler() http.Handler { return a.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      a.engine,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

// Close releases backends in reverse order of opening.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}
