package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/postboard/internal/api/handler"
	"github.com/d60-Lab/postboard/internal/auth"
	"github.com/d60-Lab/postboard/internal/model"
	"github.com/d60-Lab/postboard/internal/repository"
	"github.com/d60-Lab/postboard/internal/service"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Post{}))
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	authSvc := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewTokenRepository(rdb),
		auth.NewTokenManager("test-secret", time.Hour, "postboard"),
		bcrypt.MinCost,
	)
	postSvc := service.NewPostService(repository.NewSQLPostRepository(db), authSvc)
	r, err := Setup(handler.New(postSvc, authSvc), authSvc, Options{Mode: gin.TestMode})
	require.NoError(t, err)
	return r
}

type client struct {
	t     *testing.T
	r     http.Handler
	token string
}

func (c *client) call(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	return w
}

func (c *client) decode(w *httptest.ResponseRecorder, v any) {
	c.t.Helper()
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func signUp(t *testing.T, r http.Handler, name, email string) *client {
	t.Helper()
	c := &client{t: t, r: r}
	w := c.call(http.MethodPost, "/api/users", `{"name":"`+name+`","email":"`+email+`","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok struct{ Token string }
	c.decode(w, &tok)
	require.NotEmpty(t, tok.Token)
	c.token = tok.Token
	return c
}

func userID(t *testing.T, c *client) string {
	t.Helper()
	w := c.call(http.MethodGet, "/api/auth", "")
	require.Equal(t, http.StatusOK, w.Code)
	var me model.User
	c.decode(w, &me)
	return me.ID
}

func TestHealthz(t *testing.T) {
	r := setupRouter(t)
	w := (&client{t: t, r: r}).call(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestIdentityRoutes(t *testing.T) {
	r := setupRouter(t)
	ann := signUp(t, r, "Ann", "ann@example.com")

	dup := &client{t: t, r: r}
	w := dup.call(http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"User already exists."}]}`, w.Body.String())

	w = dup.call(http.MethodPost, "/api/auth", `{"email":"ann@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"Invalid credentials."}]}`, w.Body.String())

	w = ann.call(http.MethodGet, "/api/auth", "")
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]any
	ann.decode(w, &me)
	assert.Equal(t, "Ann", me["name"])
	assert.NotContains(t, me, "password")

	w = ann.call(http.MethodDelete, "/api/auth", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"msg":"Signed out."}`, w.Body.String())

	w = ann.call(http.MethodGet, "/api/posts", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"msg":"Token is not valid."}`, w.Body.String())

	w = (&client{t: t, r: r}).call(http.MethodGet, "/api/posts", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"msg":"No token, authorization denied."}`, w.Body.String())
}

func TestPostLifecycle(t *testing.T) {
	r := setupRouter(t)
	a := signUp(t, r, "Ann", "ann@example.com")
	b := signUp(t, r, "Bob", "bob@example.com")

	// A creates a post
	w := a.call(http.MethodPost, "/api/posts", `{"text":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var post model.Post
	a.decode(w, &post)
	assert.Equal(t, "hello", post.Text)
	assert.Equal(t, "Ann", post.Name)
	assert.Empty(t, post.Likes)
	assert.Empty(t, post.Comments)
	assert.Contains(t, w.Body.String(), `"likes":[]`)

	w = b.call(http.MethodGet, "/api/posts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Post
	b.decode(w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, post.ID, list[0].ID)

	// B likes, then unlikes
	w = b.call(http.MethodPost, "/api/posts/likes/"+post.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	b.decode(w, &post)
	require.Len(t, post.Likes, 1)
	assert.Equal(t, userID(t, b), post.Likes[0].User)

	w = b.call(http.MethodPost, "/api/posts/likes/"+post.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	b.decode(w, &post)
	assert.Empty(t, post.Likes)

	// B comments; A may not remove it
	w = b.call(http.MethodPost, "/api/posts/comments/"+post.ID, `{"text":"nice"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var comments []model.Comment
	b.decode(w, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "Bob", comments[0].Name)

	w = a.call(http.MethodDelete, "/api/posts/comments/"+post.ID+"/"+comments[0].ID, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"msg":"User not authorized."}`, w.Body.String())

	w = b.call(http.MethodDelete, "/api/posts/comments/"+post.ID+"/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"msg":"Comment does not exist."}`, w.Body.String())

	w = b.call(http.MethodDelete, "/api/posts/comments/"+post.ID+"/"+comments[0].ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	// only A may delete the post
	w = b.call(http.MethodDelete, "/api/posts/"+post.ID, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"msg":"User not authorized to perform this action."}`, w.Body.String())

	w = a.call(http.MethodDelete, "/api/posts/"+post.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"msg":"Post removed."}`, w.Body.String())

	w = a.call(http.MethodGet, "/api/posts/"+post.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"msg":"Post not found."}`, w.Body.String())

	w = a.call(http.MethodGet, "/api/posts/not-an-id", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
