package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/postboard/internal/service"
	"github.com/d60-Lab/postboard/pkg/response"
)

type registerRequest struct {
	Name     string `json:"name" binding:"notblank"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Register 注册并返回 token
// @Summary 注册
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "注册信息"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} response.Errors
// @Router /api/users [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	token, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, tokenResponse{Token: token})
}

// Login
// @Summary 登录
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "登录信息"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} response.Errors
// @Router /api/auth [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, tokenResponse{Token: token})
}

// CurrentUser
// @Summary 当前用户
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} response.Message
// @Router /api/auth [get]
func (h *Handler) CurrentUser(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	user, err := h.authService.CurrentUser(c.Request.Context(), who)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, user)
}

// Logout 注销当前 token
// @Summary 退出登录
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Message
// @Failure 401 {object} response.Message
// @Router /api/auth [delete]
func (h *Handler) Logout(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), who); err != nil {
		fail(c, err)
		return
	}
	response.OK(c, "Signed out.")
}
