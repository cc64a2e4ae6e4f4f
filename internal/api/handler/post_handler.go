package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/postboard/pkg/response"
)

type textRequest struct {
	Text string `json:"text" binding:"notblank"`
}

// CreatePost 发帖
// @Summary 创建帖子
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body textRequest true "帖子内容"
// @Success 200 {object} model.Post
// @Failure 400 {object} response.Errors
// @Failure 401 {object} response.Message
// @Failure 500 {object} response.Message
// @Router /api/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req textRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.postService.CreatePost(c.Request.Context(), who, req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, post)
}

// ListPosts 全部帖子，按时间倒序
// @Summary 帖子列表
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Post
// @Failure 401 {object} response.Message
// @Failure 500 {object} response.Message
// @Router /api/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.postService.ListPosts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, posts)
}

// GetPost
// @Summary 查询帖子
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 200 {object} model.Post
// @Failure 404 {object} response.Message
// @Router /api/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.postService.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, post)
}

// DeletePost 仅作者可删除
// @Summary 删除帖子
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Message
// @Failure 401 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /api/posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	if err := h.postService.DeletePost(c.Request.Context(), who, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	response.OK(c, "Post removed.")
}

// ToggleLike 点赞 / 取消点赞
// @Summary 切换点赞
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param post_id path string true "帖子ID"
// @Success 200 {object} model.Post
// @Failure 404 {object} response.Message
// @Router /api/posts/likes/{post_id} [post]
func (h *Handler) ToggleLike(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	post, err := h.postService.ToggleLike(c.Request.Context(), who, c.Param("post_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, post)
}

// AddComment
// @Summary 发表评论
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param request body textRequest true "评论内容"
// @Success 200 {array} model.Comment
// @Failure 400 {object} response.Errors
// @Failure 404 {object} response.Message
// @Router /api/posts/comments/{id} [post]
func (h *Handler) AddComment(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req textRequest
	if !bindJSON(c, &req) {
		return
	}
	comments, err := h.postService.AddComment(c.Request.Context(), who, c.Param("id"), req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, comments)
}

// RemoveComment 仅评论作者可删除
// @Summary 删除评论
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param post_id path string true "帖子ID"
// @Param comment_id path string true "评论ID"
// @Success 200 {array} model.Comment
// @Failure 401 {object} response.Message
// @Failure 404 {object} response.Message
// @Router /api/posts/comments/{post_id}/{comment_id} [delete]
func (h *Handler) RemoveComment(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	comments, err := h.postService.RemoveComment(c.Request.Context(), who, c.Param("post_id"), c.Param("comment_id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, comments)
}
