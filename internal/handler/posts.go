package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nicekwell/postboard/internal/repository"
	"github.com/nicekwell/postboard/internal/service"
)

const maxPostBodyBytes = 1 << 20

type PostHandler struct {
	Service *service.PostService
	Logger  *zap.Logger
}

func (h *PostHandler) Register(r gin.IRouter) {
	r.GET("/posts", h.list)
	r.POST("/posts", h.create)
}

type createPostRequest struct {
	Title string `json:"title" example:"A"`
	Body  string `json:"body" example:"B"`
}

// @Summary List posts
// @Description Newest first. Served from the cache when a fresh copy exists.
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Failure 503 {object} errorResponse
// @Router /posts [get]
func (h *PostHandler) list(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable")
		return
	}
	items, err := h.Service.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list posts failed", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Param post body createPostRequest true "title and body, both non-empty"
// @Success 201 {object} models.Post
// @Failure 400 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /posts [post]
func (h *PostHandler) create(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "service unavailable")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPostBodyBytes)

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid json body")
		return
	}
	post, err := h.Service.Create(c.Request.Context(), req.Title, req.Body)
	if err != nil {
		h.fail(c, "create post failed", err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrUnavailable):
		if h.Logger != nil {
			h.Logger.Error(msg, zap.Error(err))
		}
		Error(c, http.StatusServiceUnavailable, "store unavailable")
	default:
		if h.Logger != nil {
			h.Logger.Error(msg, zap.Error(err))
		}
		Error(c, http.StatusInternalServerError, "internal error")
	}
}
