package community

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kneecare/kneecare/internal/platform/auth"
	"github.com/kneecare/kneecare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	posts := api.Group("/community/posts")
	posts.POST("", h.CreatePost)
	posts.GET("", h.ListPosts)
	posts.GET("/:id", h.GetPost)
	posts.DELETE("/:id", h.DeletePost)
	posts.POST("/:id/replies", h.Reply)
}

type postRequest struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

func (h *Handler) CreatePost(c echo.Context) error {
	var req postRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	authorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}

	p := &Post{
		AuthorID:   authorID,
		AuthorRole: auth.RoleFromContext(c.Request().Context()),
		Title:      req.Title,
		Body:       req.Body,
		Tags:       req.Tags,
	}
	if err := h.svc.CreatePost(c.Request().Context(), p); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPosts(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListPosts(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Post{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p))
}

type postResponse struct {
	Post    *Post    `json:"post"`
	Replies []*Reply `json:"replies"`
}

func (h *Handler) GetPost(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}
	post, replies, err := h.svc.GetPost(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	if replies == nil {
		replies = []*Reply{}
	}
	return c.JSON(http.StatusOK, postResponse{Post: post, Replies: replies})
}

func (h *Handler) DeletePost(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}
	ctx := c.Request().Context()
	callerID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}

	isAdmin := auth.RoleFromContext(ctx) == auth.RoleAdmin
	if err := h.svc.DeletePost(ctx, id, callerID, isAdmin); err != nil {
		if errors.Is(err, ErrNotFound) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type replyRequest struct {
	Body string `json:"body"`
}

func (h *Handler) Reply(c echo.Context) error {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}
	var req replyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	authorID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
	}

	r := &Reply{
		PostID:     postID,
		AuthorID:   authorID,
		AuthorRole: auth.RoleFromContext(c.Request().Context()),
		Body:       req.Body,
	}
	if err := h.svc.Reply(c.Request().Context(), r); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func httpError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
