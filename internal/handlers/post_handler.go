package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/chamadopro/backend/internal/models"
	"github.com/chamadopro/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PostHandler handles HTTP requests related to listings
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.ListPosts)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.PUT("/posts/:id/status", h.UpdatePostStatus)
}

// CreatePost handles creating a new listing
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post := &models.Post{
		AuthorID:      currentUserID,
		Type:          req.Type,
		Status:        models.PostActive,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		City:          req.City,
		State:         req.State,
		PriceEstimate: req.PriceEstimate,
	}

	if err := h.postRepository.CreatePost(post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, post)
}

// ListPosts lists posts with type/category/city/status filters and pagination
func (h *PostHandler) ListPosts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	filter := models.PostFilter{
		Type:     models.PostType(c.QueryParam("type")),
		Status:   models.PostStatus(c.QueryParam("status")),
		Category: c.QueryParam("category"),
		City:     c.QueryParam("city"),
	}
	if filter.Status == "" {
		filter.Status = models.PostActive
	}
	if mine, _ := strconv.ParseBool(c.QueryParam("mine")); mine {
		filter.AuthorID = getUserIDFromContext(c)
		filter.Status = models.PostStatus(c.QueryParam("status")) // own listings: no default status
	}

	posts, total, err := h.postRepository.ListPosts(filter, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"posts": posts,
		"meta": echo.Map{
			"currentPage":  page,
			"totalItems":   total,
			"itemsPerPage": limit,
		},
	})
}

// GetPost retrieves a single post
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.postRepository.GetPostByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	return c.JSON(http.StatusOK, post)
}

// UpdatePost handles editing a post's mutable fields (owner only)
func (h *PostHandler) UpdatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	post, err := h.postRepository.GetPostByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if post.AuthorID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the author can edit this post")
	}

	var req models.UpdatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.Title != "" {
		post.Title = req.Title
	}
	if req.Description != "" {
		post.Description = req.Description
	}
	if req.Category != "" {
		post.Category = req.Category
	}
	if req.PriceEstimate != 0 {
		post.PriceEstimate = req.PriceEstimate
	}

	if err := h.postRepository.UpdatePost(post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, post)
}

// UpdatePostStatus moves a post along its status transitions (owner or admin)
func (h *PostHandler) UpdatePostStatus(c echo.Context) error {
	claims := getUserClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid post ID")
	}

	var req models.UpdatePostStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if post.AuthorID != claims.UserID && claims.Role != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "Only the author or a moderator can change post status")
	}
	if !post.CanTransitionTo(req.Status) {
		return echo.NewHTTPError(http.StatusConflict, "Post cannot move from "+string(post.Status)+" to "+string(req.Status))
	}

	if err := h.postRepository.UpdateStatus(post.ID, post.Status, req.Status); err != nil {
		if errors.Is(err, repositories.ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusConflict, "Post status changed concurrently, refresh and retry")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	post.Status = req.Status
	return c.JSON(http.StatusOK, post)
}
