package api

import (
	"context"
	"net/http"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/middleware"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserStore is the user registry behind the HTTP surface.
type UserStore interface {
	List() []models.User
	Get(id int) (models.User, error)
	Create(user models.User) (models.User, error)
	Update(id int, user models.User) (models.User, error)
	Delete(id int) error
}

// PartViewer answers cross-service "user views part" lookups.
type PartViewer interface {
	Orchestrate(ctx context.Context, userID, partID int) (models.UserPartView, error)
}

// UserHandler handles user-related HTTP requests.
type UserHandler struct {
	Users  UserStore
	Views  PartViewer
	Logger *zap.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users UserStore, views PartViewer, logger *zap.Logger) *UserHandler {
	return &UserHandler{Users: users, Views: views, Logger: logger}
}

// ListUsers godoc
// @Summary      List all users
// @Description  Returns all users in insertion order
// @Tags         users
// @Produce      json
// @Success      200  {array}   models.User
// @Router       /api/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.Users.List())
}

// GetUser godoc
// @Summary      Get a user by ID
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  models.User
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ValidationErrorResponse
// @Router       /api/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}

	user, err := h.Users.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser godoc
// @Summary      Create a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      models.User  true  "User record"
// @Success      201      {object}  models.User
// @Failure      409      {object}  ErrorResponse
// @Failure      422      {object}  ValidationErrorResponse
// @Router       /api/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var user models.User
	if !bindUser(c, &user) {
		return
	}

	created, err := h.Users.Create(user)
	if err != nil {
		respondError(c, err)
		return
	}

	h.Logger.Info("user created",
		zap.Int("user_id", created.UserID), zap.String("correlation_id", middleware.GetCorrelationID(c)))
	c.JSON(http.StatusCreated, created)
}

// UpdateUser godoc
// @Summary      Replace an existing user
// @Description  The body replaces the stored record; user_id must match the path
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id       path      int          true  "User ID"
// @Param        request  body      models.User  true  "User record"
// @Success      200      {object}  models.User
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      422      {object}  ValidationErrorResponse
// @Router       /api/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}

	var user models.User
	if !bindUser(c, &user) {
		return
	}

	updated, err := h.Users.Update(id, user)
	if err != nil {
		respondError(c, err)
		return
	}

	h.Logger.Info("user updated",
		zap.Int("user_id", id), zap.String("correlation_id", middleware.GetCorrelationID(c)))
	c.JSON(http.StatusOK, updated)
}

// DeleteUser godoc
// @Summary      Delete a user
// @Tags         users
// @Param        id   path      int  true  "User ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /api/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathInt(c, "id")
	if !ok {
		return
	}

	if err := h.Users.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	h.Logger.Info("user deleted",
		zap.Int("user_id", id), zap.String("correlation_id", middleware.GetCorrelationID(c)))
	c.Status(http.StatusNoContent)
}

// GetUserPart godoc
// @Summary      Show a user a part
// @Description  Verifies the user exists, then fetches the part from the Parts service
// @Tags         users
// @Produce      json
// @Param        id       path      int  true  "User ID"
// @Param        part_id  path      int  true  "Part ID"
// @Success      200      {object}  models.UserPartView
// @Failure      404      {object}  ErrorResponse
// @Failure      502      {object}  ErrorResponse
// @Failure      503      {object}  ErrorResponse
// @Router       /api/users/{id}/parts/{part_id} [get]
func (h *UserHandler) GetUserPart(c *gin.Context) {
	userID, ok := pathInt(c, "id")
	if !ok {
		return
	}
	partID, ok := pathInt(c, "part_id")
	if !ok {
		return
	}

	view, err := h.Views.Orchestrate(c.Request.Context(), userID, partID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
