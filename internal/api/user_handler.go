package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"refvault-backend-go/internal/core"
	"refvault-backend-go/internal/middleware"
)

// UserHandler handles user profile endpoints.
type UserHandler struct {
	userService core.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us core.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

// InitializeUserProfile handles POST /users/initialize. Called after
// client-side Firebase login to ensure a backend profile exists; the profile
// is what shares and requests denormalize display names from.
func (h *UserHandler) InitializeUserProfile(c *gin.Context) {
	caller := middleware.CallerFromContext(c)

	user, created, err := h.userService.GetOrCreate(c.Request.Context(), caller.UserID, caller.Email, caller.DisplayName, "")
	if err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, user)
}

// GetCurrentUserProfile handles GET /users/me
func (h *UserHandler) GetCurrentUserProfile(c *gin.Context) {
	caller := middleware.CallerFromContext(c)

	user, err := h.userService.GetByID(c.Request.Context(), caller.UserID)
	if err != nil {
		mapCoreErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
