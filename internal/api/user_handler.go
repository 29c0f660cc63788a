package api

import (
	"alcyxob/gym-tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UpdateProfileRequest is a partial update. An explicit null targetWeight
// cannot be told apart from an absent one, hence clearTargetWeight.
type UpdateProfileRequest struct {
	Name              *string  `json:"name"`
	TargetWeight      *float64 `json:"targetWeight"`
	ClearTargetWeight bool     `json:"clearTargetWeight"`
}

// GetMe godoc
// @Summary Get the authenticated user's profile
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Error fetching user")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// UpdateMe godoc
// @Summary Update the authenticated user's profile
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} UserResponse
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		Name:              req.Name,
		TargetWeight:      req.TargetWeight,
		ClearTargetWeight: req.ClearTargetWeight,
	})
	if err != nil {
		respondServiceError(c, err, "Error updating user")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// GetStreak godoc
// @Summary Get the authenticated user's streak and badges
// @Tags Streak
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.StreakSummary
// @Router /streak [get]
func (h *UserHandler) GetStreak(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	summary, err := h.userService.GetStreak(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Error fetching streak")
		return
	}
	c.JSON(http.StatusOK, summary)
}
