package api

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService service.ActivityService
}

func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

type LogActivityRequest struct {
	Type     domain.ActivityType `json:"type"`
	Distance *float64            `json:"distance"`
	Duration *int                `json:"duration"`
	Calories *int                `json:"calories"`
	Date     *time.Time          `json:"date"`
}

// LogActivity godoc
// @Summary Log a cardio activity (walking by default)
// @Tags Activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param activity body LogActivityRequest true "Activity"
// @Success 201 {object} domain.Activity
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Router /activities [post]
func (h *ActivityHandler) LogActivity(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req LogActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	activity, err := h.activityService.Log(c.Request.Context(), userID, service.LogActivityInput{
		Type:     req.Type,
		Distance: req.Distance,
		Duration: req.Duration,
		Calories: req.Calories,
		Date:     req.Date,
	})
	if err != nil {
		respondServiceError(c, err, "Error logging activity")
		return
	}
	c.JSON(http.StatusCreated, activity)
}

// GetActivities godoc
// @Summary List activities, newest first
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries (default 7, max 200)"
// @Success 200 {array} domain.Activity
// @Router /activities [get]
func (h *ActivityHandler) GetActivities(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	activities, err := h.activityService.List(c.Request.Context(), userID, limit)
	if err != nil {
		respondServiceError(c, err, "Error fetching activities")
		return
	}
	if activities == nil {
		activities = []domain.Activity{}
	}
	c.JSON(http.StatusOK, activities)
}

// DeleteActivity godoc
// @Summary Delete an activity
// @Tags Activities
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Success 204
// @Router /activities/{id} [delete]
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "id", "activity")
	if !ok {
		return
	}
	if err := h.activityService.Delete(c.Request.Context(), userID, activityID); err != nil {
		respondServiceError(c, err, "Error deleting activity")
		return
	}
	c.Status(http.StatusNoContent)
}
