package api

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/service"
	"alcyxob/gym-tracker/internal/streak"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type WorkoutHandler struct {
	workoutService service.WorkoutService
}

func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

type CreateWorkoutRequest struct {
	Date       *time.Time           `json:"date"`
	MusclesHit []domain.MuscleGroup `json:"musclesHit"`
	Exercises  []domain.Exercise    `json:"exercises"`
	Duration   *int                 `json:"duration"`
	Notes      string               `json:"notes"`
}

type WorkoutResponse struct {
	ID         string               `json:"id"`
	UserID     string               `json:"userId"`
	Date       time.Time            `json:"date"`
	MusclesHit []domain.MuscleGroup `json:"musclesHit"`
	Exercises  []domain.Exercise    `json:"exercises"`
	Duration   *int                 `json:"duration,omitempty"`
	Notes      string               `json:"notes,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// StreakResponse reports the streak step of a workout creation or a recompute.
type StreakResponse struct {
	Status        service.StreakOutcome `json:"status"`
	CurrentStreak *int                  `json:"currentStreak,omitempty"`
	LongestStreak *int                  `json:"longestStreak,omitempty"`
	Badges        []domain.Badge        `json:"badges,omitempty"`
	NewBadges     []domain.Badge        `json:"newBadges,omitempty"`
}

// CreateWorkoutResponse is the created workout plus what happened to the streak.
type CreateWorkoutResponse struct {
	WorkoutResponse
	Streak StreakResponse `json:"streak"`
}

func MapWorkoutToResponse(w *domain.Workout) WorkoutResponse {
	if w == nil {
		return WorkoutResponse{}
	}
	exercises := w.Exercises
	if exercises == nil {
		exercises = []domain.Exercise{}
	}
	return WorkoutResponse{
		ID:         w.ID.Hex(),
		UserID:     w.UserID.Hex(),
		Date:       w.Date,
		MusclesHit: w.MusclesHit,
		Exercises:  exercises,
		Duration:   w.Duration,
		Notes:      w.Notes,
		CreatedAt:  w.CreatedAt,
	}
}

func MapWorkoutsToResponse(workouts []domain.Workout) []WorkoutResponse {
	responses := make([]WorkoutResponse, len(workouts))
	for i := range workouts {
		responses[i] = MapWorkoutToResponse(&workouts[i])
	}
	return responses
}

func mapStreakResult(status service.StreakOutcome, res *streak.Result) StreakResponse {
	resp := StreakResponse{Status: status}
	if res == nil {
		return resp
	}
	current, longest := res.Current, res.Longest
	resp.CurrentStreak = &current
	resp.LongestStreak = &longest
	resp.Badges = res.Badges
	resp.NewBadges = res.NewBadges
	return resp
}

// CreateWorkout godoc
// @Summary Log a workout
// @Description Persists the workout, then updates the streak. A streak failure never fails the request.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body CreateWorkoutRequest true "Workout"
// @Success 201 {object} CreateWorkoutResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /workouts [post]
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	created, err := h.workoutService.Create(c.Request.Context(), userID, service.CreateWorkoutInput{
		Date:       req.Date,
		MusclesHit: req.MusclesHit,
		Exercises:  req.Exercises,
		Duration:   req.Duration,
		Notes:      req.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "Error creating workout")
		return
	}

	c.JSON(http.StatusCreated, CreateWorkoutResponse{
		WorkoutResponse: MapWorkoutToResponse(created.Workout),
		Streak:          mapStreakResult(created.Streak, created.Snapshot),
	})
}

// GetWorkouts godoc
// @Summary List the user's workouts, newest first
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries (default 50, max 200)"
// @Success 200 {array} WorkoutResponse
// @Router /workouts [get]
func (h *WorkoutHandler) GetWorkouts(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	workouts, err := h.workoutService.List(c.Request.Context(), userID, limit)
	if err != nil {
		respondServiceError(c, err, "Error fetching workouts")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutsToResponse(workouts))
}

// GetWorkout godoc
// @Summary Get one workout
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 200 {object} WorkoutResponse
// @Failure 404 {object} gin.H "Not found"
// @Router /workouts/{id} [get]
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	workoutID, ok := pathObjectID(c, "id", "workout")
	if !ok {
		return
	}
	workout, err := h.workoutService.Get(c.Request.Context(), userID, workoutID)
	if err != nil {
		respondServiceError(c, err, "Error fetching workout")
		return
	}
	c.JSON(http.StatusOK, MapWorkoutToResponse(workout))
}

// DeleteWorkout godoc
// @Summary Delete a workout
// @Description Streak counters are not recomputed.
// @Tags Workouts
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 204
// @Failure 404 {object} gin.H "Not found"
// @Router /workouts/{id} [delete]
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	workoutID, ok := pathObjectID(c, "id", "workout")
	if !ok {
		return
	}
	if err := h.workoutService.Delete(c.Request.Context(), userID, workoutID); err != nil {
		respondServiceError(c, err, "Error deleting workout")
		return
	}
	c.Status(http.StatusNoContent)
}

// RecomputeStreak godoc
// @Summary Run the streak engine for the authenticated user
// @Tags Streak
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StreakResponse
// @Router /streak/recompute [post]
func (h *WorkoutHandler) RecomputeStreak(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	res, err := h.workoutService.RecomputeStreak(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "Error updating streak")
		return
	}
	status := service.StreakUnchanged
	if res.Updated {
		status = service.StreakUpdated
	}
	c.JSON(http.StatusOK, mapStreakResult(status, res))
}
