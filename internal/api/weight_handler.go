package api

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type WeightHandler struct {
	weightService service.WeightService
}

func NewWeightHandler(weightService service.WeightService) *WeightHandler {
	return &WeightHandler{weightService: weightService}
}

type LogWeightRequest struct {
	Weight float64           `json:"weight" binding:"required"`
	Unit   domain.WeightUnit `json:"unit"`
	Date   *time.Time        `json:"date"`
}

type PhotoUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmPhotoRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type WeightResponse struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Date      time.Time         `json:"date"`
	Day       string            `json:"day"`
	Weight    float64           `json:"weight"`
	Unit      domain.WeightUnit `json:"unit"`
	PhotoURL  *string           `json:"photoUrl,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

func MapWeightToResponse(w *domain.Weight, photoURL *string) WeightResponse {
	if w == nil {
		return WeightResponse{}
	}
	return WeightResponse{
		ID:        w.ID.Hex(),
		UserID:    w.UserID.Hex(),
		Date:      w.Date,
		Day:       w.Day,
		Weight:    w.Weight,
		Unit:      w.Unit,
		PhotoURL:  photoURL,
		CreatedAt: w.CreatedAt,
	}
}

func MapWeightEntriesToResponse(entries []service.WeightEntry) []WeightResponse {
	responses := make([]WeightResponse, len(entries))
	for i := range entries {
		responses[i] = MapWeightToResponse(&entries[i].Weight, entries[i].PhotoURL)
	}
	return responses
}

// LogWeight godoc
// @Summary Log today's body weight
// @Tags Weights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param weight body LogWeightRequest true "Weight"
// @Success 201 {object} WeightResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Weight already logged for that day"
// @Router /weights [post]
func (h *WeightHandler) LogWeight(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req LogWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	weight, err := h.weightService.Log(c.Request.Context(), userID, service.LogWeightInput{
		Weight: req.Weight,
		Unit:   req.Unit,
		Date:   req.Date,
	})
	if err != nil {
		respondServiceError(c, err, "Error logging weight")
		return
	}
	c.JSON(http.StatusCreated, MapWeightToResponse(weight, nil))
}

// GetWeights godoc
// @Summary List weight entries, newest first
// @Tags Weights
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum entries (default 30, max 200)"
// @Success 200 {array} WeightResponse
// @Router /weights [get]
func (h *WeightHandler) GetWeights(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	entries, err := h.weightService.List(c.Request.Context(), userID, limit)
	if err != nil {
		respondServiceError(c, err, "Error fetching weights")
		return
	}
	c.JSON(http.StatusOK, MapWeightEntriesToResponse(entries))
}

// DeleteWeight godoc
// @Summary Delete a weight entry and its progress photo
// @Tags Weights
// @Security BearerAuth
// @Param id path string true "Weight ID"
// @Success 204
// @Router /weights/{id} [delete]
func (h *WeightHandler) DeleteWeight(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	weightID, ok := pathObjectID(c, "id", "weight")
	if !ok {
		return
	}
	if err := h.weightService.Delete(c.Request.Context(), userID, weightID); err != nil {
		respondServiceError(c, err, "Error deleting weight")
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestPhotoUploadURL godoc
// @Summary Get a presigned URL to upload a progress photo
// @Tags Weights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Weight ID"
// @Param body body PhotoUploadURLRequest true "Content type of the image"
// @Success 200 {object} service.UploadURLResponse
// @Failure 503 {object} gin.H "Object storage not configured"
// @Router /weights/{id}/photo/upload-url [post]
func (h *WeightHandler) RequestPhotoUploadURL(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	weightID, ok := pathObjectID(c, "id", "weight")
	if !ok {
		return
	}
	var req PhotoUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	resp, err := h.weightService.RequestPhotoUpload(c.Request.Context(), userID, weightID, req.ContentType)
	if err != nil {
		respondServiceError(c, err, "Error generating upload URL")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmPhoto godoc
// @Summary Attach an uploaded progress photo to a weight entry
// @Tags Weights
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Weight ID"
// @Param body body ConfirmPhotoRequest true "Object key returned by upload-url"
// @Success 200 {object} WeightResponse
// @Router /weights/{id}/photo [put]
func (h *WeightHandler) ConfirmPhoto(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	weightID, ok := pathObjectID(c, "id", "weight")
	if !ok {
		return
	}
	var req ConfirmPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	entry, err := h.weightService.ConfirmPhoto(c.Request.Context(), userID, weightID, req.ObjectKey)
	if err != nil {
		respondServiceError(c, err, "Error saving photo")
		return
	}
	c.JSON(http.StatusOK, MapWeightToResponse(&entry.Weight, entry.PhotoURL))
}
