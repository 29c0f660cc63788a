package api

import (
	"alcyxob/gym-tracker/internal/service"
	"alcyxob/gym-tracker/internal/storage"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// respondServiceError maps service errors to HTTP statuses. Anything unknown is
// logged and answered with the generic fallback message.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrWeightNotFound),
		errors.Is(err, service.ErrActivityNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrWeightAlreadyLogged):
		abortWithError(c, http.StatusConflict, err.Error())
	case storage.IsDisabled(err):
		abortWithError(c, http.StatusServiceUnavailable, "Progress photos are not available.")
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error(fallback)
		_ = c.Error(err)
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
