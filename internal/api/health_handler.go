package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

// Healthz answers 200 when every pinger succeeds and 503 otherwise.
func Healthz(pingers map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}
		for name, ping := range pingers {
			if err := ping(ctx); err != nil {
				log.WithError(err).WithField("check", name).Warn("health check failed")
				checks[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "up"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	}
}
