package api

import (
	"alcyxob/gym-tracker/internal/metrics"
	"alcyxob/gym-tracker/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Workouts   service.WorkoutService
	Weights    service.WeightService
	Activities service.ActivityService
	Dashboard  service.DashboardService
}

type RouterOptions struct {
	Metrics  *metrics.Manager
	Gatherer prometheus.Gatherer
	// RateLimiter may be nil, in which case writes are not limited.
	RateLimiter     RequestRateLimiter
	WritesPerMinute int
	Pingers         map[string]Pinger
}

// NewRouter builds the gin engine with the global middleware chain.
// RequestMetrics sits outside PanicRecovery so recovered panics are still counted.
func NewRouter(metricsManager *metrics.Manager) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(), RequestMetrics(metricsManager), PanicRecovery(metricsManager))
	return router
}

func SetupRoutes(router *gin.Engine, services Services, opts RouterOptions) {
	authHandler := NewAuthHandler(services.Auth)
	userHandler := NewUserHandler(services.Users)
	workoutHandler := NewWorkoutHandler(services.Workouts)
	weightHandler := NewWeightHandler(services.Weights)
	activityHandler := NewActivityHandler(services.Activities)
	dashboardHandler := NewDashboardHandler(services.Dashboard)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/healthz", Healthz(opts.Pingers))
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(services.Auth))
	if opts.RateLimiter != nil {
		protected.Use(RateLimit(opts.RateLimiter, opts.Metrics, opts.WritesPerMinute))
	}
	{
		protected.GET("/users/me", userHandler.GetMe)
		protected.PUT("/users/me", userHandler.UpdateMe)

		protected.GET("/streak", userHandler.GetStreak)
		protected.POST("/streak/recompute", workoutHandler.RecomputeStreak)

		workouts := protected.Group("/workouts")
		{
			workouts.GET("", workoutHandler.GetWorkouts)
			workouts.POST("", workoutHandler.CreateWorkout)
			workouts.GET("/:id", workoutHandler.GetWorkout)
			workouts.DELETE("/:id", workoutHandler.DeleteWorkout)
		}

		weights := protected.Group("/weights")
		{
			weights.GET("", weightHandler.GetWeights)
			weights.POST("", weightHandler.LogWeight)
			weights.DELETE("/:id", weightHandler.DeleteWeight)
			weights.POST("/:id/photo/upload-url", weightHandler.RequestPhotoUploadURL)
			weights.PUT("/:id/photo", weightHandler.ConfirmPhoto)
		}

		activities := protected.Group("/activities")
		{
			activities.GET("", activityHandler.GetActivities)
			activities.POST("", activityHandler.LogActivity)
			activities.DELETE("/:id", activityHandler.DeleteActivity)
		}

		protected.GET("/dashboard", dashboardHandler.GetDashboard)
	}
}
