package api

import (
	stdhttp "net/http"

	intconfig "sessionbook/internal/config"
	h "sessionbook/internal/http/handlers"
	"sessionbook/internal/http/middleware"
	"sessionbook/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the gin engine. The webhook route is outside auth and rate limiting;
// it is authenticated by its signature.
func NewRouter(env intconfig.Env, hs h.Handlers, limiter *middleware.IPRateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Logger().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	api.POST("/webhooks/stripe", hs.StripeWebhook)
	api.GET("/health", h.Health)
	api.GET("/db-check", h.DBCheck)

	secured := api.Group("")
	if limiter != nil {
		secured.Use(limiter.Middleware())
	}
	secured.Use(middleware.Auth([]byte(env.JWTSecret)))
	{
		secured.GET("/routes", h.Routes)

		// Booking participants (either side)
		secured.POST("/bookings/:bookingId/join", middleware.RequireRoles("student", "instructor"), hs.JoinSession)

		// Student
		student := secured.Group("/student", middleware.RequireRoles("student"))
		student.POST("/payment-intents", hs.CreatePaymentIntent)
		student.GET("/bookings/:status", hs.ListStudentBookings)
		student.GET("/bookings/details/:bookingId", hs.StudentBookingDetail)
		student.GET("/bookings/details/:bookingId/receipt", hs.BookingReceipt)
		student.POST("/bookings/:bookingId/cancel", hs.CancelStudentBooking)
		student.PATCH("/wishlist/:sessionId", hs.ToggleWishlist)
		student.GET("/wishlist", hs.ListWishlist)

		// Instructor
		instructor := secured.Group("/instructor", middleware.RequireRoles("instructor"))
		instructor.GET("/bookings/:status", hs.ListInstructorBookings)
		instructor.POST("/bookings/:bookingId/cancel", hs.CancelInstructorBooking)
	}

	h.SetRouter(r)
	return r
}
