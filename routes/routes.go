package routes

import (
	"net/http"
	"time"

	"masu/handlers"
	"masu/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWizardRoutes sets up the purchase wizard endpoints. Member auth is
// optional everywhere; guests drive the same flow.
func RegisterWizardRoutes(r *gin.Engine, wh *handlers.WizardHandler) {
	api := r.Group("/api/wizard")
	{
		api.Use(middleware.MemberAuthMiddleware(true))
		api.POST("/start", wh.StartFlow)
		api.GET("/treatments", wh.ListTreatments)
		api.POST("/guest/recover", wh.RecoverGuest)

		api.GET("/session/:sessionID", wh.GetSession)
		api.DELETE("/session/:sessionID", wh.Abandon)

		api.POST("/session/:sessionID/treatment", wh.SelectTreatment)
		api.POST("/session/:sessionID/voucher", wh.SelectVoucher)
		api.POST("/session/:sessionID/date", wh.SelectDate)
		api.POST("/session/:sessionID/time", wh.SelectTime)
		api.POST("/session/:sessionID/gender-preference", wh.SetGenderPreference)
		api.PUT("/session/:sessionID/identity", wh.UpdateIdentity)
		api.PUT("/session/:sessionID/address", wh.UpdateAddress)

		api.POST("/session/:sessionID/redemption", wh.ApplyRedemption)
		api.DELETE("/session/:sessionID/redemption", wh.ClearRedemption)
		api.POST("/session/:sessionID/coupon", wh.ApplyCoupon)

		api.POST("/session/:sessionID/advance", wh.Advance)
		api.POST("/session/:sessionID/back", wh.Back)

		api.POST("/session/:sessionID/payment/intent", wh.BeginPayment)
		api.POST("/session/:sessionID/payment/complete", wh.CompletePayment)

		api.POST("/session/:sessionID/resume", wh.Resume)
		api.POST("/session/:sessionID/fresh", wh.StartFresh)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Masu"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, wh *handlers.WizardHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	RegisterHealthRoute(r)
	RegisterWizardRoutes(r, wh)
}
