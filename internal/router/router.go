package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"okusuri/backend/internal/handler"
	"okusuri/backend/internal/middleware"
	"okusuri/backend/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	medicationHandler *handler.MedicationHandler,
	reminderHandler *handler.ReminderHandler,
	onboardingHandler *handler.OnboardingHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	medications := api.Group("/medications")
	medications.Use(middleware.Auth(authService))
	medications.GET("", medicationHandler.List)
	medications.POST("", medicationHandler.AddManual)
	medications.POST("/import", medicationHandler.ImportScanned)

	reminderGroup := api.Group("/reminder")
	reminderGroup.Use(middleware.Auth(authService))
	reminderGroup.GET("/state", reminderHandler.GetState)
	reminderGroup.POST("/start", reminderHandler.Start)
	reminderGroup.POST("/taken", reminderHandler.MarkTaken)
	reminderGroup.POST("/postpone", reminderHandler.MarkPostponed)
	reminderGroup.POST("/activity", reminderHandler.ResetInactivity)
	reminderGroup.POST("/event", reminderHandler.HandleEvent)
	reminderGroup.GET("/notifications", reminderHandler.GetNotifications)

	onboardingGroup := api.Group("/onboarding")
	onboardingGroup.Use(middleware.Auth(authService))
	onboardingGroup.GET("", onboardingHandler.GetState)
	onboardingGroup.POST("/advance", onboardingHandler.Advance)
	onboardingGroup.POST("/retreat", onboardingHandler.Retreat)
	onboardingGroup.POST("/permission", onboardingHandler.SetPermission)
	onboardingGroup.POST("/family-setup", onboardingHandler.SetFamilySetup)
	onboardingGroup.POST("/contacts", onboardingHandler.AddContact)
	onboardingGroup.POST("/complete", onboardingHandler.Complete)

	contacts := api.Group("/contacts")
	contacts.Use(middleware.Auth(authService))
	contacts.GET("", onboardingHandler.ListContacts)

	return engine
}
