package api

import (
	"imtfit/coaching-app/internal/domain"
	"imtfit/coaching-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	imtService service.IMTService,
	clientService service.ClientService,
	coachService service.CoachService,
	adminService service.AdminService,
) {

	authHandler := NewAuthHandler(authService)
	clientHandler := NewClientHandler(clientService, imtService)
	coachHandler := NewCoachHandler(coachService)
	adminHandler := NewAdminHandler(adminService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Client Routes ---
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.GET("/dashboard", clientHandler.Dashboard)

			clientGroup.GET("/imt", clientHandler.CurrentIMT)
			clientGroup.POST("/imt", clientHandler.RecordIMT)
			clientGroup.GET("/imt-history", clientHandler.IMTHistory)

			clientGroup.GET("/schedule", clientHandler.Schedule)
			clientGroup.POST("/workout-done", clientHandler.MarkWorkoutDone)

			clientGroup.GET("/progress", clientHandler.Progress)
			clientGroup.POST("/progress", clientHandler.AddProgressPhoto)

			clientGroup.GET("/videos", clientHandler.Videos)

			clientGroup.GET("/messages", clientHandler.Messages)
			clientGroup.POST("/messages", clientHandler.SendMessage)

			clientGroup.GET("/recommendations", clientHandler.Recommendations)
			clientGroup.GET("/food-recommendations", clientHandler.FoodRecommendations)
		}

		// --- Coach Routes ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachGroup.GET("/dashboard", coachHandler.Dashboard)

			coachGroup.GET("/clients", coachHandler.Clients)
			coachGroup.GET("/clients/:clientId", coachHandler.ClientDetail)
			coachGroup.GET("/clients/:clientId/messages", coachHandler.Messages)
			coachGroup.POST("/clients/:clientId/messages", coachHandler.SendMessage)

			coachGroup.GET("/schedules", coachHandler.Schedules)
			coachGroup.POST("/schedules", coachHandler.CreateSchedule)
			coachGroup.PATCH("/schedules/:scheduleId", coachHandler.SetScheduleCompleted)
			coachGroup.DELETE("/schedules/:scheduleId", coachHandler.DeleteSchedule)

			coachGroup.POST("/recommendations", coachHandler.CreateRecommendation)
			coachGroup.DELETE("/recommendations/:recommendationId", coachHandler.DeleteRecommendation)
			coachGroup.POST("/food-recommendations", coachHandler.CreateFoodRecommendation)
			coachGroup.DELETE("/food-recommendations/:recommendationId", coachHandler.DeleteFoodRecommendation)

			coachGroup.GET("/videos", coachHandler.Videos)
			coachGroup.POST("/videos", coachHandler.CreateVideo)
			coachGroup.PUT("/videos/:videoId", coachHandler.UpdateVideo)
			coachGroup.DELETE("/videos/:videoId", coachHandler.DeleteVideo)

			coachGroup.GET("/chats", coachHandler.ChatList)
		}

		// --- Admin Routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/stats", adminHandler.Stats)

			adminGroup.GET("/users", adminHandler.Users)
			adminGroup.GET("/users/:userId", adminHandler.UserByID)

			adminGroup.GET("/coaches", adminHandler.Coaches)
			adminGroup.POST("/coaches", adminHandler.CreateCoach)
			adminGroup.PUT("/coaches/:coachId", adminHandler.UpdateCoach)
			adminGroup.DELETE("/coaches/:coachId", adminHandler.DeleteCoach)

			adminGroup.GET("/clients", adminHandler.Clients)
			adminGroup.POST("/clients", adminHandler.CreateClient)
			adminGroup.PUT("/clients/:clientId", adminHandler.UpdateClient)
			adminGroup.DELETE("/clients/:clientId", adminHandler.DeleteClient)
			adminGroup.PUT("/clients/:clientId/coach", adminHandler.AssignCoach)

			adminGroup.GET("/videos", adminHandler.Videos)
		}
	}
}
