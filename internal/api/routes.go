package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/api/handlers"
	"jobboard/internal/auth"
	"jobboard/internal/middleware"
	"jobboard/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services, tokens *auth.Manager) {
	authHandler := handlers.NewAuthHandler(services.User, tokens)
	roomHandler := handlers.NewRoomHandler(services.Room)
	wsHandler := handlers.NewWebSocketHandler(services.Chat, tokens)

	// One canonical chat endpoint. It authenticates from the token in the
	// request itself, so it sits outside the REST middleware chain.
	r.GET("/ws", wsHandler.HandleWebSocket)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	api := r.Group("/api")

	// Public routes
	{
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	// Authenticated routes
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware(tokens))
	{
		rooms := authorized.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)
			rooms.GET("/:id/messages", roomHandler.RoomMessages)
			rooms.POST("/:id/close", roomHandler.CloseRoom)
		}
	}
}
