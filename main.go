package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/studyloop/chat_backend/controllers"
	"github.com/studyloop/chat_backend/database"
	"github.com/studyloop/chat_backend/docs"
	"github.com/studyloop/chat_backend/middleware"
	"github.com/studyloop/chat_backend/redis"
	"github.com/studyloop/chat_backend/services"
	"github.com/studyloop/chat_backend/websocket"
)

// @title           Study Room API
// @version         1.0
// @description     Real-time room messaging and polling API
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize database
	database.Connect()
	database.Migrate()

	redisClient, err := redis.NewClient(redis.ConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	blobs, err := services.NewLocalBlobStore("./uploads", "/uploads")
	if err != nil {
		log.Fatalf("Failed to set up blob storage: %v", err)
	}

	// Fan-out hub, then the services that publish through it
	hub := websocket.NewHub()
	go hub.Run()

	roomService := services.NewRoomService(database.DB)
	unreadService := services.NewUnreadService(database.DB)
	messageService := services.NewMessageService(database.DB, roomService, unreadService, hub)
	pollService := services.NewPollService(database.DB, roomService, hub)
	verificationService := services.NewVerificationService(redisClient, 10*time.Minute)

	authController := controllers.NewAuthController(database.DB, verificationService)
	roomController := controllers.NewRoomController(roomService, unreadService)
	messageController := controllers.NewMessageController(messageService)
	pollController := controllers.NewPollController(pollService)
	attachmentController := controllers.NewAttachmentController(blobs)
	wsHandler := websocket.NewHandler(hub, roomService, messageService, unreadService)

	// Set up Swagger info
	docs.SwaggerInfo.Host = "localhost:" + os.Getenv("PORT")
	if docs.SwaggerInfo.Host == "localhost:" {
		docs.SwaggerInfo.Host = "localhost:8080"
	}

	// Set up router
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Attachment downloads
	router.Static("/uploads", "./uploads")

	// Authentication routes
	auth := router.Group("/api")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/password/forgot", authController.ForgotPassword)
		auth.POST("/password/reset", authController.ResetPassword)
	}

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		// Room routes
		api.GET("/rooms", roomController.GetRooms)
		api.POST("/rooms", roomController.CreateRoom)
		api.GET("/rooms/:id", roomController.GetRoom)
		api.PUT("/rooms/:id", roomController.UpdateRoom)
		api.DELETE("/rooms/:id", roomController.DeleteRoom)
		api.GET("/rooms/:id/participants", roomController.GetParticipants)
		api.POST("/rooms/:id/participants", roomController.AddParticipant)
		api.DELETE("/rooms/:id/participants/:userId", roomController.RemoveParticipant)
		api.POST("/rooms/:id/join", roomController.JoinRoom)
		api.POST("/rooms/:id/read", roomController.MarkRead)
		api.GET("/rooms/:id/unread", roomController.GetUnreadCount)

		// Message routes
		api.GET("/rooms/:id/messages", messageController.GetMessages)
		api.POST("/rooms/:id/messages", messageController.CreateMessage)
		api.PUT("/messages/:id", messageController.EditMessage)
		api.DELETE("/messages/:id", messageController.DeleteMessage)
		api.POST("/rooms/:id/messages/:messageId/pin", messageController.PinMessage)

		// Poll routes
		api.POST("/rooms/:id/polls", pollController.CreatePoll)
		api.POST("/rooms/:id/polls/:pollId/close", pollController.ClosePoll)
		api.POST("/polls/options/:id/vote", pollController.Vote)
		api.GET("/polls/:id/results", pollController.GetResults)

		// Attachment routes
		api.POST("/attachments", attachmentController.Upload)
	}

	// WebSocket route
	router.GET("/ws", wsHandler.HandleConnection)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server running on port %s", port)
	log.Printf("Swagger documentation available at http://localhost:%s/swagger/index.html", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
