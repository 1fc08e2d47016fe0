package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"jobboard/internal/api"
	"jobboard/internal/auth"
	"jobboard/internal/config"
	"jobboard/internal/models"
	"jobboard/internal/repository"
	"jobboard/internal/service"
	"jobboard/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT secret is not configured")
	}

	db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port, cfg.DB.Timezone)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&models.User{}, &models.ChatRoom{}, &models.ChatMessage{}); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos)
	tokens := auth.NewManager(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	r := gin.Default()
	api.SetupRoutes(r, services, tokens)

	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
