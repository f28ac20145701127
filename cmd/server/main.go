package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sharebnb/internal/api"
	"sharebnb/internal/api/middleware"
	"sharebnb/internal/app/service"
	"sharebnb/internal/app/worker"
	"sharebnb/internal/common/security"
	"sharebnb/internal/domain/repository"
	"sharebnb/internal/platform/config"
	"sharebnb/internal/platform/database"
	"sharebnb/internal/platform/queue"
	"sharebnb/internal/platform/storage"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Configuration loaded.")

	// 2. Initialize Database
	db, err := database.Connect(cfg.DBConnStr)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected.")

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("Could not run migrations: %v", err)
	}
	log.Println("Migrations applied.")

	// 3. Initialize Redis
	rdb, err := queue.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Could not connect to Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("Redis connected.")
	messageQueue := queue.NewMessageQueue(rdb, cfg.MessageEventQueueName)

	// 4. Initialize Photo Storage
	photoStorage, err := storage.NewS3PhotoStorage(context.Background(), storage.Options{
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		BaseEndpoint: cfg.S3BaseEndpoint,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
	})
	if err != nil {
		log.Fatalf("Could not initialize photo storage: %v", err)
	}
	log.Println("Photo storage initialized.")

	// 5. Initialize Token Codec
	codec := security.NewTokenCodec(cfg.JWTKey, cfg.JWTExp)

	// 6. Initialize Repositories
	userRepo := repository.NewPgUserRepository(db)
	listingRepo := repository.NewPgListingRepository(db)
	messageRepo := repository.NewPgMessageRepository(db)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, codec)
	userService := service.NewUserService(userRepo)
	listingService := service.NewListingService(listingRepo, photoStorage, db)
	messageService := service.NewMessageService(messageRepo, userRepo, messageQueue)

	// 8. Initialize Notification Worker (as a goroutine)
	notificationWorker := worker.NewNotificationWorker(messageQueue)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go notificationWorker.Start(workerCtx)
	log.Println("Notification worker started.")

	// 9. Initialize Router & HTTP Server
	authenticator := middleware.NewAuthenticator(codec, userRepo)
	router := api.NewRouter(authenticator, authService, userService, listingService, messageService)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
