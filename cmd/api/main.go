package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"sewahome/internal/adapter/api"
	"sewahome/internal/adapter/api/handler"
	apimiddleware "sewahome/internal/adapter/api/middleware"
	"sewahome/internal/adapter/api/router"
	"sewahome/internal/adapter/repository"
	"sewahome/internal/infrastructure/firebase"
	"sewahome/internal/infrastructure/ratelimit"
	"sewahome/internal/infrastructure/websocket"
	"sewahome/internal/usecase"
	"sewahome/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption

	// Service account from environment variable (production) with a file
	// path fallback for local development.
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	blockRepo := repository.NewFirestoreBlockRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	listingRepo := repository.NewFirestoreListingRepository(firestoreClient)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	wsManager := websocket.NewManager(time.Duration(cfg.OfflineGrace) * time.Second)

	blockUseCase := usecase.NewBlockUseCase(blockRepo, userRepo, rateLimiter)
	dispatcher := websocket.NewDispatcher(wsManager, blockUseCase)
	typingCoordinator := websocket.NewTypingCoordinator(time.Duration(cfg.TypingTTL)*time.Second, dispatcher, blockUseCase)
	messagingUseCase := usecase.NewMessagingUseCase(messageRepo, userRepo, listingRepo, blockUseCase, dispatcher, rateLimiter, cfg.MaxMessageLength)

	wsManager.Attach(messagingUseCase, typingCoordinator, rateLimiter, dispatcher)
	defer typingCoordinator.Shutdown()

	fbAuthClient := firebase.NewFirebaseAuthClient(authClient)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	chatHandler := handler.NewChatHandler(messagingUseCase)
	blockHandler := handler.NewBlockHandler(blockUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, fbAuthClient)
	healthHandler := handler.NewHealthHandler()
	devTokenHandler := handler.NewDevTokenHandler(fbAuthClient)

	router.Setup(e, authMiddleware, chatHandler, blockHandler, wsHandler, healthHandler)
	router.SetupDevRouter(e, devTokenHandler, cfg.Environment)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
