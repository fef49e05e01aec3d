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
	fbauth "firebase.google.com/go/v4/auth"

	"modpanel/internal/adapter/api"
	"modpanel/internal/adapter/api/handler"
	apimiddleware "modpanel/internal/adapter/api/middleware"
	"modpanel/internal/adapter/api/router"
	"modpanel/internal/adapter/repository"
	"modpanel/internal/infrastructure/firebase"
	"modpanel/internal/infrastructure/storage"
	"modpanel/internal/infrastructure/websocket"
	"modpanel/internal/usecase"
	"modpanel/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")

	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath != "" {
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	} else if !cfg.IsDevelopment() {
		log.Fatalf("No Firebase credentials configured")
	}

	// Without credentials, Firebase token verification is unavailable; the dev
	// token flow covers authentication in that case.
	var authClient *fbauth.Client
	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		if !cfg.IsDevelopment() {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		log.Printf("Firebase unavailable, continuing with dev tokens only: %v", err)
	} else {
		authClient, err = firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(
		ctx,
		cfg.StorageBucket,
		cfg.FirebaseProject,
		serviceAccountPath,
	)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)

	tokenVerifier := firebase.NewTokenVerifier(authClient, cfg.JWTSecret, cfg.IsDevelopment())

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	messageUseCase := usecase.NewMessageUseCase(messageRepo, userRepo, wsManager, storageClient)
	inboxUseCase := usecase.NewInboxUseCase(messageRepo, userRepo, wsManager)
	userUseCase := usecase.NewUserUseCase(userRepo, wsManager)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.GeneralRateLimit())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(tokenVerifier)
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	handlers := router.Handlers{
		Message:   handler.NewMessageHandler(messageUseCase, inboxUseCase, storageClient),
		User:      handler.NewUserHandler(userUseCase),
		WebSocket: handler.NewWebSocketHandler(wsManager, userRepo, authMiddleware),
		DevToken:  handler.NewDevTokenHandler(tokenVerifier, userRepo, time.Duration(cfg.JWTExpiry)*time.Second),
		Health:    handler.NewHealthHandler(),
	}

	router.Setup(e, handlers, authMiddleware, adminMiddleware, cfg.Environment)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
