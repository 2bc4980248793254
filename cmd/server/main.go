package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"refvault-backend-go/internal/api"
	"refvault-backend-go/internal/cache"
	"refvault-backend-go/internal/config"
	"refvault-backend-go/internal/core"
	"refvault-backend-go/internal/db"
	"refvault-backend-go/internal/events"
	"refvault-backend-go/internal/middleware"
)

func main() {
	// --- 1. Initialize Logger (Zap) ---
	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Zap logger initialized successfully.")

	// --- 2. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded successfully.")

	// --- 3. Initialize Firebase Admin SDK (Firestore and Auth clients) ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirestore(initCtx, appConfig); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firestore and Firebase Admin SDK", zap.Error(err))
	}
	zapLogger.Info("Firebase Admin SDK (Firestore, Auth) initialized successfully.")

	firestoreClient := db.GetFirestoreClient()
	if firestoreClient == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firestore client is nil after initialization. Application cannot start.")
	}
	if db.GetFirebaseAuthClient() == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firebase Auth client is nil after initialization. Application cannot start.")
	}

	// --- 4. Initialize Repositories ---
	userRepo := db.NewFirestoreUserRepository(firestoreClient)
	auditRepo := db.NewFirestoreAuditRepository(firestoreClient)
	vaultRepo := db.NewFirestoreVaultRepository(firestoreClient)
	shareRepo := db.NewFirestoreShareRepository(firestoreClient)
	requestRepo := db.NewFirestoreRequestRepository(firestoreClient)
	publicationRepo := db.NewFirestorePublicationRepository(firestoreClient)
	changeFeed := db.NewFirestoreChangeFeed(firestoreClient)
	zapLogger.Info("Repositories initialized successfully.")

	// --- 5. Decision Cache (in-process by default, Redis when configured) ---
	var decisionCache cache.Cache
	if appConfig.RedisAddr != "" {
		decisionCache, err = cache.NewRedisCache(initCtx, cache.RedisConfig{
			Address:  appConfig.RedisAddr,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		})
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to Redis decision cache", zap.Error(err))
		}
		zapLogger.Info("Redis decision cache connected", zap.String("addr", appConfig.RedisAddr))
	} else {
		decisionCache = cache.NewMemoryCache()
		zapLogger.Info("Using in-process decision cache (REDIS_ADDR not set)")
	}

	// --- 6. Event Publisher (no-op unless AMQP_URL is configured) ---
	publisher := events.NewNoopPublisher()
	if appConfig.AMQPURL != "" {
		publisher, err = events.NewRabbitPublisher(appConfig.AMQPURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
		zapLogger.Info("RabbitMQ event publisher connected")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			zapLogger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}()

	// --- 7. Initialize Core Services ---
	auditService := core.NewAuditService(auditRepo)
	userService := core.NewUserService(userRepo)
	vaultService := core.NewVaultService(vaultRepo, auditService, zapLogger)
	shareService := core.NewShareService(vaultRepo, shareRepo, requestRepo, userRepo, auditService, publisher, zapLogger)
	requestService := core.NewRequestService(vaultRepo, shareRepo, requestRepo, auditService, publisher, zapLogger)

	// The probe consults collections that stay readable when the vault row
	// itself is hidden from the caller.
	probe := core.NewExistenceProbe(zapLogger,
		core.ProbeSource{Name: "vault_publications", Exists: publicationRepo.ExistsByVault},
		core.ProbeSource{Name: "access_requests", Exists: requestRepo.ExistsByVault},
	)
	resolver := core.NewAccessResolver(vaultRepo, shareRepo, requestRepo, probe, decisionCache, zapLogger)
	zapLogger.Info("Core services initialized successfully.")

	// --- 8. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// --- 9. Apply Global Middleware (order matters) ---
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig))

	// --- 10. Setup API Routes ---
	api.SetupRoutes(
		router,
		zapLogger,
		resolver,
		changeFeed,
		shareService,
		requestService,
		vaultService,
		userService,
	)

	// --- 11. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 12. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
