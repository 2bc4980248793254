package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"refvault-backend-go/internal/core"
	"refvault-backend-go/internal/db"
	"refvault-backend-go/internal/middleware"
)

// SetupRoutes configures all the application routes with their handlers and
// middleware. Global middleware (Logging, Recovery, CORS) is expected to be
// applied to `router` before this function is called, typically in main.go.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	resolver core.AccessResolver,
	feed db.ChangeFeed,
	shareService core.ShareService,
	requestService core.RequestService,
	vaultService core.VaultService,
	userService core.UserService,
) {
	// Get Firebase Auth client. This must be available after db.InitFirestore().
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firebaseAuthClient == nil {
		logger.Fatal("Firebase Auth client is not initialized; routes cannot be set up")
	}
	authMW := middleware.NewAuthMiddleware(firebaseAuthClient)

	accessHandler := NewAccessHandler(resolver, feed, logger)
	shareHandler := NewShareHandler(shareService)
	requestHandler := NewRequestHandler(requestService)
	vaultHandler := NewVaultHandler(vaultService)
	userHandler := NewUserHandler(userService)

	apiV1 := router.Group("/api/v1")
	{
		// --- User Endpoints ---
		usersGroup := apiV1.Group("/users")
		{
			// Called after client-side Firebase login to ensure a backend
			// profile exists.
			usersGroup.POST("/initialize", authMW.VerifyToken(), userHandler.InitializeUserProfile)
			usersGroup.GET("/me", authMW.VerifyToken(), userHandler.GetCurrentUserProfile)
		}

		// --- Access Resolution Endpoints ---
		// Readable by anonymous callers: OptionalToken resolves the caller
		// identity when a token is present and leaves it anonymous otherwise.
		// The decision itself is what gates visibility, not the route.
		accessGroup := apiV1.Group("/vaults/:vaultId/access")
		{
			accessGroup.GET("", authMW.OptionalToken(), accessHandler.GetAccess)
			accessGroup.POST("/refresh", authMW.OptionalToken(), accessHandler.RefreshAccess)
			accessGroup.GET("/watch", authMW.OptionalToken(), accessHandler.WatchAccess)

			// Filing a request requires a signed-in caller.
			accessGroup.POST("/requests", authMW.VerifyToken(), requestHandler.RequestAccess)
			accessGroup.GET("/requests", authMW.VerifyToken(), requestHandler.ListRequests)
		}

		// PATCH /api/v1/access-requests/{requestId} - owner approves/rejects.
		apiV1.PATCH("/access-requests/:requestId", authMW.VerifyToken(), requestHandler.SetRequestStatus)

		// --- Vault Record Endpoints ---
		vaultsGroup := apiV1.Group("/vaults", authMW.VerifyToken())
		{
			vaultsGroup.POST("", vaultHandler.CreateVault)
			vaultsGroup.GET("", vaultHandler.ListVaults)
			vaultsGroup.PUT("/:vaultId", vaultHandler.UpdateVault)

			// Share registry, nested under a specific vault. Ownership is
			// checked within the ShareService methods.
			sharesGroup := vaultsGroup.Group("/:vaultId/shares")
			{
				sharesGroup.POST("", shareHandler.ShareVault)
				sharesGroup.GET("", shareHandler.ListShares)
				sharesGroup.PUT("/:shareId", shareHandler.UpdateShare)
				sharesGroup.DELETE("/:shareId", shareHandler.RemoveShare)
			}
		}

		// Counters are fire-and-forget and not gated on authentication; the
		// decision pipeline controls whether a client ever reaches the content
		// these count.
		apiV1.POST("/vaults/:vaultId/view", vaultHandler.RecordView)
		apiV1.POST("/vaults/:vaultId/download", vaultHandler.RecordDownload)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "RefVault backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
