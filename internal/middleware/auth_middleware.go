package middleware

import (
	"log"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"refvault-backend-go/internal/models"
)

// ErrorResponse is a local definition for sending standardized error
// messages. It mirrors the one in internal/api/dto_models.go to avoid import
// cycles.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// callerContextKey is the gin context key the middleware stores the resolved
// caller under.
const callerContextKey = "caller"

// AuthMiddleware provides Gin middleware for Firebase token authentication.
type AuthMiddleware struct {
	firebaseAuthClient *auth.Client
}

// NewAuthMiddleware creates a new AuthMiddleware instance. It panics if the
// auth client is nil, as that is a setup error the application cannot run
// with.
func NewAuthMiddleware(fbAuthClient *auth.Client) *AuthMiddleware {
	if fbAuthClient == nil {
		log.Fatal("CRITICAL_ERROR: Firebase Auth client is not initialized for AuthMiddleware.")
		panic("Firebase Auth client is not initialized for AuthMiddleware")
	}
	return &AuthMiddleware{firebaseAuthClient: fbAuthClient}
}

// VerifyToken requires a valid Firebase ID token. On success the caller is
// stored in the Gin context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := m.callerFromHeader(c)
		if err != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: err})
			return
		}
		if caller.IsAnonymous() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}
		c.Set(callerContextKey, caller)
		c.Next()
	}
}

// OptionalToken verifies a Firebase ID token when one is presented but lets
// anonymous requests through with an empty caller. The access resolver
// accepts anonymous callers, so the resolve endpoint cannot demand a token.
func (m *AuthMiddleware) OptionalToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, errMsg := m.callerFromHeader(c)
		if errMsg != "" {
			// A malformed or expired token is rejected rather than downgraded
			// to anonymous; silently dropping an identity would change the
			// resolver's answer in a way the client cannot see.
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: errMsg})
			return
		}
		c.Set(callerContextKey, caller)
		c.Next()
	}
}

// callerFromHeader parses and verifies the Authorization header. An absent
// header yields an anonymous caller and no error; a present but invalid one
// yields an error message.
func (m *AuthMiddleware) callerFromHeader(c *gin.Context) (models.Caller, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return models.Caller{}, ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return models.Caller{}, "Authorization header format must be 'Bearer {token}'"
	}

	token, err := m.firebaseAuthClient.VerifyIDToken(c.Request.Context(), parts[1])
	if err != nil {
		log.Printf("AuthMiddleware: Error verifying Firebase ID token: %v", err)
		return models.Caller{}, "Invalid or expired authentication token"
	}

	caller := models.Caller{UserID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		caller.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		caller.DisplayName = name
	}
	return caller, ""
}

// CallerFromContext retrieves the caller stored by the auth middleware. The
// zero value is an anonymous caller.
func CallerFromContext(c *gin.Context) models.Caller {
	if v, ok := c.Get(callerContextKey); ok {
		if caller, ok := v.(models.Caller); ok {
			return caller
		}
	}
	return models.Caller{}
}
