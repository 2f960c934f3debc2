package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"gymbro/internal/database"
	"gymbro/internal/models"
	"gymbro/internal/services"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
)

// AuthContextKey is used to store auth info in context
type AuthContextKey string

const (
	UserKey      AuthContextKey = "user"
	UserKeyFiber string         = "User" // Fiber context key (string)

	// Verified tokens are cached briefly so hot clients skip repeated RSA
	// signature checks. Short enough that revocation at the provider still
	// bites quickly.
	SESSION_CACHE_PREFIX = "token:"
	SESSION_CACHE_EXPIRY = 5 * time.Minute
)

// RequireAuth validates the bearer ID token and loads the matching local
// user into the request context.
func (m *Middleware) RequireAuth(identityService *services.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.New("middleware").TraceFromContext(c.Context()).Function("RequireAuth")

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			log.Info("invalid authorization header format")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		token := tokenParts[1]
		if token == "" {
			log.Info("empty token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token required",
			})
		}

		oidcUserID, cached := m.cachedSubject(c.Context(), token)
		if !cached {
			tokenInfo, err := identityService.ValidateIDToken(c.Context(), token)
			if err != nil || !tokenInfo.Valid {
				log.Info("token validation failed", "error", err)
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid token",
				})
			}
			oidcUserID = tokenInfo.UserID
			m.cacheSubject(c.Context(), token, oidcUserID)
		}

		user, err := m.userRepo.GetByOIDCUserID(c.Context(), oidcUserID)
		if err != nil {
			log.Info("user not found in database", "oidcUserID", oidcUserID, "error", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		c.Locals(UserKeyFiber, user)

		ctx := context.WithValue(c.UserContext(), UserKey, user)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func tokenCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return SESSION_CACHE_PREFIX + hex.EncodeToString(sum[:])
}

func (m *Middleware) cachedSubject(ctx context.Context, token string) (string, bool) {
	var oidcUserID string
	found, err := database.NewCacheBuilder(m.DB.Cache.Session, tokenCacheKey(token)).
		WithContext(ctx).
		Get(&oidcUserID)
	if err != nil || !found || oidcUserID == "" {
		return "", false
	}
	return oidcUserID, true
}

func (m *Middleware) cacheSubject(ctx context.Context, token, oidcUserID string) {
	if err := database.NewCacheBuilder(m.DB.Cache.Session, tokenCacheKey(token)).
		WithStruct(oidcUserID).
		WithTTL(SESSION_CACHE_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		m.log.Function("cacheSubject").Warn("failed to cache verified token", "error", err)
	}
}

// GetUser extracts user from Fiber context
func GetUser(c *fiber.Ctx) *models.User {
	user, ok := c.Locals(UserKeyFiber).(*models.User)
	if !ok {
		return nil
	}
	return user
}
