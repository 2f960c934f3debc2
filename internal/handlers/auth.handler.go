package handlers

import (
	"gymbro/internal/app"
	"gymbro/internal/handlers/middleware"
	"gymbro/internal/services"

	authController "gymbro/internal/controllers/auth"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Handler
	identityService *services.IdentityService
	authController  authController.AuthControllerInterface
}

func NewAuthHandler(app app.App, router fiber.Router) *AuthHandler {
	log := logger.New("handlers").File("auth_handler")
	return &AuthHandler{
		identityService: app.IdentityService,
		authController:  app.AuthController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AuthHandler) Register() {
	auth := h.router.Group("/auth")

	// Public endpoints
	auth.Get("/config", h.getAuthConfig)
	auth.Post("/login", h.login)

	// Protected endpoints - require valid OIDC token
	protected := auth.Group("/", h.middleware.RequireAuth(h.identityService))
	protected.Get("/me", h.getCurrentUser)
	protected.Put("/push-token", h.updatePushToken)
	protected.Post("/logout", h.logout)
}

func (h *AuthHandler) getAuthConfig(c *fiber.Ctx) error {
	return c.JSON(h.authController.GetAuthConfig())
}

// login exchanges a client-obtained ID token for a local user profile
func (h *AuthHandler) login(c *fiber.Ctx) error {
	log := h.log.Function("login")

	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := c.BodyParser(&req); err != nil {
		log.Info("invalid login request body", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.authController.Login(c.UserContext(), req.IDToken)
	if err != nil {
		log.Info("login failed", "error", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Login failed",
		})
	}

	return c.JSON(result)
}

// getCurrentUser returns information about the currently authenticated user
func (h *AuthHandler) getCurrentUser(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	return c.JSON(fiber.Map{
		"user": user.ToProfile(),
	})
}

// logout clears server-side user caches; the client discards its own token
func (h *AuthHandler) logout(c *fiber.Ctx) error {
	log := h.log.Function("logout")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	if err := h.authController.Logout(c.UserContext(), user); err != nil {
		log.Er("failed to log out", err, "userID", user.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to log out",
		})
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// updatePushToken stores or clears the user's Expo push token
func (h *AuthHandler) updatePushToken(c *fiber.Ctx) error {
	log := h.log.Function("updatePushToken")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req struct {
		PushToken *string `json:"pushToken"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.authController.UpdatePushToken(c.UserContext(), user, req.PushToken); err != nil {
		log.Er("failed to update push token", err, "userID", user.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update push token",
		})
	}

	return c.JSON(fiber.Map{"message": "Push token updated"})
}
