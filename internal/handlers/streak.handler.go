package handlers

import (
	"errors"

	"gymbro/internal/app"
	"gymbro/internal/handlers/middleware"
	"gymbro/internal/services"

	groupController "gymbro/internal/controllers/groups"
	streakController "gymbro/internal/controllers/streaks"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StreakHandler struct {
	Handler
	identityService  *services.IdentityService
	streakController streakController.StreakControllerInterface
	groupController  groupController.GroupControllerInterface
}

func NewStreakHandler(app app.App, router fiber.Router) *StreakHandler {
	log := logger.New("handlers").File("streak_handler")
	return &StreakHandler{
		identityService:  app.IdentityService,
		streakController: app.StreakController,
		groupController:  app.GroupController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *StreakHandler) Register() {
	groups := h.router.Group("/groups", h.middleware.RequireAuth(h.identityService))

	groups.Get("/:groupId/streaks", h.listGroupStreaks)
	groups.Get("/:groupId/streaks/summary", h.getGroupSummary)
	groups.Get("/:groupId/streaks/me", h.getMyStreak)
}

// listGroupStreaks returns the group leaderboard, best current streak first
func (h *StreakHandler) listGroupStreaks(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	if _, err := h.groupController.RequireMembership(c.UserContext(), user.ID, groupID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this group"})
	}

	streaks, err := h.streakController.ListGroupStreaks(c.UserContext(), groupID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load streaks"})
	}

	return c.JSON(fiber.Map{"streaks": streaks})
}

func (h *StreakHandler) getGroupSummary(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	if _, err := h.groupController.RequireMembership(c.UserContext(), user.ID, groupID); err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this group"})
	}

	summary, err := h.streakController.GetGroupSummary(c.UserContext(), groupID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load summary"})
	}

	return c.JSON(fiber.Map{"summary": summary})
}

func (h *StreakHandler) getMyStreak(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	streak, err := h.streakController.GetStreak(c.UserContext(), user.ID, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No streak for this group"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load streak"})
	}

	return c.JSON(fiber.Map{"streak": streak})
}
