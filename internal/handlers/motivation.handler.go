package handlers

import (
	"errors"

	"gymbro/internal/app"
	"gymbro/internal/handlers/middleware"
	"gymbro/internal/services"

	motivationController "gymbro/internal/controllers/motivation"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type MotivationHandler struct {
	Handler
	identityService      *services.IdentityService
	motivationController motivationController.MotivationControllerInterface
}

func NewMotivationHandler(app app.App, router fiber.Router) *MotivationHandler {
	log := logger.New("handlers").File("motivation_handler")
	return &MotivationHandler{
		identityService:      app.IdentityService,
		motivationController: app.MotivationController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *MotivationHandler) Register() {
	motivate := h.router.Group("/motivate", h.middleware.RequireAuth(h.identityService))

	motivate.Post("/generate", h.generateMessage)
	motivate.Get("/messages/:messageId/audio", h.getMessageAudio)
	motivate.Get("/:groupId", h.listMessages)

	voice := h.router.Group("/voice", h.middleware.RequireAuth(h.identityService))
	voice.Post("/generate", h.generateVoiceClip)
}

func (h *MotivationHandler) generateMessage(c *fiber.Ctx) error {
	log := h.log.Function("generateMessage")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	var req struct {
		GroupID uuid.UUID `json:"groupId"`
	}
	if err := c.BodyParser(&req); err != nil || req.GroupID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Group id is required"})
	}

	message, err := h.motivationController.GenerateForGroup(c.UserContext(), user, req.GroupID)
	if err != nil {
		if errors.Is(err, motivationController.ErrNotAMember) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this group"})
		}
		log.Er("failed to generate message", err, "groupID", req.GroupID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate message"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *MotivationHandler) listMessages(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	limit := c.QueryInt("limit", 10)

	messages, err := h.motivationController.ListMessages(c.UserContext(), user, groupID, limit)
	if err != nil {
		if errors.Is(err, motivationController.ErrNotAMember) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this group"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load messages"})
	}

	return c.JSON(fiber.Map{"messages": messages})
}

// getMessageAudio renders a stored motivational message to MP3 audio
func (h *MotivationHandler) getMessageAudio(c *fiber.Ctx) error {
	log := h.log.Function("getMessageAudio")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	messageID, err := uuid.Parse(c.Params("messageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid message id"})
	}

	audio, err := h.motivationController.GenerateVoiceForMessage(c.UserContext(), user, messageID)
	if err != nil {
		if errors.Is(err, motivationController.ErrNotAMember) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this group"})
		}
		log.Er("failed to generate message audio", err, "messageID", messageID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate audio"})
	}

	c.Set("Content-Type", "audio/mpeg")
	return c.Send(audio)
}

// generateVoiceClip renders short text to MP3 audio
func (h *MotivationHandler) generateVoiceClip(c *fiber.Ctx) error {
	log := h.log.Function("generateVoiceClip")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Text is required"})
	}

	audio, err := h.motivationController.GenerateVoiceClip(c.UserContext(), user, req.Text)
	if err != nil {
		log.Er("failed to generate voice clip", err, "userID", user.ID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate voice clip"})
	}

	c.Set("Content-Type", "audio/mpeg")
	return c.Send(audio)
}
