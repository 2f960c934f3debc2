package handlers

import (
	"errors"

	"gymbro/internal/app"
	"gymbro/internal/handlers/middleware"
	"gymbro/internal/services"

	groupController "gymbro/internal/controllers/groups"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type GroupHandler struct {
	Handler
	identityService *services.IdentityService
	groupController groupController.GroupControllerInterface
}

func NewGroupHandler(app app.App, router fiber.Router) *GroupHandler {
	log := logger.New("handlers").File("group_handler")
	return &GroupHandler{
		identityService: app.IdentityService,
		groupController: app.GroupController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *GroupHandler) Register() {
	groups := h.router.Group("/groups", h.middleware.RequireAuth(h.identityService))

	groups.Post("/", h.createGroup)
	groups.Get("/", h.listGroups)
	groups.Get("/:groupId", h.getGroup)
	groups.Delete("/:groupId", h.deleteGroup)
	groups.Post("/join", h.joinByInviteCode)
	groups.Post("/:groupId/leave", h.leaveGroup)

	groups.Post("/:groupId/invitations", h.inviteUser)
	invitations := h.router.Group("/invitations", h.middleware.RequireAuth(h.identityService))
	invitations.Get("/", h.listInvitations)
	invitations.Post("/:invitationId/respond", h.respondToInvitation)
}

// groupError maps controller sentinels to HTTP responses
func groupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, groupController.ErrNotAMember):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this group"})
	case errors.Is(err, groupController.ErrAlreadyMember):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Already a member of this group"})
	case errors.Is(err, groupController.ErrGroupFull):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Group is full"})
	case errors.Is(err, groupController.ErrNotGroupAdmin):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only a group admin can do this"})
	case errors.Is(err, groupController.ErrCreatorLeaving):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "The group creator must delete the group instead of leaving"})
	case errors.Is(err, groupController.ErrInvitationClosed):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Invitation has already been answered"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
}

func (h *GroupHandler) createGroup(c *fiber.Ctx) error {
	log := h.log.Function("createGroup")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	var req struct {
		Name        string  `json:"name"`
		Description *string `json:"description"`
		MaxMembers  int     `json:"maxMembers"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	group, err := h.groupController.CreateGroup(
		c.UserContext(),
		user,
		req.Name,
		req.Description,
		req.MaxMembers,
	)
	if err != nil {
		log.Er("failed to create group", err, "userID", user.ID)
		return groupError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) listGroups(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	groups, err := h.groupController.ListUserGroups(c.UserContext(), user)
	if err != nil {
		return groupError(c, err)
	}

	return c.JSON(fiber.Map{"groups": groups})
}

func (h *GroupHandler) getGroup(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	group, err := h.groupController.GetGroup(c.UserContext(), user, groupID)
	if err != nil {
		return groupError(c, err)
	}

	return c.JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) deleteGroup(c *fiber.Ctx) error {
	log := h.log.Function("deleteGroup")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	if err := h.groupController.DeleteGroup(c.UserContext(), user, groupID); err != nil {
		log.Er("failed to delete group", err, "groupID", groupID, "userID", user.ID)
		return groupError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Group deleted"})
}

func (h *GroupHandler) joinByInviteCode(c *fiber.Ctx) error {
	log := h.log.Function("joinByInviteCode")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	var req struct {
		InviteCode string `json:"inviteCode"`
	}
	if err := c.BodyParser(&req); err != nil || req.InviteCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invite code is required"})
	}

	group, err := h.groupController.JoinByInviteCode(c.UserContext(), user, req.InviteCode)
	if err != nil {
		log.Info("join by invite code failed", "userID", user.ID, "error", err)
		return groupError(c, err)
	}

	return c.JSON(fiber.Map{"group": group})
}

func (h *GroupHandler) leaveGroup(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	if err := h.groupController.LeaveGroup(c.UserContext(), user, groupID); err != nil {
		return groupError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Left group"})
}

func (h *GroupHandler) inviteUser(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invitee email is required"})
	}

	invitation, err := h.groupController.InviteUser(c.UserContext(), user, groupID, req.Email)
	if err != nil {
		return groupError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"invitation": invitation})
}

func (h *GroupHandler) listInvitations(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	invitations, err := h.groupController.ListInvitations(c.UserContext(), user)
	if err != nil {
		return groupError(c, err)
	}

	return c.JSON(fiber.Map{"invitations": invitations})
}

func (h *GroupHandler) respondToInvitation(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	invitationID, err := uuid.Parse(c.Params("invitationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invitation id"})
	}

	var req struct {
		Accept bool `json:"accept"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	invitation, err := h.groupController.RespondToInvitation(
		c.UserContext(),
		user,
		invitationID,
		req.Accept,
	)
	if err != nil {
		return groupError(c, err)
	}

	return c.JSON(fiber.Map{"invitation": invitation})
}
