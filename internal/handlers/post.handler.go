package handlers

import (
	"errors"

	"gymbro/internal/app"
	"gymbro/internal/handlers/middleware"
	"gymbro/internal/services"

	postController "gymbro/internal/controllers/posts"

	logger "github.com/Bparsons0904/goLogger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PostHandler struct {
	Handler
	identityService *services.IdentityService
	postController  postController.PostControllerInterface
}

func NewPostHandler(app app.App, router fiber.Router) *PostHandler {
	log := logger.New("handlers").File("post_handler")
	return &PostHandler{
		identityService: app.IdentityService,
		postController:  app.PostController,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *PostHandler) Register() {
	posts := h.router.Group("/posts", h.middleware.RequireAuth(h.identityService))

	posts.Post("/", h.createPost)
	posts.Get("/me", h.listMyPosts)
	posts.Delete("/:postId", h.deletePost)

	groups := h.router.Group("/groups", h.middleware.RequireAuth(h.identityService))
	groups.Get("/:groupId/feed", h.listGroupFeed)
	groups.Get("/:groupId/checkin", h.getCheckInStatus)
}

// createPost stores a post; a check-in post also advances the streak
func (h *PostHandler) createPost(c *fiber.Ctx) error {
	log := h.log.Function("createPost")

	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	var req postController.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.GroupID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Group id is required"})
	}

	result, err := h.postController.CreatePost(c.UserContext(), user, req)
	if err != nil {
		if errors.Is(err, postController.ErrNotAMember) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this group"})
		}
		log.Er("failed to create post", err, "userID", user.ID, "groupID", req.GroupID)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create post"})
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *PostHandler) listGroupFeed(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	posts, err := h.postController.ListGroupFeed(c.UserContext(), user, groupID, limit, offset)
	if err != nil {
		if errors.Is(err, postController.ErrNotAMember) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this group"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load feed"})
	}

	return c.JSON(fiber.Map{"posts": posts})
}

func (h *PostHandler) listMyPosts(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	posts, err := h.postController.ListUserPosts(c.UserContext(), user, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load posts"})
	}

	return c.JSON(fiber.Map{"posts": posts})
}

// getCheckInStatus reports whether the user has checked in today
func (h *PostHandler) getCheckInStatus(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	groupID, err := uuid.Parse(c.Params("groupId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group id"})
	}

	checkedIn, err := h.postController.HasCheckedInToday(c.UserContext(), user, groupID)
	if err != nil {
		if errors.Is(err, postController.ErrNotAMember) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not a member of this group"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load check-in status"})
	}

	return c.JSON(fiber.Map{"checkedIn": checkedIn})
}

func (h *PostHandler) deletePost(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	postID, err := uuid.Parse(c.Params("postId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post id"})
	}

	if err := h.postController.DeletePost(c.UserContext(), user, postID); err != nil {
		if errors.Is(err, postController.ErrNotPostOwner) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only the author can delete a post"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete post"})
	}

	return c.JSON(fiber.Map{"message": "Post deleted"})
}
