package postController

import (
	"context"
	"errors"
	"gymbro/config"
	"gymbro/internal/database"
	"gymbro/internal/events"
	"gymbro/internal/repositories"
	"gymbro/internal/services"
	"time"

	streakController "gymbro/internal/controllers/streaks"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotAMember   = errors.New("not a member of this group")
	ErrNotPostOwner = errors.New("only the author can delete a post")
)

type CreatePostRequest struct {
	GroupID  uuid.UUID      `json:"groupId"`
	Content  *string        `json:"content"`
	ImageURL *string        `json:"imageUrl"`
	PostType PostType       `json:"postType"`
	Metadata datatypes.JSON `json:"metadata"`
}

type CreatePostResult struct {
	Post   *Post                          `json:"post"`
	Streak *streakController.CheckInResult `json:"streak,omitempty"`
}

// eventPublisher is the slice of the event bus the post path needs.
type eventPublisher interface {
	Publish(channel events.Channel, event events.Event) error
}

type PostController struct {
	postRepo   repositories.PostRepository
	groupRepo  repositories.GroupRepository
	streaks    streakController.StreakControllerInterface
	txService  *services.TransactionService
	eventBus   eventPublisher
	db         database.DB
	Config     config.Config
	log        logger.Logger
}

type PostControllerInterface interface {
	CreatePost(ctx context.Context, user *User, req CreatePostRequest) (*CreatePostResult, error)
	ListGroupFeed(ctx context.Context, user *User, groupID uuid.UUID, limit, offset int) ([]Post, error)
	ListUserPosts(ctx context.Context, user *User, limit, offset int) ([]Post, error)
	DeletePost(ctx context.Context, user *User, postID uuid.UUID) error
	HasCheckedInToday(ctx context.Context, user *User, groupID uuid.UUID) (bool, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	streaks streakController.StreakControllerInterface,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) PostControllerInterface {
	return &PostController{
		postRepo:  repos.Post,
		groupRepo: repos.Group,
		streaks:   streaks,
		txService: services.Transaction,
		eventBus:  eventBus,
		db:        db,
		Config:    config,
		log:       logger.New("postController"),
	}
}

// CreatePost stores the post and, for check-ins, advances the streak
// afterwards. The streak update is best-effort: once the post is committed
// it stands, and a failed streak update only costs the response its streak
// payload.
func (pc *PostController) CreatePost(
	ctx context.Context,
	user *User,
	req CreatePostRequest,
) (*CreatePostResult, error) {
	log := pc.log.Function("CreatePost")

	if _, err := pc.groupRepo.GetMember(ctx, req.GroupID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAMember
		}
		return nil, err
	}

	postType := req.PostType
	if postType == "" {
		postType = PostTypeCheckIn
	}

	post := &Post{
		UserID:   user.ID,
		GroupID:  req.GroupID,
		Content:  req.Content,
		ImageURL: req.ImageURL,
		PostType: postType,
		Metadata: req.Metadata,
	}

	now := time.Now()
	result := &CreatePostResult{Post: post}

	err := pc.txService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return pc.postRepo.Create(ctx, tx, post)
	})
	if err != nil {
		return nil, err
	}

	if postType == PostTypeCheckIn {
		result.Streak = pc.applyCheckIn(ctx, user.ID, req.GroupID, now)
	}

	pc.publishPostEvents(user.ID, req.GroupID, post, result.Streak)

	log.Info("post created",
		"postID", post.ID,
		"userID", user.ID,
		"groupID", req.GroupID,
		"postType", postType,
	)

	return result, nil
}

// applyCheckIn advances the (user, group) streak for a check-in post. The
// post already stands at this point, so any failure here, including an
// out-of-order check-in, is logged and swallowed.
func (pc *PostController) applyCheckIn(
	ctx context.Context,
	userID, groupID uuid.UUID,
	at time.Time,
) *streakController.CheckInResult {
	log := pc.log.Function("applyCheckIn")

	checkIn, err := pc.streaks.RecordCheckIn(ctx, userID, groupID, at)
	if err != nil {
		log.Warn("streak update failed for check-in post",
			"userID", userID,
			"groupID", groupID,
			"error", err,
		)
		return nil
	}

	return checkIn
}

func (pc *PostController) publishPostEvents(
	userID, groupID uuid.UUID,
	post *Post,
	checkIn *streakController.CheckInResult,
) {
	log := pc.log.Function("publishPostEvents")

	eventType := events.POST_CREATED
	data := map[string]any{
		"postId":   post.ID.String(),
		"postType": string(post.PostType),
	}

	if checkIn != nil {
		eventType = events.CHECKIN_CREATED
		data["currentStreak"] = checkIn.Streak.CurrentStreak
		data["outcome"] = string(checkIn.Outcome)
	}

	err := pc.eventBus.Publish(events.CHECKIN_CHANNEL, events.Event{
		Type:    eventType,
		UserID:  &userID,
		GroupID: &groupID,
		Data:    data,
	})
	if err != nil {
		log.Warn("failed to publish post event", "postID", post.ID, "error", err)
	}
}

func (pc *PostController) ListGroupFeed(
	ctx context.Context,
	user *User,
	groupID uuid.UUID,
	limit, offset int,
) ([]Post, error) {
	if _, err := pc.groupRepo.GetMember(ctx, groupID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAMember
		}
		return nil, err
	}

	return pc.postRepo.ListByGroup(ctx, groupID, limit, offset)
}

func (pc *PostController) ListUserPosts(
	ctx context.Context,
	user *User,
	limit, offset int,
) ([]Post, error) {
	return pc.postRepo.ListByUser(ctx, user.ID, limit, offset)
}

// HasCheckedInToday reports whether the user already posted a check-in in
// the group today, for client check-in button state.
func (pc *PostController) HasCheckedInToday(
	ctx context.Context,
	user *User,
	groupID uuid.UUID,
) (bool, error) {
	if _, err := pc.groupRepo.GetMember(ctx, groupID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotAMember
		}
		return false, err
	}

	return pc.postRepo.HasPostToday(ctx, user.ID, groupID, time.Now().UTC())
}

// DeletePost removes the user's own post. Streak state is untouched; a
// check-in already counted stays counted.
func (pc *PostController) DeletePost(
	ctx context.Context,
	user *User,
	postID uuid.UUID,
) error {
	log := pc.log.Function("DeletePost")

	post, err := pc.postRepo.GetByID(ctx, postID)
	if err != nil {
		return log.Err("post not found", err, "postID", postID)
	}

	if post.UserID != user.ID {
		return ErrNotPostOwner
	}

	return pc.postRepo.Delete(ctx, post)
}
