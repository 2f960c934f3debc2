package repositories

import (
	"context"
	"gymbro/internal/database"
	"gymbro/internal/utils"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, tx *gorm.DB, post *Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]Post, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Post, error)
	Delete(ctx context.Context, post *Post) error

	// HasPostToday reports whether the user already posted a check-in in the
	// group on the given calendar day.
	HasPostToday(ctx context.Context, userID, groupID uuid.UUID, day time.Time) (bool, error)

	// ListActiveGroupIDs returns the IDs of groups with at least one post
	// since the given time. Used by scheduled jobs to skip dormant groups.
	ListActiveGroupIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error)
}

type postRepository struct {
	db  database.DB
	log logger.Logger
}

func NewPostRepository(db database.DB) PostRepository {
	return &postRepository{
		db:  db,
		log: logger.New("postRepository"),
	}
}

func (r *postRepository) Create(ctx context.Context, tx *gorm.DB, post *Post) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(post).Error; err != nil {
		return log.Err("failed to create post", err, "userID", post.UserID, "groupID", post.GroupID)
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	var post Post
	if err := r.db.SQLWithContext(ctx).
		Preload("User").
		First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) ListByGroup(
	ctx context.Context,
	groupID uuid.UUID,
	limit, offset int,
) ([]Post, error) {
	log := r.log.Function("ListByGroup")

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var posts []Post
	if err := r.db.SQLWithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, log.Err("failed to list group posts", err, "groupID", groupID)
	}

	return posts, nil
}

func (r *postRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]Post, error) {
	log := r.log.Function("ListByUser")

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var posts []Post
	if err := r.db.SQLWithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, log.Err("failed to list user posts", err, "userID", userID)
	}

	return posts, nil
}

func (r *postRepository) Delete(ctx context.Context, post *Post) error {
	log := r.log.Function("Delete")

	if err := r.db.SQLWithContext(ctx).Delete(post).Error; err != nil {
		return log.Err("failed to delete post", err, "postID", post.ID)
	}

	return nil
}

func (r *postRepository) HasPostToday(
	ctx context.Context,
	userID, groupID uuid.UUID,
	day time.Time,
) (bool, error) {
	log := r.log.Function("HasPostToday")

	dayStart := utils.DateOf(day)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	if err := r.db.SQLWithContext(ctx).
		Model(&Post{}).
		Where(
			"user_id = ? AND group_id = ? AND post_type = ? AND created_at >= ? AND created_at < ?",
			userID, groupID, PostTypeCheckIn, dayStart, dayEnd,
		).
		Count(&count).Error; err != nil {
		return false, log.Err("failed to check for existing post", err, "userID", userID, "groupID", groupID)
	}

	return count > 0, nil
}

func (r *postRepository) ListActiveGroupIDs(
	ctx context.Context,
	since time.Time,
) ([]uuid.UUID, error) {
	log := r.log.Function("ListActiveGroupIDs")

	var groupIDs []uuid.UUID
	if err := r.db.SQLWithContext(ctx).
		Model(&Post{}).
		Distinct("group_id").
		Where("created_at >= ?", since).
		Pluck("group_id", &groupIDs).Error; err != nil {
		return nil, log.Err("failed to list active group ids", err, "since", since)
	}

	return groupIDs, nil
}
