package repositories

import (
	"context"
	"gymbro/internal/database"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	LEADERBOARD_CACHE_EXPIRY = 5 * time.Minute
	LEADERBOARD_CACHE_PREFIX = "leaderboard:"
)

type StreakRepository interface {
	// Get is a point lookup; absence surfaces as gorm.ErrRecordNotFound,
	// never as a fabricated zero streak.
	Get(ctx context.Context, userID, groupID uuid.UUID) (*Streak, error)

	// GetForUpdate takes a row lock on the (user, group) streak inside tx so
	// the caller's read-modify-write is atomic against concurrent check-ins.
	GetForUpdate(ctx context.Context, tx *gorm.DB, userID, groupID uuid.UUID) (*Streak, error)

	Create(ctx context.Context, tx *gorm.DB, streak *Streak) error
	Save(ctx context.Context, tx *gorm.DB, streak *Streak) error

	// Seed inserts a zeroed streak row for a new group member; a row that
	// already exists is left alone.
	Seed(ctx context.Context, tx *gorm.DB, userID, groupID uuid.UUID) error

	DeleteByMember(ctx context.Context, tx *gorm.DB, userID, groupID uuid.UUID) error
	DeleteByGroup(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) error

	// ListByGroup returns the group's streaks ordered for leaderboard
	// display: current streak descending, longest streak breaking ties.
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]Streak, error)

	// ResetStale zeroes every active streak whose last check-in is strictly
	// before cutoff, returning the number of rows reset.
	ResetStale(ctx context.Context, cutoff time.Time) (int64, error)

	ClearLeaderboardCache(ctx context.Context, groupID uuid.UUID)
}

type streakRepository struct {
	db  database.DB
	log logger.Logger
}

func NewStreakRepository(db database.DB) StreakRepository {
	return &streakRepository{
		db:  db,
		log: logger.New("streakRepository"),
	}
}

func (r *streakRepository) Get(ctx context.Context, userID, groupID uuid.UUID) (*Streak, error) {
	var streak Streak
	if err := r.db.SQLWithContext(ctx).
		First(&streak, "user_id = ? AND group_id = ?", userID, groupID).Error; err != nil {
		return nil, err
	}

	return &streak, nil
}

func (r *streakRepository) GetForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	userID, groupID uuid.UUID,
) (*Streak, error) {
	var streak Streak
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&streak, "user_id = ? AND group_id = ?", userID, groupID).Error; err != nil {
		return nil, err
	}

	return &streak, nil
}

func (r *streakRepository) Create(ctx context.Context, tx *gorm.DB, streak *Streak) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(streak).Error; err != nil {
		return log.Err("failed to create streak", err, "userID", streak.UserID, "groupID", streak.GroupID)
	}

	r.ClearLeaderboardCache(ctx, streak.GroupID)
	return nil
}

func (r *streakRepository) Save(ctx context.Context, tx *gorm.DB, streak *Streak) error {
	log := r.log.Function("Save")

	if err := tx.WithContext(ctx).Save(streak).Error; err != nil {
		return log.Err("failed to save streak", err, "userID", streak.UserID, "groupID", streak.GroupID)
	}

	r.ClearLeaderboardCache(ctx, streak.GroupID)
	return nil
}

func (r *streakRepository) Seed(
	ctx context.Context,
	tx *gorm.DB,
	userID, groupID uuid.UUID,
) error {
	log := r.log.Function("Seed")

	streak := Streak{UserID: userID, GroupID: groupID}
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "group_id"}},
			DoNothing: true,
		}).
		Create(&streak).Error; err != nil {
		return log.Err("failed to seed streak", err, "userID", userID, "groupID", groupID)
	}

	r.ClearLeaderboardCache(ctx, groupID)
	return nil
}

func (r *streakRepository) DeleteByMember(
	ctx context.Context,
	tx *gorm.DB,
	userID, groupID uuid.UUID,
) error {
	log := r.log.Function("DeleteByMember")

	if err := tx.WithContext(ctx).
		Unscoped().
		Delete(&Streak{}, "user_id = ? AND group_id = ?", userID, groupID).Error; err != nil {
		return log.Err("failed to delete streak", err, "userID", userID, "groupID", groupID)
	}

	r.ClearLeaderboardCache(ctx, groupID)
	return nil
}

func (r *streakRepository) DeleteByGroup(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) error {
	log := r.log.Function("DeleteByGroup")

	if err := tx.WithContext(ctx).
		Unscoped().
		Delete(&Streak{}, "group_id = ?", groupID).Error; err != nil {
		return log.Err("failed to delete group streaks", err, "groupID", groupID)
	}

	r.ClearLeaderboardCache(ctx, groupID)
	return nil
}

func (r *streakRepository) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]Streak, error) {
	log := r.log.Function("ListByGroup")

	var streaks []Streak
	cacheKey := LEADERBOARD_CACHE_PREFIX + groupID.String()
	found, err := database.NewCacheBuilder(r.db.Cache.Leaderboard, cacheKey).
		WithContext(ctx).
		Get(&streaks)
	if err == nil && found {
		return streaks, nil
	}

	if err := r.db.SQLWithContext(ctx).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("current_streak DESC, longest_streak DESC").
		Find(&streaks).Error; err != nil {
		return nil, log.Err("failed to list group streaks", err, "groupID", groupID)
	}

	if err := database.NewCacheBuilder(r.db.Cache.Leaderboard, cacheKey).
		WithStruct(streaks).
		WithTTL(LEADERBOARD_CACHE_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		log.Warn("failed to cache leaderboard", "groupID", groupID, "error", err)
	}

	return streaks, nil
}

func (r *streakRepository) ResetStale(ctx context.Context, cutoff time.Time) (int64, error) {
	log := r.log.Function("ResetStale")

	result := r.db.SQLWithContext(ctx).
		Model(&Streak{}).
		Where("current_streak > 0 AND last_check_in_date < ?", cutoff).
		Update("current_streak", 0)
	if result.Error != nil {
		return 0, log.Err("failed to reset stale streaks", result.Error, "cutoff", cutoff)
	}

	// A sweep can touch any number of groups, so drop the whole leaderboard
	// cache index rather than chasing individual keys.
	if result.RowsAffected > 0 {
		if err := r.db.Cache.Leaderboard.Do(ctx,
			r.db.Cache.Leaderboard.B().Flushdb().Build()).Error(); err != nil {
			log.Warn("failed to flush leaderboard cache after sweep", "error", err)
		}
	}

	return result.RowsAffected, nil
}

func (r *streakRepository) ClearLeaderboardCache(ctx context.Context, groupID uuid.UUID) {
	cacheKey := LEADERBOARD_CACHE_PREFIX + groupID.String()
	if err := database.NewCacheBuilder(r.db.Cache.Leaderboard, cacheKey).
		WithContext(ctx).
		Delete(); err != nil {
		r.log.Function("ClearLeaderboardCache").
			Warn("failed to clear leaderboard cache", "groupID", groupID, "error", err)
	}
}
