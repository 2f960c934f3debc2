package repositories

import (
	"context"
	"gymbro/internal/database"
	"gymbro/internal/utils"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"

	"github.com/google/uuid"
)

const (
	USER_CACHE_EXPIRY         = 7 * 24 * time.Hour // 7 days
	USER_CACHE_PREFIX         = "user:"
	OIDC_MAPPING_CACHE_PREFIX = "oidc:"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByOIDCUserID(ctx context.Context, oidcUserID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	FindOrCreateOIDCUser(ctx context.Context, user *User) (*User, error)
	UpdatePushToken(ctx context.Context, user *User, token *string) error

	// ClearCache drops the cached user and OIDC mapping, forcing the next
	// authenticated request to hit the database.
	ClearCache(ctx context.Context, user *User)

	// ListUsersNeedingReminder returns active group members with a push token
	// who have not posted a check-in yet on the given calendar day.
	ListUsersNeedingReminder(ctx context.Context, day time.Time) ([]User, error)
}

type userRepository struct {
	db  database.DB
	log logger.Logger
}

func NewUserRepository(db database.DB) UserRepository {
	return &userRepository{
		db:  db,
		log: logger.New("userRepository"),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	log := r.log.Function("GetByID")

	var user User
	cacheKey := USER_CACHE_PREFIX + id.String()
	found, err := database.NewCacheBuilder(r.db.Cache.User, cacheKey).WithContext(ctx).Get(&user)
	if err == nil && found {
		return &user, nil
	}

	if err := r.db.SQLWithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get user by id", err, "id", id)
	}

	if err := r.addUserToCache(ctx, &user); err != nil {
		log.Warn("failed to add user to cache", "userID", id, "error", err)
	}

	return &user, nil
}

func (r *userRepository) GetByOIDCUserID(ctx context.Context, oidcUserID string) (*User, error) {
	log := r.log.Function("GetByOIDCUserID")

	// Try the OIDC subject -> UUID mapping cache first
	var userID string
	oidcCacheKey := OIDC_MAPPING_CACHE_PREFIX + oidcUserID
	found, err := database.NewCacheBuilder(r.db.Cache.User, oidcCacheKey).
		WithContext(ctx).
		Get(&userID)
	if err == nil && found {
		var cachedUser User
		cacheKey := USER_CACHE_PREFIX + userID
		found, err := database.NewCacheBuilder(r.db.Cache.User, cacheKey).
			WithContext(ctx).
			Get(&cachedUser)
		if err == nil && found {
			return &cachedUser, nil
		}
	}

	var user User
	if err := r.db.SQLWithContext(ctx).First(&user, "oidc_user_id = ?", oidcUserID).Error; err != nil {
		return nil, log.Err("failed to get user by OIDC user ID", err, "oidcUserID", oidcUserID)
	}

	if err := r.addUserToCache(ctx, &user); err != nil {
		log.Warn("failed to add user to cache", "userID", user.ID, "error", err)
	}

	if err := database.NewCacheBuilder(r.db.Cache.User, oidcCacheKey).
		WithStruct(user.ID.String()).
		WithTTL(USER_CACHE_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		log.Warn("failed to cache OIDC mapping", "oidcUserID", oidcUserID, "error", err)
	}

	return &user, nil
}

// GetByEmail is an uncached lookup used for invitations, where staleness
// would mean inviting the wrong account.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.db.SQLWithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *User) error {
	log := r.log.Function("Update")

	if err := r.db.SQLWithContext(ctx).Save(user).Error; err != nil {
		return log.Err("failed to update user", err, "userID", user.ID)
	}

	r.clearUserCache(ctx, user)

	return nil
}

func (r *userRepository) FindOrCreateOIDCUser(ctx context.Context, user *User) (*User, error) {
	log := r.log.Function("FindOrCreateOIDCUser")

	existingUser, err := r.GetByOIDCUserID(ctx, user.OIDCUserID)
	if err == nil {
		provider := "oidc"
		if user.OIDCProvider != nil {
			provider = *user.OIDCProvider
		}
		existingUser.UpdateFromOIDC(user.Email, &user.DisplayName, provider)

		if err := r.Update(ctx, existingUser); err != nil {
			log.Warn("failed to update existing OIDC user", "error", err, "userID", existingUser.ID)
		}
		return existingUser, nil
	}

	// New subject, create a local user for it
	if !user.IsActive {
		user.IsActive = true
	}
	if user.LastLoginAt == nil {
		now := time.Now()
		user.LastLoginAt = &now
	}

	if err := r.db.SQLWithContext(ctx).Create(user).Error; err != nil {
		return nil, log.Err("failed to create OIDC user", err, "oidcUserID", user.OIDCUserID)
	}

	if err := r.addUserToCache(ctx, user); err != nil {
		log.Warn("failed to add user to cache", "userID", user.ID, "error", err)
	}

	oidcCacheKey := OIDC_MAPPING_CACHE_PREFIX + user.OIDCUserID
	if err := database.NewCacheBuilder(r.db.Cache.User, oidcCacheKey).
		WithStruct(user.ID.String()).
		WithTTL(USER_CACHE_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		log.Warn("failed to cache OIDC mapping", "oidcUserID", user.OIDCUserID, "error", err)
	}

	return user, nil
}

func (r *userRepository) UpdatePushToken(ctx context.Context, user *User, token *string) error {
	log := r.log.Function("UpdatePushToken")

	user.PushToken = token
	if err := r.db.SQLWithContext(ctx).
		Model(user).
		Update("push_token", token).Error; err != nil {
		return log.Err("failed to update push token", err, "userID", user.ID)
	}

	r.clearUserCache(ctx, user)

	return nil
}

func (r *userRepository) ListUsersNeedingReminder(
	ctx context.Context,
	day time.Time,
) ([]User, error) {
	log := r.log.Function("ListUsersNeedingReminder")

	dayStart := utils.DateOf(day)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var users []User
	if err := r.db.SQLWithContext(ctx).
		Distinct("users.*").
		Joins("JOIN group_members ON group_members.user_id = users.id").
		Where("users.is_active AND users.push_token IS NOT NULL").
		Where(
			"NOT EXISTS (SELECT 1 FROM posts WHERE posts.user_id = users.id AND posts.post_type = ? AND posts.created_at >= ? AND posts.created_at < ?)",
			PostTypeCheckIn, dayStart, dayEnd,
		).
		Find(&users).Error; err != nil {
		return nil, log.Err("failed to list users needing reminder", err, "day", dayStart)
	}

	return users, nil
}

func (r *userRepository) ClearCache(ctx context.Context, user *User) {
	r.clearUserCache(ctx, user)
}

func (r *userRepository) addUserToCache(ctx context.Context, user *User) error {
	cacheKey := USER_CACHE_PREFIX + user.ID.String()
	return database.NewCacheBuilder(r.db.Cache.User, cacheKey).
		WithStruct(user).
		WithTTL(USER_CACHE_EXPIRY).
		WithContext(ctx).
		Set()
}

func (r *userRepository) clearUserCache(ctx context.Context, user *User) {
	log := r.log.Function("clearUserCache")

	userCacheKey := USER_CACHE_PREFIX + user.ID.String()
	if err := database.NewCacheBuilder(r.db.Cache.User, userCacheKey).WithContext(ctx).Delete(); err != nil {
		log.Warn("failed to clear user cache", "userID", user.ID, "error", err)
	}

	if user.OIDCUserID != "" {
		oidcCacheKey := OIDC_MAPPING_CACHE_PREFIX + user.OIDCUserID
		if err := database.NewCacheBuilder(r.db.Cache.User, oidcCacheKey).WithContext(ctx).Delete(); err != nil {
			log.Warn("failed to clear OIDC mapping cache", "oidcUserID", user.OIDCUserID, "error", err)
		}
	}
}
