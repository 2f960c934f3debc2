package repositories

import (
	"context"
	"gymbro/internal/database"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GROUP_CACHE_EXPIRY = 10 * time.Minute
	GROUP_CACHE_PREFIX = "group:"
)

type GroupRepository interface {
	Create(ctx context.Context, tx *gorm.DB, group *Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*Group, error)
	GetByInviteCode(ctx context.Context, code string) (*Group, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Group, error)
	Update(ctx context.Context, group *Group) error
	Delete(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) error

	GetMember(ctx context.Context, groupID, userID uuid.UUID) (*GroupMember, error)
	CountMembers(ctx context.Context, groupID uuid.UUID) (int64, error)
	AddMember(ctx context.Context, tx *gorm.DB, member *GroupMember) error
	RemoveMember(ctx context.Context, tx *gorm.DB, groupID, userID uuid.UUID) error

	CreateInvitation(ctx context.Context, invitation *GroupInvitation) error
	GetInvitation(ctx context.Context, id uuid.UUID) (*GroupInvitation, error)
	GetPendingInvitation(ctx context.Context, groupID, inviteeID uuid.UUID) (*GroupInvitation, error)
	ListInvitationsForUser(ctx context.Context, inviteeID uuid.UUID) ([]GroupInvitation, error)
	UpdateInvitation(ctx context.Context, tx *gorm.DB, invitation *GroupInvitation) error
}

type groupRepository struct {
	db  database.DB
	log logger.Logger
}

func NewGroupRepository(db database.DB) GroupRepository {
	return &groupRepository{
		db:  db,
		log: logger.New("groupRepository"),
	}
}

func (r *groupRepository) Create(ctx context.Context, tx *gorm.DB, group *Group) error {
	log := r.log.Function("Create")

	if err := tx.WithContext(ctx).Create(group).Error; err != nil {
		return log.Err("failed to create group", err, "name", group.Name)
	}

	return nil
}

func (r *groupRepository) GetByID(ctx context.Context, id uuid.UUID) (*Group, error) {
	log := r.log.Function("GetByID")

	var group Group
	cacheKey := GROUP_CACHE_PREFIX + id.String()
	found, err := database.NewCacheBuilder(r.db.Cache.General, cacheKey).WithContext(ctx).Get(&group)
	if err == nil && found {
		return &group, nil
	}

	if err := r.db.SQLWithContext(ctx).
		Preload("Members.User").
		First(&group, "id = ?", id).Error; err != nil {
		return nil, log.Err("failed to get group by id", err, "id", id)
	}

	if err := database.NewCacheBuilder(r.db.Cache.General, cacheKey).
		WithStruct(group).
		WithTTL(GROUP_CACHE_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		log.Warn("failed to cache group", "groupID", id, "error", err)
	}

	return &group, nil
}

func (r *groupRepository) GetByInviteCode(ctx context.Context, code string) (*Group, error) {
	var group Group
	if err := r.db.SQLWithContext(ctx).
		First(&group, "invite_code = ?", code).Error; err != nil {
		return nil, err
	}

	return &group, nil
}

func (r *groupRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Group, error) {
	log := r.log.Function("ListByUser")

	var groups []Group
	if err := r.db.SQLWithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.created_at DESC").
		Find(&groups).Error; err != nil {
		return nil, log.Err("failed to list groups for user", err, "userID", userID)
	}

	return groups, nil
}

func (r *groupRepository) Update(ctx context.Context, group *Group) error {
	log := r.log.Function("Update")

	if err := r.db.SQLWithContext(ctx).Save(group).Error; err != nil {
		return log.Err("failed to update group", err, "groupID", group.ID)
	}

	r.clearGroupCache(ctx, group.ID)

	return nil
}

func (r *groupRepository) Delete(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) error {
	log := r.log.Function("Delete")

	if err := tx.WithContext(ctx).
		Unscoped().
		Delete(&GroupMember{}, "group_id = ?", groupID).Error; err != nil {
		return log.Err("failed to delete group members", err, "groupID", groupID)
	}

	if err := tx.WithContext(ctx).
		Unscoped().
		Delete(&GroupInvitation{}, "group_id = ?", groupID).Error; err != nil {
		return log.Err("failed to delete group invitations", err, "groupID", groupID)
	}

	if err := tx.WithContext(ctx).
		Unscoped().
		Delete(&Group{}, "id = ?", groupID).Error; err != nil {
		return log.Err("failed to delete group", err, "groupID", groupID)
	}

	r.clearGroupCache(ctx, groupID)

	return nil
}

func (r *groupRepository) GetMember(
	ctx context.Context,
	groupID, userID uuid.UUID,
) (*GroupMember, error) {
	var member GroupMember
	if err := r.db.SQLWithContext(ctx).
		First(&member, "group_id = ? AND user_id = ?", groupID, userID).Error; err != nil {
		return nil, err
	}

	return &member, nil
}

func (r *groupRepository) CountMembers(ctx context.Context, groupID uuid.UUID) (int64, error) {
	log := r.log.Function("CountMembers")

	var count int64
	if err := r.db.SQLWithContext(ctx).
		Model(&GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&count).Error; err != nil {
		return 0, log.Err("failed to count group members", err, "groupID", groupID)
	}

	return count, nil
}

func (r *groupRepository) AddMember(ctx context.Context, tx *gorm.DB, member *GroupMember) error {
	log := r.log.Function("AddMember")

	if err := tx.WithContext(ctx).Create(member).Error; err != nil {
		return log.Err(
			"failed to add group member",
			err,
			"groupID", member.GroupID,
			"userID", member.UserID,
		)
	}

	r.clearGroupCache(ctx, member.GroupID)

	return nil
}

func (r *groupRepository) RemoveMember(
	ctx context.Context,
	tx *gorm.DB,
	groupID, userID uuid.UUID,
) error {
	log := r.log.Function("RemoveMember")

	if err := tx.WithContext(ctx).
		Unscoped().
		Delete(&GroupMember{}, "group_id = ? AND user_id = ?", groupID, userID).Error; err != nil {
		return log.Err("failed to remove group member", err, "groupID", groupID, "userID", userID)
	}

	r.clearGroupCache(ctx, groupID)

	return nil
}

func (r *groupRepository) CreateInvitation(ctx context.Context, invitation *GroupInvitation) error {
	log := r.log.Function("CreateInvitation")

	if err := r.db.SQLWithContext(ctx).Create(invitation).Error; err != nil {
		return log.Err(
			"failed to create invitation",
			err,
			"groupID", invitation.GroupID,
			"inviteeID", invitation.InviteeID,
		)
	}

	return nil
}

func (r *groupRepository) GetInvitation(ctx context.Context, id uuid.UUID) (*GroupInvitation, error) {
	var invitation GroupInvitation
	if err := r.db.SQLWithContext(ctx).
		Preload("Group").
		Preload("Inviter").
		First(&invitation, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &invitation, nil
}

func (r *groupRepository) GetPendingInvitation(
	ctx context.Context,
	groupID, inviteeID uuid.UUID,
) (*GroupInvitation, error) {
	var invitation GroupInvitation
	if err := r.db.SQLWithContext(ctx).
		First(&invitation,
			"group_id = ? AND invitee_id = ? AND status = ?",
			groupID, inviteeID, InvitationPending,
		).Error; err != nil {
		return nil, err
	}

	return &invitation, nil
}

func (r *groupRepository) ListInvitationsForUser(
	ctx context.Context,
	inviteeID uuid.UUID,
) ([]GroupInvitation, error) {
	log := r.log.Function("ListInvitationsForUser")

	var invitations []GroupInvitation
	if err := r.db.SQLWithContext(ctx).
		Preload("Group").
		Preload("Inviter").
		Where("invitee_id = ? AND status = ?", inviteeID, InvitationPending).
		Order("created_at DESC").
		Find(&invitations).Error; err != nil {
		return nil, log.Err("failed to list invitations", err, "inviteeID", inviteeID)
	}

	return invitations, nil
}

func (r *groupRepository) UpdateInvitation(
	ctx context.Context,
	tx *gorm.DB,
	invitation *GroupInvitation,
) error {
	log := r.log.Function("UpdateInvitation")

	if err := tx.WithContext(ctx).Save(invitation).Error; err != nil {
		return log.Err("failed to update invitation", err, "invitationID", invitation.ID)
	}

	return nil
}

func (r *groupRepository) clearGroupCache(ctx context.Context, groupID uuid.UUID) {
	cacheKey := GROUP_CACHE_PREFIX + groupID.String()
	if err := database.NewCacheBuilder(r.db.Cache.General, cacheKey).
		WithContext(ctx).
		Delete(); err != nil {
		r.log.Function("clearGroupCache").
			Warn("failed to clear group cache", "groupID", groupID, "error", err)
	}
}
