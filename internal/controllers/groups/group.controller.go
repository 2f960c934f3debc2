package groupController

import (
	"context"
	"errors"
	"gymbro/config"
	"gymbro/internal/database"
	"gymbro/internal/repositories"
	"gymbro/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotAMember       = errors.New("not a member of this group")
	ErrAlreadyMember    = errors.New("already a member of this group")
	ErrGroupFull        = errors.New("group is full")
	ErrNotGroupAdmin    = errors.New("only a group admin can do this")
	ErrCreatorLeaving   = errors.New("the group creator must delete the group instead of leaving")
	ErrInvitationClosed = errors.New("invitation has already been answered")
)

type GroupController struct {
	groupRepo  repositories.GroupRepository
	streakRepo repositories.StreakRepository
	userRepo   repositories.UserRepository
	txService  *services.TransactionService
	db         database.DB
	Config     config.Config
	log        logger.Logger
}

type GroupControllerInterface interface {
	CreateGroup(ctx context.Context, creator *User, name string, description *string, maxMembers int) (*Group, error)
	GetGroup(ctx context.Context, user *User, groupID uuid.UUID) (*Group, error)
	ListUserGroups(ctx context.Context, user *User) ([]Group, error)
	JoinByInviteCode(ctx context.Context, user *User, inviteCode string) (*Group, error)
	LeaveGroup(ctx context.Context, user *User, groupID uuid.UUID) error
	DeleteGroup(ctx context.Context, user *User, groupID uuid.UUID) error
	RequireMembership(ctx context.Context, userID, groupID uuid.UUID) (*GroupMember, error)

	InviteUser(ctx context.Context, inviter *User, groupID uuid.UUID, inviteeEmail string) (*GroupInvitation, error)
	ListInvitations(ctx context.Context, user *User) ([]GroupInvitation, error)
	RespondToInvitation(ctx context.Context, user *User, invitationID uuid.UUID, accept bool) (*GroupInvitation, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	config config.Config,
	db database.DB,
) GroupControllerInterface {
	return &GroupController{
		groupRepo:  repos.Group,
		streakRepo: repos.Streak,
		userRepo:   repos.User,
		txService:  services.Transaction,
		db:         db,
		Config:     config,
		log:        logger.New("groupController"),
	}
}

// CreateGroup creates a group with the creator as its first admin member and
// a zeroed streak row, all in one transaction.
func (gc *GroupController) CreateGroup(
	ctx context.Context,
	creator *User,
	name string,
	description *string,
	maxMembers int,
) (*Group, error) {
	log := gc.log.Function("CreateGroup")

	if name == "" {
		return nil, log.ErrMsg("group name is required")
	}

	group := &Group{
		Name:        name,
		Description: description,
		CreatedBy:   creator.ID,
	}
	if maxMembers > 0 {
		group.MaxMembers = maxMembers
	}

	err := gc.txService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := gc.groupRepo.Create(ctx, tx, group); err != nil {
			return err
		}

		member := &GroupMember{
			GroupID: group.ID,
			UserID:  creator.ID,
			IsAdmin: true,
		}
		if err := gc.groupRepo.AddMember(ctx, tx, member); err != nil {
			return err
		}

		return gc.streakRepo.Seed(ctx, tx, creator.ID, group.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Info("group created", "groupID", group.ID, "creatorID", creator.ID)

	return group, nil
}

func (gc *GroupController) GetGroup(
	ctx context.Context,
	user *User,
	groupID uuid.UUID,
) (*Group, error) {
	if _, err := gc.RequireMembership(ctx, user.ID, groupID); err != nil {
		return nil, err
	}

	return gc.groupRepo.GetByID(ctx, groupID)
}

func (gc *GroupController) ListUserGroups(ctx context.Context, user *User) ([]Group, error) {
	return gc.groupRepo.ListByUser(ctx, user.ID)
}

// JoinByInviteCode adds the user to the group behind the invite code,
// enforcing the member cap and seeding a streak row.
func (gc *GroupController) JoinByInviteCode(
	ctx context.Context,
	user *User,
	inviteCode string,
) (*Group, error) {
	log := gc.log.Function("JoinByInviteCode")

	group, err := gc.groupRepo.GetByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, log.Err("invalid invite code", err)
	}

	if err := gc.addMember(ctx, user.ID, group); err != nil {
		return nil, err
	}

	log.Info("user joined group", "groupID", group.ID, "userID", user.ID)

	return group, nil
}

func (gc *GroupController) addMember(ctx context.Context, userID uuid.UUID, group *Group) error {
	if _, err := gc.groupRepo.GetMember(ctx, group.ID, userID); err == nil {
		return ErrAlreadyMember
	}

	count, err := gc.groupRepo.CountMembers(ctx, group.ID)
	if err != nil {
		return err
	}
	if count >= int64(group.MaxMembers) {
		return ErrGroupFull
	}

	return gc.txService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		member := &GroupMember{GroupID: group.ID, UserID: userID}
		if err := gc.groupRepo.AddMember(ctx, tx, member); err != nil {
			return err
		}

		return gc.streakRepo.Seed(ctx, tx, userID, group.ID)
	})
}

// LeaveGroup removes the user's membership and streak. The creator cannot
// leave their own group; they delete it instead.
func (gc *GroupController) LeaveGroup(
	ctx context.Context,
	user *User,
	groupID uuid.UUID,
) error {
	log := gc.log.Function("LeaveGroup")

	if _, err := gc.RequireMembership(ctx, user.ID, groupID); err != nil {
		return err
	}

	group, err := gc.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatedBy == user.ID {
		return ErrCreatorLeaving
	}

	err = gc.txService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := gc.groupRepo.RemoveMember(ctx, tx, groupID, user.ID); err != nil {
			return err
		}

		return gc.streakRepo.DeleteByMember(ctx, tx, user.ID, groupID)
	})
	if err != nil {
		return err
	}

	log.Info("user left group", "groupID", groupID, "userID", user.ID)

	return nil
}

// DeleteGroup removes the group and everything hanging off it. Admin only.
func (gc *GroupController) DeleteGroup(
	ctx context.Context,
	user *User,
	groupID uuid.UUID,
) error {
	log := gc.log.Function("DeleteGroup")

	member, err := gc.RequireMembership(ctx, user.ID, groupID)
	if err != nil {
		return err
	}
	if !member.IsAdmin {
		return ErrNotGroupAdmin
	}

	err = gc.txService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := gc.streakRepo.DeleteByGroup(ctx, tx, groupID); err != nil {
			return err
		}
		return gc.groupRepo.Delete(ctx, tx, groupID)
	})
	if err != nil {
		return err
	}

	log.Info("group deleted", "groupID", groupID, "deletedBy", user.ID)

	return nil
}

// RequireMembership returns the user's membership row or ErrNotAMember.
func (gc *GroupController) RequireMembership(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (*GroupMember, error) {
	member, err := gc.groupRepo.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAMember
		}
		return nil, err
	}

	return member, nil
}

// InviteUser creates a pending invitation for the user behind the email.
func (gc *GroupController) InviteUser(
	ctx context.Context,
	inviter *User,
	groupID uuid.UUID,
	inviteeEmail string,
) (*GroupInvitation, error) {
	log := gc.log.Function("InviteUser")

	if _, err := gc.RequireMembership(ctx, inviter.ID, groupID); err != nil {
		return nil, err
	}

	invitee, err := gc.userRepo.GetByEmail(ctx, inviteeEmail)
	if err != nil {
		return nil, log.Err("invitee not found", err, "email", inviteeEmail)
	}

	if _, err := gc.groupRepo.GetMember(ctx, groupID, invitee.ID); err == nil {
		return nil, ErrAlreadyMember
	}

	// An open invitation for the same pair is reused rather than duplicated
	if existing, err := gc.groupRepo.GetPendingInvitation(ctx, groupID, invitee.ID); err == nil {
		return existing, nil
	}

	invitation := &GroupInvitation{
		GroupID:   groupID,
		InviterID: inviter.ID,
		InviteeID: invitee.ID,
		Status:    InvitationPending,
	}
	if err := gc.groupRepo.CreateInvitation(ctx, invitation); err != nil {
		return nil, err
	}

	log.Info("invitation created",
		"groupID", groupID,
		"inviterID", inviter.ID,
		"inviteeID", invitee.ID,
	)

	return invitation, nil
}

func (gc *GroupController) ListInvitations(
	ctx context.Context,
	user *User,
) ([]GroupInvitation, error) {
	return gc.groupRepo.ListInvitationsForUser(ctx, user.ID)
}

// RespondToInvitation accepts or declines a pending invitation. Accepting
// joins the group through the same path as an invite code.
func (gc *GroupController) RespondToInvitation(
	ctx context.Context,
	user *User,
	invitationID uuid.UUID,
	accept bool,
) (*GroupInvitation, error) {
	log := gc.log.Function("RespondToInvitation")

	invitation, err := gc.groupRepo.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, log.Err("invitation not found", err, "invitationID", invitationID)
	}

	if invitation.InviteeID != user.ID {
		return nil, ErrNotAMember
	}
	if invitation.Status != InvitationPending {
		return nil, ErrInvitationClosed
	}

	if !accept {
		invitation.Status = InvitationDeclined
		if err := gc.groupRepo.UpdateInvitation(ctx, gc.db.SQL, invitation); err != nil {
			return nil, err
		}
		return invitation, nil
	}

	group, err := gc.groupRepo.GetByID(ctx, invitation.GroupID)
	if err != nil {
		return nil, err
	}

	if err := gc.addMember(ctx, user.ID, group); err != nil && !errors.Is(err, ErrAlreadyMember) {
		return nil, err
	}

	invitation.Status = InvitationAccepted
	if err := gc.groupRepo.UpdateInvitation(ctx, gc.db.SQL, invitation); err != nil {
		return nil, err
	}

	log.Info("invitation accepted", "invitationID", invitationID, "userID", user.ID)

	return invitation, nil
}
