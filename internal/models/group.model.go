package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Group struct {
	BaseUUIDModel
	Name        string    `gorm:"type:text;not null"       json:"name"`
	Description *string   `gorm:"type:text"                json:"description"`
	InviteCode  string    `gorm:"type:text;uniqueIndex"    json:"inviteCode"`
	MaxMembers  int       `gorm:"type:int;default:5"       json:"maxMembers"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null"       json:"createdBy"`

	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

// BeforeCreate assigns an invite code so every group is joinable by code
// from the moment it exists.
func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.InviteCode == "" {
		g.InviteCode = uuid.NewString()[:8]
	}
	return nil
}

type GroupMember struct {
	BaseUUIDModel
	GroupID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_members_pair" json:"groupId"`
	Group    Group     `gorm:"foreignKey:GroupID"                                    json:"-"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_members_pair" json:"userId"`
	User     User      `gorm:"foreignKey:UserID"                                     json:"user"`
	IsAdmin  bool      `gorm:"type:bool;default:false"                               json:"isAdmin"`
	JoinedAt time.Time `gorm:"autoCreateTime"                                        json:"joinedAt"`
}

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

type GroupInvitation struct {
	BaseUUIDModel
	GroupID   uuid.UUID        `gorm:"type:uuid;not null;index"        json:"groupId"`
	Group     Group            `gorm:"foreignKey:GroupID"              json:"group"`
	InviterID uuid.UUID        `gorm:"type:uuid;not null"              json:"inviterId"`
	Inviter   User             `gorm:"foreignKey:InviterID"            json:"inviter"`
	InviteeID uuid.UUID        `gorm:"type:uuid;not null;index"        json:"inviteeId"`
	Invitee   User             `gorm:"foreignKey:InviteeID"            json:"-"`
	Status    InvitationStatus `gorm:"type:text;default:pending;index" json:"status"`
}
