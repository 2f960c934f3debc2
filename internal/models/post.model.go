package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PostType string

const (
	PostTypeCheckIn    PostType = "checkin"
	PostTypeProgress   PostType = "progress"
	PostTypeMotivation PostType = "motivation"
)

type Post struct {
	BaseUUIDModel
	UserID   uuid.UUID `gorm:"type:uuid;not null;index"      json:"userId"`
	User     User      `gorm:"foreignKey:UserID"             json:"user"`
	GroupID  uuid.UUID `gorm:"type:uuid;not null;index"      json:"groupId"`
	Group    Group     `gorm:"foreignKey:GroupID"            json:"-"`
	Content  *string   `gorm:"type:text"                     json:"content"`
	ImageURL *string   `gorm:"type:text"                     json:"imageUrl"`
	PostType PostType  `gorm:"type:text;default:checkin"     json:"postType"`

	// Optional workout details (duration, exercises, calories) supplied by
	// the client as free-form JSON.
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
}
