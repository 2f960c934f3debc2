package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MessageType string

const (
	MessageTypeDaily  MessageType = "daily"
	MessageTypeCustom MessageType = "custom"
)

type MotivationalMessage struct {
	BaseUUIDModel
	GroupID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"groupId"`
	Group       Group       `gorm:"foreignKey:GroupID"       json:"-"`
	Message     string      `gorm:"type:text;not null"       json:"message"`
	MessageType MessageType `gorm:"type:text;default:daily"  json:"messageType"`
	AudioURL    *string     `gorm:"type:text"                json:"audioUrl,omitempty"`

	// Leaderboard snapshot the message was generated from.
	Context datatypes.JSON `gorm:"type:jsonb" json:"context,omitempty"`
}
