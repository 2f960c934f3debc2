package models

import (
	"time"
)

type User struct {
	BaseUUIDModel
	DisplayName string  `gorm:"type:text"               json:"displayName"`
	FirstName   string  `gorm:"type:text"               json:"firstName"`
	LastName    string  `gorm:"type:text"               json:"lastName"`
	Email       *string `gorm:"type:text;uniqueIndex"   json:"email"`
	AvatarURL   *string `gorm:"type:text"               json:"avatarUrl"`
	IsActive    bool    `gorm:"type:bool;default:true"  json:"isActive"`

	// Identity provider linkage. The provider verifies identity; we only
	// store the verified subject id and claims.
	OIDCUserID   string     `gorm:"column:oidc_user_id;type:text;uniqueIndex" json:"-"`
	OIDCProvider *string    `gorm:"column:oidc_provider;type:text"            json:"oidcProvider,omitempty"`
	LastLoginAt  *time.Time `gorm:"type:timestamp"                            json:"lastLoginAt,omitempty"`

	// Expo push token, absent until the client registers one.
	PushToken *string `gorm:"type:text" json:"-"`
}

// UserProfile is the public view of a user returned to clients.
type UserProfile struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"displayName"`
	Email       *string `json:"email,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
	IsActive    bool    `json:"isActive"`
}

func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:          u.ID.String(),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		AvatarURL:   u.AvatarURL,
		IsActive:    u.IsActive,
	}
}

func (u *User) IsOIDCUser() bool {
	return u.OIDCUserID != ""
}

// UpdateFromOIDC refreshes local user data from verified provider claims.
func (u *User) UpdateFromOIDC(email, name *string, provider string) {
	now := time.Now()
	u.LastLoginAt = &now

	if email != nil && *email != "" {
		u.Email = email
	}

	if name != nil && *name != "" {
		u.DisplayName = *name
	}

	if provider != "" {
		u.OIDCProvider = &provider
	}
}
