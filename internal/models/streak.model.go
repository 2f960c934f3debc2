package models

import (
	"time"

	"github.com/google/uuid"
)

// Streak tracks consecutive daily check-ins for one (user, group) pair.
//
// Invariants maintained by the streak controller and sweep job:
//   - LongestStreak >= CurrentStreak at all times.
//   - LastCheckInDate only moves forward; a reset zeroes CurrentStreak but
//     leaves the historical dates and LongestStreak untouched.
//   - At most one check-in per UTC calendar day mutates the row.
type Streak struct {
	BaseUUIDModel
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_streaks_pair" json:"userId"`
	User          User       `gorm:"foreignKey:UserID"                               json:"user"`
	GroupID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_streaks_pair" json:"groupId"`
	Group         Group      `gorm:"foreignKey:GroupID"                              json:"-"`
	CurrentStreak int        `gorm:"type:int;not null;default:0"                     json:"currentStreak"`
	LongestStreak int        `gorm:"type:int;not null;default:0"                     json:"longestStreak"`

	// UTC calendar dates, nil until the first check-in.
	LastCheckInDate *time.Time `gorm:"type:date;index" json:"lastCheckInDate"`
	StreakStartDate *time.Time `gorm:"type:date"       json:"streakStartDate"`
}

// Active reports whether the streak is currently unbroken.
func (s *Streak) Active() bool {
	return s.CurrentStreak > 0
}
