package seed

import (
	"time"

	"gymbro/config"
	. "gymbro/internal/models"
	"gymbro/internal/utils"

	logger "github.com/Bparsons0904/goLogger"

	"gorm.io/gorm"
)

func stringPtr(s string) *string {
	return &s
}

func datePtr(t time.Time) *time.Time {
	d := utils.DateOf(t)
	return &d
}

// Seed loads a small development data set: three users sharing one group,
// with streaks in different states so the leaderboard and sweep are easy to
// exercise locally.
func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	users := []User{
		{
			DisplayName: "Sam Carter",
			Email:       stringPtr("sam@example.com"),
			OIDCUserID:  "seed-sam",
			IsActive:    true,
		},
		{
			DisplayName: "Riley Chen",
			Email:       stringPtr("riley@example.com"),
			OIDCUserID:  "seed-riley",
			IsActive:    true,
		},
		{
			DisplayName: "Jordan Okafor",
			Email:       stringPtr("jordan@example.com"),
			OIDCUserID:  "seed-jordan",
			IsActive:    true,
		},
	}

	for i := range users {
		var existing User
		if err := db.First(&existing, "oidc_user_id = ?", users[i].OIDCUserID).Error; err == nil {
			users[i] = existing
			log.Info("User already exists", "user", users[i].DisplayName)
			continue
		}
		log.Info("Seeding user", "user", users[i].DisplayName)
		if err := db.Create(&users[i]).Error; err != nil {
			return log.Err("failed to create user", err, "user", users[i].DisplayName)
		}
	}

	group := Group{
		Name:        "Morning Crew",
		Description: stringPtr("Daily lifts before work"),
		MaxMembers:  5,
		CreatedBy:   users[0].ID,
	}
	if err := db.Create(&group).Error; err != nil {
		return log.Err("failed to create group", err)
	}

	for i, user := range users {
		member := GroupMember{
			GroupID: group.ID,
			UserID:  user.ID,
			IsAdmin: i == 0,
		}
		if err := db.Create(&member).Error; err != nil {
			return log.Err("failed to create group member", err, "user", user.DisplayName)
		}
	}

	now := time.Now().UTC()
	yesterday := now.AddDate(0, 0, -1)
	threeDaysAgo := now.AddDate(0, 0, -3)

	// One live streak checked in today, one alive on the grace day, and one
	// already lapsed so the next sweep has something to reset.
	streaks := []Streak{
		{
			UserID:          users[0].ID,
			GroupID:         group.ID,
			CurrentStreak:   5,
			LongestStreak:   12,
			LastCheckInDate: datePtr(now),
			StreakStartDate: datePtr(now.AddDate(0, 0, -4)),
		},
		{
			UserID:          users[1].ID,
			GroupID:         group.ID,
			CurrentStreak:   2,
			LongestStreak:   2,
			LastCheckInDate: datePtr(yesterday),
			StreakStartDate: datePtr(now.AddDate(0, 0, -2)),
		},
		{
			UserID:          users[2].ID,
			GroupID:         group.ID,
			CurrentStreak:   3,
			LongestStreak:   8,
			LastCheckInDate: datePtr(threeDaysAgo),
			StreakStartDate: datePtr(now.AddDate(0, 0, -5)),
		},
	}
	for i := range streaks {
		if err := db.Create(&streaks[i]).Error; err != nil {
			return log.Err("failed to create streak", err)
		}
	}

	posts := []Post{
		{
			UserID:   users[0].ID,
			GroupID:  group.ID,
			Content:  stringPtr("Leg day done, 45 minutes"),
			PostType: PostTypeCheckIn,
		},
		{
			UserID:   users[1].ID,
			GroupID:  group.ID,
			Content:  stringPtr("New deadlift PR this week"),
			PostType: PostTypeProgress,
		},
	}
	for i := range posts {
		if err := db.Create(&posts[i]).Error; err != nil {
			return log.Err("failed to create post", err)
		}
	}

	log.Info("Seed data loaded", "users", len(users), "streaks", len(streaks), "posts", len(posts))
	return nil
}
