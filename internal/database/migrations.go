package database

import (
	"gymbro/internal/models"

	logger "github.com/Bparsons0904/goLogger"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []any{
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.GroupInvitation{},
		&models.Post{},
		&models.Streak{},
		&models.MotivationalMessage{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates additional indexes that GORM doesn't create automatically
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		// Sweep scans by activity and staleness
		"CREATE INDEX IF NOT EXISTS idx_streaks_sweep ON streaks(last_check_in_date) WHERE current_streak > 0",
		// Leaderboard ordering within a group
		"CREATE INDEX IF NOT EXISTS idx_streaks_leaderboard ON streaks(group_id, current_streak DESC, longest_streak DESC)",
		// Group feed pagination
		"CREATE INDEX IF NOT EXISTS idx_posts_group_created_at ON posts(group_id, created_at DESC)",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
			// Continue with other indexes even if one fails
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
