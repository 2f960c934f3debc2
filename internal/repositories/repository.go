package repositories

import (
	"gymbro/internal/database"
)

type Repository struct {
	User       UserRepository
	Group      GroupRepository
	Post       PostRepository
	Streak     StreakRepository
	Motivation MotivationRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:       NewUserRepository(db),
		Group:      NewGroupRepository(db),
		Post:       NewPostRepository(db),
		Streak:     NewStreakRepository(db),
		Motivation: NewMotivationRepository(db),
	}
}
