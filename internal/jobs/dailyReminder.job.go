package jobs

import (
	"context"
	"time"

	"gymbro/internal/repositories"
	"gymbro/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// DailyReminderJob nudges members who have not checked in yet today. It runs
// in the late UTC afternoon so there is still time to work out.
type DailyReminderJob struct {
	userRepo    repositories.UserRepository
	pushService *services.PushService
	log         logger.Logger
	schedule    services.Schedule
}

func NewDailyReminderJob(
	userRepo repositories.UserRepository,
	pushService *services.PushService,
	schedule services.Schedule,
) *DailyReminderJob {
	log := logger.New("dailyReminderJob")
	log.Info("Creating new daily reminder job", "schedule", schedule)

	return &DailyReminderJob{
		userRepo:    userRepo,
		pushService: pushService,
		log:         log,
		schedule:    schedule,
	}
}

func (j *DailyReminderJob) Name() string {
	return "DailyCheckInReminder"
}

func (j *DailyReminderJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	log.Info("Starting daily reminder run")

	users, err := j.userRepo.ListUsersNeedingReminder(ctx, time.Now().UTC())
	if err != nil {
		return log.Err("failed to find users needing a reminder", err)
	}

	if len(users) == 0 {
		log.Info("No reminders needed today")
		return nil
	}

	messages := make([]services.PushMessage, 0, len(users))
	for _, user := range users {
		if user.PushToken == nil {
			continue
		}
		messages = append(messages, services.PushMessage{
			To:    *user.PushToken,
			Title: "Don't break your streak!",
			Body:  "You haven't checked in today. Your gym bros are counting on you.",
			Sound: "default",
			Data:  map[string]any{"type": "daily_reminder"},
		})
	}

	sent, err := j.pushService.Send(ctx, messages)
	if err != nil {
		return log.Err("failed to send reminder notifications", err, "sent", sent)
	}

	log.Info("Daily reminder run completed successfully", "candidates", len(users), "sent", sent)
	return nil
}

func (j *DailyReminderJob) Schedule() services.Schedule {
	return j.schedule
}
