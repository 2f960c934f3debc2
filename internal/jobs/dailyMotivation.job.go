package jobs

import (
	"context"
	"time"

	motivationController "gymbro/internal/controllers/motivation"
	"gymbro/internal/repositories"
	"gymbro/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// DailyMotivationJob generates one motivational message per active group per
// day. A group counts as active when it saw at least one post in the last
// week; dormant groups are skipped to avoid burning generation quota.
type DailyMotivationJob struct {
	motivation motivationController.MotivationControllerInterface
	postRepo   repositories.PostRepository
	log        logger.Logger
	schedule   services.Schedule
}

func NewDailyMotivationJob(
	motivation motivationController.MotivationControllerInterface,
	postRepo repositories.PostRepository,
	schedule services.Schedule,
) *DailyMotivationJob {
	log := logger.New("dailyMotivationJob")
	log.Info("Creating new daily motivation job", "schedule", schedule)

	return &DailyMotivationJob{
		motivation: motivation,
		postRepo:   postRepo,
		log:        log,
		schedule:   schedule,
	}
}

func (j *DailyMotivationJob) Name() string {
	return "DailyMotivationGeneration"
}

func (j *DailyMotivationJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	log.Info("Starting daily motivation generation")

	now := time.Now().UTC()
	groupIDs, err := j.postRepo.ListActiveGroupIDs(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return log.Err("failed to find active groups", err)
	}

	generated := 0
	for _, groupID := range groupIDs {
		message, err := j.motivation.GenerateDailyForGroup(ctx, groupID, now)
		if err != nil {
			// One group failing should not stop the rest
			log.Er("failed to generate daily message", err, "groupID", groupID)
			continue
		}
		if message != nil {
			generated++
		}
	}

	log.Info("Daily motivation generation completed successfully",
		"activeGroups", len(groupIDs),
		"generated", generated,
	)
	return nil
}

func (j *DailyMotivationJob) Schedule() services.Schedule {
	return j.schedule
}
