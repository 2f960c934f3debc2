package jobs

import (
	"context"
	"time"

	streakController "gymbro/internal/controllers/streaks"
	"gymbro/internal/services"

	logger "github.com/Bparsons0904/goLogger"
)

// StreakSweepJob zeroes streaks whose owners missed a full calendar day.
// It runs shortly after the UTC day boundary so members always get the whole
// of yesterday to keep a streak alive.
type StreakSweepJob struct {
	streaks  streakController.StreakControllerInterface
	log      logger.Logger
	schedule services.Schedule
}

func NewStreakSweepJob(
	streaks streakController.StreakControllerInterface,
	schedule services.Schedule,
) *StreakSweepJob {
	log := logger.New("streakSweepJob")
	log.Info("Creating new streak sweep job", "schedule", schedule)

	return &StreakSweepJob{
		streaks:  streaks,
		log:      log,
		schedule: schedule,
	}
}

func (j *StreakSweepJob) Name() string {
	return "StreakSweep"
}

func (j *StreakSweepJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	log.Info("Starting streak sweep")

	reset, err := j.streaks.Sweep(ctx, time.Now().UTC())
	if err != nil {
		return log.Err("streak sweep failed", err)
	}

	log.Info("Streak sweep completed successfully", "reset", reset)
	return nil
}

func (j *StreakSweepJob) Schedule() services.Schedule {
	return j.schedule
}
