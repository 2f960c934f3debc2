package streakController

import (
	"context"
	"errors"
	"gymbro/config"
	"gymbro/internal/database"
	"gymbro/internal/events"
	"gymbro/internal/repositories"
	"gymbro/internal/services"
	"gymbro/internal/utils"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrOutOfOrderCheckIn is returned when a check-in carries a timestamp whose
// calendar day is earlier than the streak's last recorded check-in day. The
// stored streak is left untouched.
var ErrOutOfOrderCheckIn = errors.New("check-in is earlier than the last recorded check-in")

type CheckInOutcome string

const (
	// OutcomeStarted means this was the first check-in of a new streak run,
	// either the very first for the pair or the first after a break.
	OutcomeStarted CheckInOutcome = "started"
	// OutcomeExtended means the check-in landed on the day after the previous
	// one and the streak grew by one.
	OutcomeExtended CheckInOutcome = "extended"
	// OutcomeUnchanged means the pair already checked in on this calendar day.
	OutcomeUnchanged CheckInOutcome = "unchanged"
)

type CheckInResult struct {
	Streak  *Streak        `json:"streak"`
	Outcome CheckInOutcome `json:"outcome"`
}

// GroupSummary aggregates a group's streak standings for display alongside
// the leaderboard.
type GroupSummary struct {
	GroupID          uuid.UUID       `json:"groupId"`
	MemberCount      int             `json:"memberCount"`
	ActiveCount      int             `json:"activeCount"`
	AverageStreak    decimal.Decimal `json:"averageStreak"`
	MaxCurrentStreak int             `json:"maxCurrentStreak"`
	MaxLongestStreak int             `json:"maxLongestStreak"`
}

type StreakController struct {
	streakRepo repositories.StreakRepository
	txService  *services.TransactionService
	eventBus   *events.EventBus
	db         database.DB
	Config     config.Config
	log        logger.Logger
}

type StreakControllerInterface interface {
	RecordCheckIn(
		ctx context.Context,
		userID, groupID uuid.UUID,
		checkInTime time.Time,
	) (*CheckInResult, error)
	RecordCheckInTx(
		ctx context.Context,
		tx *gorm.DB,
		userID, groupID uuid.UUID,
		checkInTime time.Time,
	) (*CheckInResult, error)
	GetStreak(ctx context.Context, userID, groupID uuid.UUID) (*Streak, error)
	ListGroupStreaks(ctx context.Context, groupID uuid.UUID) ([]Streak, error)
	GetGroupSummary(ctx context.Context, groupID uuid.UUID) (*GroupSummary, error)
	Sweep(ctx context.Context, referenceDate time.Time) (int64, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) StreakControllerInterface {
	return &StreakController{
		streakRepo: repos.Streak,
		txService:  services.Transaction,
		eventBus:   eventBus,
		db:         db,
		Config:     config,
		log:        logger.New("streakController"),
	}
}

// RecordCheckIn applies one check-in to the (user, group) streak in its own
// transaction and publishes the resulting streak event.
func (sc *StreakController) RecordCheckIn(
	ctx context.Context,
	userID, groupID uuid.UUID,
	checkInTime time.Time,
) (*CheckInResult, error) {
	var result *CheckInResult
	err := sc.txService.Execute(ctx, func(ctx context.Context, tx *gorm.DB) error {
		var err error
		result, err = sc.RecordCheckInTx(ctx, tx, userID, groupID, checkInTime)
		return err
	})
	if err != nil {
		return nil, err
	}

	sc.publishCheckInEvents(userID, groupID, result)

	return result, nil
}

// RecordCheckInTx applies one check-in inside the caller's transaction. The
// streak row is locked for the duration, so concurrent check-ins for the same
// pair serialize and the second one observes the first's write.
func (sc *StreakController) RecordCheckInTx(
	ctx context.Context,
	tx *gorm.DB,
	userID, groupID uuid.UUID,
	checkInTime time.Time,
) (*CheckInResult, error) {
	log := sc.log.Function("RecordCheckInTx")

	day := utils.DateOf(checkInTime)

	streak, err := sc.streakRepo.GetForUpdate(ctx, tx, userID, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// First check-in before any seeded row exists. Seed is a no-op on
		// conflict, so a concurrent first check-in can only produce one row
		// and the second locker sees it populated.
		if err := sc.streakRepo.Seed(ctx, tx, userID, groupID); err != nil {
			return nil, err
		}
		streak, err = sc.streakRepo.GetForUpdate(ctx, tx, userID, groupID)
		if err != nil {
			return nil, log.Err("failed to load streak after seeding", err, "userID", userID, "groupID", groupID)
		}
	} else if err != nil {
		return nil, log.Err("failed to load streak", err, "userID", userID, "groupID", groupID)
	}

	outcome, err := advance(streak, day)
	if err != nil {
		log.Warn(
			"rejecting out-of-order check-in",
			"userID", userID,
			"groupID", groupID,
			"lastCheckInDate", *streak.LastCheckInDate,
			"checkInDay", day,
		)
		return nil, err
	}

	if outcome == OutcomeUnchanged {
		return &CheckInResult{Streak: streak, Outcome: outcome}, nil
	}

	if err := sc.streakRepo.Save(ctx, tx, streak); err != nil {
		return nil, err
	}

	return &CheckInResult{Streak: streak, Outcome: outcome}, nil
}

// advance applies one check-in on the given calendar day to the streak in
// memory and reports what happened. A same-day repeat leaves the streak
// untouched; a day earlier than the last recorded check-in is rejected.
func advance(streak *Streak, day time.Time) (CheckInOutcome, error) {
	outcome := OutcomeStarted

	if streak.LastCheckInDate != nil {
		gap := utils.DaysBetween(*streak.LastCheckInDate, day)
		switch {
		case gap == 0:
			return OutcomeUnchanged, nil
		case gap < 0:
			return OutcomeUnchanged, ErrOutOfOrderCheckIn
		case gap == 1:
			streak.CurrentStreak++
			outcome = OutcomeExtended
		default:
			// Missed at least one full day; the run restarts at one.
			streak.CurrentStreak = 1
			streak.StreakStartDate = &day
		}
	} else {
		streak.CurrentStreak = 1
		streak.StreakStartDate = &day
	}

	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}
	streak.LastCheckInDate = &day

	return outcome, nil
}

// publishCheckInEvents emits the streak event matching the check-in outcome.
// Same-day repeats publish nothing.
func (sc *StreakController) publishCheckInEvents(
	userID, groupID uuid.UUID,
	result *CheckInResult,
) {
	log := sc.log.Function("publishCheckInEvents")

	if result == nil || result.Outcome == OutcomeUnchanged {
		return
	}

	eventType := events.STREAK_EXTENDED
	if result.Outcome == OutcomeStarted {
		eventType = events.STREAK_RESET
	}

	err := sc.eventBus.Publish(events.STREAK_CHANNEL, events.Event{
		Type:    eventType,
		UserID:  &userID,
		GroupID: &groupID,
		Data: map[string]any{
			"currentStreak": result.Streak.CurrentStreak,
			"longestStreak": result.Streak.LongestStreak,
		},
	})
	if err != nil {
		log.Warn("failed to publish streak event", "userID", userID, "groupID", groupID, "error", err)
	}
}

func (sc *StreakController) GetStreak(
	ctx context.Context,
	userID, groupID uuid.UUID,
) (*Streak, error) {
	return sc.streakRepo.Get(ctx, userID, groupID)
}

func (sc *StreakController) ListGroupStreaks(
	ctx context.Context,
	groupID uuid.UUID,
) ([]Streak, error) {
	return sc.streakRepo.ListByGroup(ctx, groupID)
}

func (sc *StreakController) GetGroupSummary(
	ctx context.Context,
	groupID uuid.UUID,
) (*GroupSummary, error) {
	log := sc.log.Function("GetGroupSummary")

	streaks, err := sc.streakRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, log.Err("failed to load group streaks", err, "groupID", groupID)
	}

	summary := &GroupSummary{
		GroupID:       groupID,
		MemberCount:   len(streaks),
		AverageStreak: decimal.Zero,
	}

	if len(streaks) == 0 {
		return summary, nil
	}

	total := decimal.Zero
	for _, streak := range streaks {
		total = total.Add(decimal.NewFromInt(int64(streak.CurrentStreak)))
		if streak.Active() {
			summary.ActiveCount++
		}
		if streak.CurrentStreak > summary.MaxCurrentStreak {
			summary.MaxCurrentStreak = streak.CurrentStreak
		}
		if streak.LongestStreak > summary.MaxLongestStreak {
			summary.MaxLongestStreak = streak.LongestStreak
		}
	}

	summary.AverageStreak = total.
		Div(decimal.NewFromInt(int64(len(streaks)))).
		Round(2)

	return summary, nil
}

// Sweep zeroes every streak whose last check-in is more than one full day
// before referenceDate. A streak last extended yesterday is still alive and
// can be continued today, so the cutoff is the day before the reference day.
// Running the sweep twice for the same reference date is a no-op the second
// time.
func (sc *StreakController) Sweep(ctx context.Context, referenceDate time.Time) (int64, error) {
	log := sc.log.Function("Sweep")

	cutoff := utils.DateOf(referenceDate).AddDate(0, 0, -1)

	reset, err := sc.streakRepo.ResetStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if reset > 0 {
		log.Info("streak sweep reset stale streaks", "reset", reset, "cutoff", cutoff)
	}

	return reset, nil
}
