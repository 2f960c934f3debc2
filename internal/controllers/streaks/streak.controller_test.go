package streakController

import (
	"context"
	"testing"
	"time"

	"gymbro/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func day(year int, month time.Month, dayOfMonth int) time.Time {
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func dayPtr(t time.Time) *time.Time {
	return &t
}

func TestAdvance_FirstCheckIn(t *testing.T) {
	streak := &Streak{}

	outcome, err := advance(streak, day(2024, 3, 10))

	require.NoError(t, err)
	assert.Equal(t, OutcomeStarted, outcome)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 1, streak.LongestStreak)
	assert.Equal(t, day(2024, 3, 10), *streak.LastCheckInDate)
	assert.Equal(t, day(2024, 3, 10), *streak.StreakStartDate)
}

func TestAdvance_SameDayIsIdempotent(t *testing.T) {
	streak := &Streak{
		CurrentStreak:   4,
		LongestStreak:   9,
		LastCheckInDate: dayPtr(day(2024, 3, 10)),
		StreakStartDate: dayPtr(day(2024, 3, 7)),
	}

	// Later the same day, even with a wall-clock timestamp
	outcome, err := advance(streak, time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Equal(t, 4, streak.CurrentStreak)
	assert.Equal(t, 9, streak.LongestStreak)
	assert.Equal(t, day(2024, 3, 7), *streak.StreakStartDate)
}

func TestAdvance_ConsecutiveDayExtends(t *testing.T) {
	streak := &Streak{
		CurrentStreak:   4,
		LongestStreak:   4,
		LastCheckInDate: dayPtr(day(2024, 3, 10)),
		StreakStartDate: dayPtr(day(2024, 3, 7)),
	}

	outcome, err := advance(streak, day(2024, 3, 11))

	require.NoError(t, err)
	assert.Equal(t, OutcomeExtended, outcome)
	assert.Equal(t, 5, streak.CurrentStreak)
	assert.Equal(t, 5, streak.LongestStreak)
	assert.Equal(t, day(2024, 3, 11), *streak.LastCheckInDate)
	// Start date is the beginning of the run, not the latest check-in
	assert.Equal(t, day(2024, 3, 7), *streak.StreakStartDate)
}

func TestAdvance_GapResetsToOne(t *testing.T) {
	tests := []struct {
		name string
		next time.Time
	}{
		{name: "two day gap", next: day(2024, 3, 12)},
		{name: "week long gap", next: day(2024, 3, 17)},
		{name: "month long gap", next: day(2024, 4, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			streak := &Streak{
				CurrentStreak:   6,
				LongestStreak:   6,
				LastCheckInDate: dayPtr(day(2024, 3, 10)),
				StreakStartDate: dayPtr(day(2024, 3, 5)),
			}

			outcome, err := advance(streak, tt.next)

			require.NoError(t, err)
			assert.Equal(t, OutcomeStarted, outcome)
			assert.Equal(t, 1, streak.CurrentStreak)
			assert.Equal(t, 6, streak.LongestStreak, "longest streak survives a break")
			assert.Equal(t, utils.DateOf(tt.next), *streak.LastCheckInDate)
			assert.Equal(t, utils.DateOf(tt.next), *streak.StreakStartDate)
		})
	}
}

func TestAdvance_OutOfOrderRejected(t *testing.T) {
	streak := &Streak{
		CurrentStreak:   3,
		LongestStreak:   5,
		LastCheckInDate: dayPtr(day(2024, 3, 10)),
		StreakStartDate: dayPtr(day(2024, 3, 8)),
	}

	outcome, err := advance(streak, day(2024, 3, 9))

	assert.ErrorIs(t, err, ErrOutOfOrderCheckIn)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Equal(t, 3, streak.CurrentStreak, "rejected check-in must not mutate the streak")
	assert.Equal(t, 5, streak.LongestStreak)
	assert.Equal(t, day(2024, 3, 10), *streak.LastCheckInDate)
}

func TestAdvance_LongestStreakIsMonotonic(t *testing.T) {
	streak := &Streak{}

	days := []time.Time{
		day(2024, 1, 1),
		day(2024, 1, 2),
		day(2024, 1, 3), // run of 3
		day(2024, 1, 10),
		day(2024, 1, 11), // run of 2 after a break
	}

	longestSeen := 0
	for _, d := range days {
		_, err := advance(streak, d)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, streak.LongestStreak, streak.CurrentStreak)
		assert.GreaterOrEqual(t, streak.LongestStreak, longestSeen, "longest streak never decreases")
		longestSeen = streak.LongestStreak
	}

	assert.Equal(t, 2, streak.CurrentStreak)
	assert.Equal(t, 3, streak.LongestStreak)
}

func TestAdvance_FiveDayScenario(t *testing.T) {
	// Check in three days running, miss one, come back, then repeat a day.
	streak := &Streak{}

	type step struct {
		day             time.Time
		wantOutcome     CheckInOutcome
		wantCurrent     int
		wantLongest     int
		wantStreakStart time.Time
	}

	steps := []step{
		{day(2024, 6, 1), OutcomeStarted, 1, 1, day(2024, 6, 1)},
		{day(2024, 6, 2), OutcomeExtended, 2, 2, day(2024, 6, 1)},
		{day(2024, 6, 3), OutcomeExtended, 3, 3, day(2024, 6, 1)},
		// June 4th missed entirely
		{day(2024, 6, 5), OutcomeStarted, 1, 3, day(2024, 6, 5)},
		{day(2024, 6, 5), OutcomeUnchanged, 1, 3, day(2024, 6, 5)},
		{day(2024, 6, 6), OutcomeExtended, 2, 3, day(2024, 6, 5)},
	}

	for i, s := range steps {
		outcome, err := advance(streak, s.day)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, s.wantOutcome, outcome, "step %d outcome", i)
		assert.Equal(t, s.wantCurrent, streak.CurrentStreak, "step %d current", i)
		assert.Equal(t, s.wantLongest, streak.LongestStreak, "step %d longest", i)
		assert.Equal(t, s.wantStreakStart, *streak.StreakStartDate, "step %d start", i)
	}
}

func TestAdvance_TimezoneRollover(t *testing.T) {
	// A check-in at 23:30 UTC followed by one at 00:30 UTC the next day is
	// two distinct calendar days and extends the streak.
	streak := &Streak{}

	_, err := advance(streak, time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	outcome, err := advance(streak, time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, OutcomeExtended, outcome)
	assert.Equal(t, 2, streak.CurrentStreak)
}

// fakeStreakRepo implements repositories.StreakRepository over an in-memory
// slice so sweep and summary logic can be exercised without a database.
type fakeStreakRepo struct {
	streaks []Streak
}

func (f *fakeStreakRepo) Get(ctx context.Context, userID, groupID uuid.UUID) (*Streak, error) {
	for i := range f.streaks {
		if f.streaks[i].UserID == userID && f.streaks[i].GroupID == groupID {
			return &f.streaks[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStreakRepo) GetForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	userID, groupID uuid.UUID,
) (*Streak, error) {
	return f.Get(ctx, userID, groupID)
}

func (f *fakeStreakRepo) Create(ctx context.Context, tx *gorm.DB, streak *Streak) error {
	f.streaks = append(f.streaks, *streak)
	return nil
}

func (f *fakeStreakRepo) Save(ctx context.Context, tx *gorm.DB, streak *Streak) error {
	for i := range f.streaks {
		if f.streaks[i].UserID == streak.UserID && f.streaks[i].GroupID == streak.GroupID {
			f.streaks[i] = *streak
			return nil
		}
	}
	f.streaks = append(f.streaks, *streak)
	return nil
}

func (f *fakeStreakRepo) Seed(ctx context.Context, tx *gorm.DB, userID, groupID uuid.UUID) error {
	if _, err := f.Get(ctx, userID, groupID); err == nil {
		return nil
	}
	f.streaks = append(f.streaks, Streak{UserID: userID, GroupID: groupID})
	return nil
}

func (f *fakeStreakRepo) DeleteByMember(
	ctx context.Context,
	tx *gorm.DB,
	userID, groupID uuid.UUID,
) error {
	kept := f.streaks[:0]
	for _, s := range f.streaks {
		if s.UserID != userID || s.GroupID != groupID {
			kept = append(kept, s)
		}
	}
	f.streaks = kept
	return nil
}

func (f *fakeStreakRepo) DeleteByGroup(ctx context.Context, tx *gorm.DB, groupID uuid.UUID) error {
	kept := f.streaks[:0]
	for _, s := range f.streaks {
		if s.GroupID != groupID {
			kept = append(kept, s)
		}
	}
	f.streaks = kept
	return nil
}

func (f *fakeStreakRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]Streak, error) {
	var out []Streak
	for _, s := range f.streaks {
		if s.GroupID == groupID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStreakRepo) ResetStale(ctx context.Context, cutoff time.Time) (int64, error) {
	var reset int64
	for i := range f.streaks {
		s := &f.streaks[i]
		if s.CurrentStreak > 0 && s.LastCheckInDate != nil && s.LastCheckInDate.Before(cutoff) {
			s.CurrentStreak = 0
			reset++
		}
	}
	return reset, nil
}

func (f *fakeStreakRepo) ClearLeaderboardCache(ctx context.Context, groupID uuid.UUID) {}

func newTestController(repo *fakeStreakRepo) *StreakController {
	return &StreakController{
		streakRepo: repo,
		log:        logger.New("streakController"),
	}
}

func TestRecordCheckInTx_SeedsOnFirstCheckIn(t *testing.T) {
	repo := &fakeStreakRepo{}
	sc := newTestController(repo)
	userID, groupID := uuid.New(), uuid.New()

	result, err := sc.RecordCheckInTx(context.Background(), nil, userID, groupID, day(2024, 3, 10))

	require.NoError(t, err)
	assert.Equal(t, OutcomeStarted, result.Outcome)
	assert.Equal(t, 1, result.Streak.CurrentStreak)
	require.Len(t, repo.streaks, 1)
	assert.Equal(t, userID, repo.streaks[0].UserID)
	assert.Equal(t, 1, repo.streaks[0].CurrentStreak)
}

func TestRecordCheckInTx_SameDayDoesNotWrite(t *testing.T) {
	userID, groupID := uuid.New(), uuid.New()
	repo := &fakeStreakRepo{streaks: []Streak{{
		UserID:          userID,
		GroupID:         groupID,
		CurrentStreak:   3,
		LongestStreak:   3,
		LastCheckInDate: dayPtr(day(2024, 3, 10)),
		StreakStartDate: dayPtr(day(2024, 3, 8)),
	}}}
	sc := newTestController(repo)

	result, err := sc.RecordCheckInTx(
		context.Background(),
		nil,
		userID, groupID,
		time.Date(2024, 3, 10, 18, 45, 0, 0, time.UTC),
	)

	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, result.Outcome)
	assert.Equal(t, 3, repo.streaks[0].CurrentStreak)
}

func TestSweep_GraceAndReset(t *testing.T) {
	groupID := uuid.New()
	reference := day(2024, 3, 12)

	repo := &fakeStreakRepo{streaks: []Streak{
		// Checked in yesterday: still alive
		{UserID: uuid.New(), GroupID: groupID, CurrentStreak: 5, LongestStreak: 5, LastCheckInDate: dayPtr(day(2024, 3, 11))},
		// Checked in today: alive
		{UserID: uuid.New(), GroupID: groupID, CurrentStreak: 2, LongestStreak: 4, LastCheckInDate: dayPtr(day(2024, 3, 12))},
		// Last seen two days ago: broken
		{UserID: uuid.New(), GroupID: groupID, CurrentStreak: 7, LongestStreak: 9, LastCheckInDate: dayPtr(day(2024, 3, 10))},
		// Long dormant and already zero: untouched
		{UserID: uuid.New(), GroupID: groupID, CurrentStreak: 0, LongestStreak: 3, LastCheckInDate: dayPtr(day(2024, 2, 1))},
		// Never checked in: untouched
		{UserID: uuid.New(), GroupID: groupID},
	}}
	sc := newTestController(repo)

	reset, err := sc.Sweep(context.Background(), reference)

	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	assert.Equal(t, 5, repo.streaks[0].CurrentStreak, "yesterday's check-in is within the grace window")
	assert.Equal(t, 2, repo.streaks[1].CurrentStreak)
	assert.Equal(t, 0, repo.streaks[2].CurrentStreak, "two day old check-in is swept")
	assert.Equal(t, 9, repo.streaks[2].LongestStreak, "sweep leaves longest streak alone")
	assert.Equal(t, 0, repo.streaks[3].CurrentStreak)
}

func TestSweep_IsIdempotent(t *testing.T) {
	groupID := uuid.New()
	reference := day(2024, 3, 12)

	repo := &fakeStreakRepo{streaks: []Streak{
		{UserID: uuid.New(), GroupID: groupID, CurrentStreak: 7, LongestStreak: 9, LastCheckInDate: dayPtr(day(2024, 3, 10))},
	}}
	sc := newTestController(repo)

	first, err := sc.Sweep(context.Background(), reference)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := sc.Sweep(context.Background(), reference)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second, "second sweep for the same day resets nothing")
}

func TestSweep_ReferenceTimeOfDayIrrelevant(t *testing.T) {
	groupID := uuid.New()

	repo := &fakeStreakRepo{streaks: []Streak{
		{UserID: uuid.New(), GroupID: groupID, CurrentStreak: 3, LongestStreak: 3, LastCheckInDate: dayPtr(day(2024, 3, 11))},
	}}
	sc := newTestController(repo)

	// 02:00 job time on the 12th must not sweep a streak from the 11th
	reset, err := sc.Sweep(context.Background(), time.Date(2024, 3, 12, 2, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, int64(0), reset)
}

func TestGetGroupSummary(t *testing.T) {
	groupID := uuid.New()

	repo := &fakeStreakRepo{streaks: []Streak{
		{UserID: uuid.New(), GroupID: groupID, CurrentStreak: 5, LongestStreak: 8},
		{UserID: uuid.New(), GroupID: groupID, CurrentStreak: 2, LongestStreak: 2},
		{UserID: uuid.New(), GroupID: groupID, CurrentStreak: 0, LongestStreak: 10},
	}}
	sc := newTestController(repo)

	summary, err := sc.GetGroupSummary(context.Background(), groupID)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.MemberCount)
	assert.Equal(t, 2, summary.ActiveCount)
	assert.Equal(t, 5, summary.MaxCurrentStreak)
	assert.Equal(t, 10, summary.MaxLongestStreak)
	assert.True(t, summary.AverageStreak.Equal(decimal.RequireFromString("2.33")),
		"got %s", summary.AverageStreak)
}

func TestGetGroupSummary_EmptyGroup(t *testing.T) {
	sc := newTestController(&fakeStreakRepo{})

	summary, err := sc.GetGroupSummary(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, 0, summary.MemberCount)
	assert.Equal(t, 0, summary.ActiveCount)
	assert.True(t, summary.AverageStreak.IsZero())
}
