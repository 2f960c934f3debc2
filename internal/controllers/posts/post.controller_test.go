package postController

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymbro/internal/database"
	"gymbro/internal/events"
	"gymbro/internal/repositories"
	"gymbro/internal/services"

	streakController "gymbro/internal/controllers/streaks"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

type fakePostRepo struct {
	repositories.PostRepository
	created []*Post
}

func (f *fakePostRepo) Create(ctx context.Context, tx *gorm.DB, post *Post) error {
	f.created = append(f.created, post)
	return nil
}

type fakeGroupRepo struct {
	repositories.GroupRepository
	memberErr error
}

func (f *fakeGroupRepo) GetMember(
	ctx context.Context,
	groupID, userID uuid.UUID,
) (*GroupMember, error) {
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	return &GroupMember{GroupID: groupID, UserID: userID}, nil
}

type fakeStreaks struct {
	streakController.StreakControllerInterface
	result     *streakController.CheckInResult
	err        error
	recordedAt []time.Time
}

func (f *fakeStreaks) RecordCheckIn(
	ctx context.Context,
	userID, groupID uuid.UUID,
	checkInTime time.Time,
) (*streakController.CheckInResult, error) {
	f.recordedAt = append(f.recordedAt, checkInTime)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakePublisher struct {
	published []events.Event
}

func (f *fakePublisher) Publish(channel events.Channel, event events.Event) error {
	event.Channel = channel
	f.published = append(f.published, event)
	return nil
}

func newTestController(
	t *testing.T,
	streaks *fakeStreaks,
) (*PostController, *fakePostRepo, *fakePublisher, sqlmock.Sqlmock) {
	gormDB, mock := setupTestDB(t)

	posts := &fakePostRepo{}
	bus := &fakePublisher{}
	dbWrapper := database.DB{SQL: gormDB}

	pc := &PostController{
		postRepo:  posts,
		groupRepo: &fakeGroupRepo{},
		streaks:   streaks,
		txService: services.NewTransactionService(dbWrapper),
		eventBus:  bus,
		db:        dbWrapper,
		log:       logger.New("postController"),
	}

	return pc, posts, bus, mock
}

func TestCreatePost_OutOfOrderCheckInDoesNotFailPost(t *testing.T) {
	streaks := &fakeStreaks{err: streakController.ErrOutOfOrderCheckIn}
	pc, posts, bus, mock := newTestController(t, streaks)

	// The post insert commits regardless of the streak outcome
	mock.ExpectBegin()
	mock.ExpectCommit()

	user := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}}
	result, err := pc.CreatePost(context.Background(), user, CreatePostRequest{
		GroupID: uuid.New(),
	})

	require.NoError(t, err, "a rejected check-in must not fail the post")
	require.NotNil(t, result)
	assert.NotNil(t, result.Post)
	assert.Nil(t, result.Streak, "no streak payload when the update was rejected")
	require.Len(t, posts.created, 1, "the post is still created")

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.POST_CREATED, bus.published[0].Type)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePost_StreakStorageErrorDoesNotFailPost(t *testing.T) {
	streaks := &fakeStreaks{err: errors.New("connection refused")}
	pc, posts, _, mock := newTestController(t, streaks)

	mock.ExpectBegin()
	mock.ExpectCommit()

	user := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}}
	result, err := pc.CreatePost(context.Background(), user, CreatePostRequest{
		GroupID: uuid.New(),
	})

	require.NoError(t, err)
	assert.Nil(t, result.Streak)
	require.Len(t, posts.created, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePost_CheckInAdvancesStreak(t *testing.T) {
	streaks := &fakeStreaks{result: &streakController.CheckInResult{
		Outcome: streakController.OutcomeExtended,
		Streak:  &Streak{CurrentStreak: 4, LongestStreak: 6},
	}}
	pc, posts, bus, mock := newTestController(t, streaks)

	mock.ExpectBegin()
	mock.ExpectCommit()

	user := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}}
	result, err := pc.CreatePost(context.Background(), user, CreatePostRequest{
		GroupID: uuid.New(),
	})

	require.NoError(t, err)
	require.NotNil(t, result.Streak)
	assert.Equal(t, streakController.OutcomeExtended, result.Streak.Outcome)
	assert.Equal(t, 4, result.Streak.Streak.CurrentStreak)
	require.Len(t, posts.created, 1)

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.CHECKIN_CREATED, bus.published[0].Type)
	assert.Equal(t, 4, bus.published[0].Data["currentStreak"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePost_NonCheckInSkipsStreak(t *testing.T) {
	streaks := &fakeStreaks{}
	pc, posts, bus, mock := newTestController(t, streaks)

	mock.ExpectBegin()
	mock.ExpectCommit()

	user := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}}
	result, err := pc.CreatePost(context.Background(), user, CreatePostRequest{
		GroupID:  uuid.New(),
		PostType: PostTypeProgress,
	})

	require.NoError(t, err)
	assert.Nil(t, result.Streak)
	assert.Empty(t, streaks.recordedAt, "progress posts never touch the streak")
	require.Len(t, posts.created, 1)

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.POST_CREATED, bus.published[0].Type)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePost_NonMemberRejected(t *testing.T) {
	streaks := &fakeStreaks{}
	pc, posts, _, mock := newTestController(t, streaks)
	pc.groupRepo = &fakeGroupRepo{memberErr: gorm.ErrRecordNotFound}

	user := &User{BaseUUIDModel: BaseUUIDModel{ID: uuid.New()}}
	result, err := pc.CreatePost(context.Background(), user, CreatePostRequest{
		GroupID: uuid.New(),
	})

	assert.ErrorIs(t, err, ErrNotAMember)
	assert.Nil(t, result)
	assert.Empty(t, posts.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}
