package motivationController

import (
	"context"
	"encoding/json"
	"errors"
	"gymbro/config"
	"gymbro/internal/database"
	"gymbro/internal/events"
	"gymbro/internal/repositories"
	"gymbro/internal/services"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotAMember = errors.New("not a member of this group")

type MotivationController struct {
	motivationRepo    repositories.MotivationRepository
	streakRepo        repositories.StreakRepository
	groupRepo         repositories.GroupRepository
	motivationService *services.MotivationService
	eventBus          *events.EventBus
	db                database.DB
	Config            config.Config
	log               logger.Logger
}

type MotivationControllerInterface interface {
	GenerateForGroup(ctx context.Context, user *User, groupID uuid.UUID) (*MotivationalMessage, error)
	GenerateDailyForGroup(ctx context.Context, groupID uuid.UUID, day time.Time) (*MotivationalMessage, error)
	ListMessages(ctx context.Context, user *User, groupID uuid.UUID, limit int) ([]MotivationalMessage, error)
	GenerateVoiceClip(ctx context.Context, user *User, text string) ([]byte, error)
	GenerateVoiceForMessage(ctx context.Context, user *User, messageID uuid.UUID) ([]byte, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) MotivationControllerInterface {
	return &MotivationController{
		motivationRepo:    repos.Motivation,
		streakRepo:        repos.Streak,
		groupRepo:         repos.Group,
		motivationService: services.Motivation,
		eventBus:          eventBus,
		db:                db,
		Config:            config,
		log:               logger.New("motivationController"),
	}
}

// GenerateForGroup produces an on-demand motivational message for a group
// the user belongs to.
func (mc *MotivationController) GenerateForGroup(
	ctx context.Context,
	user *User,
	groupID uuid.UUID,
) (*MotivationalMessage, error) {
	if _, err := mc.groupRepo.GetMember(ctx, groupID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAMember
		}
		return nil, err
	}

	return mc.generate(ctx, groupID, MessageTypeCustom)
}

// GenerateDailyForGroup produces the group's daily message. Already having
// one for the day makes this a no-op returning nil, so the scheduled job can
// rerun safely.
func (mc *MotivationController) GenerateDailyForGroup(
	ctx context.Context,
	groupID uuid.UUID,
	day time.Time,
) (*MotivationalMessage, error) {
	exists, err := mc.motivationRepo.ExistsForDate(ctx, groupID, day)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	return mc.generate(ctx, groupID, MessageTypeDaily)
}

func (mc *MotivationController) generate(
	ctx context.Context,
	groupID uuid.UUID,
	messageType MessageType,
) (*MotivationalMessage, error) {
	log := mc.log.Function("generate")

	group, err := mc.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, log.Err("failed to load group", err, "groupID", groupID)
	}

	streaks, err := mc.streakRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	standings := make([]services.MemberStanding, 0, len(streaks))
	for _, streak := range streaks {
		standings = append(standings, services.MemberStanding{
			DisplayName:   streak.User.DisplayName,
			CurrentStreak: streak.CurrentStreak,
		})
	}

	text := mc.motivationService.GenerateMessage(ctx, group.Name, standings)

	contextJSON, err := json.Marshal(standings)
	if err != nil {
		log.Warn("failed to marshal standings snapshot", "groupID", groupID, "error", err)
		contextJSON = nil
	}

	message := &MotivationalMessage{
		GroupID:     groupID,
		Message:     text,
		MessageType: messageType,
		Context:     contextJSON,
	}
	if err := mc.motivationRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	if err := mc.eventBus.Publish(events.MOTIVATION_CHANNEL, events.Event{
		Type:    events.MOTIVATION_CREATED,
		GroupID: &groupID,
		Data: map[string]any{
			"messageId": message.ID.String(),
			"message":   text,
		},
	}); err != nil {
		log.Warn("failed to publish motivation event", "groupID", groupID, "error", err)
	}

	return message, nil
}

func (mc *MotivationController) ListMessages(
	ctx context.Context,
	user *User,
	groupID uuid.UUID,
	limit int,
) ([]MotivationalMessage, error) {
	if _, err := mc.groupRepo.GetMember(ctx, groupID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAMember
		}
		return nil, err
	}

	return mc.motivationRepo.ListByGroup(ctx, groupID, limit)
}

// GenerateVoiceClip renders arbitrary short text to speech for playback in
// the client.
func (mc *MotivationController) GenerateVoiceClip(
	ctx context.Context,
	user *User,
	text string,
) ([]byte, error) {
	log := mc.log.Function("GenerateVoiceClip")

	if text == "" || len(text) > 500 {
		return nil, log.ErrMsg("text must be between 1 and 500 characters")
	}

	return mc.motivationService.GenerateVoiceClip(ctx, text)
}

// GenerateVoiceForMessage renders a stored motivational message to speech.
// The first successful render records the message's audio endpoint so feed
// clients know a clip is available.
func (mc *MotivationController) GenerateVoiceForMessage(
	ctx context.Context,
	user *User,
	messageID uuid.UUID,
) ([]byte, error) {
	log := mc.log.Function("GenerateVoiceForMessage")

	message, err := mc.motivationRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, log.Err("message not found", err, "messageID", messageID)
	}

	if _, err := mc.groupRepo.GetMember(ctx, message.GroupID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAMember
		}
		return nil, err
	}

	audio, err := mc.motivationService.GenerateVoiceClip(ctx, message.Message)
	if err != nil {
		return nil, err
	}

	if message.AudioURL == nil {
		audioURL := "/api/motivate/messages/" + messageID.String() + "/audio"
		if err := mc.motivationRepo.SetAudioURL(ctx, messageID, audioURL); err != nil {
			log.Warn("failed to record audio url", "messageID", messageID, "error", err)
		}
	}

	return audio, nil
}
