package repositories

import (
	"context"
	"gymbro/internal/database"
	"gymbro/internal/utils"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	. "gymbro/internal/models"

	"github.com/google/uuid"
)

type MotivationRepository interface {
	Create(ctx context.Context, message *MotivationalMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*MotivationalMessage, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]MotivationalMessage, error)

	// ExistsForDate reports whether a daily message was already generated for
	// the group on the given calendar day, keeping the generation job
	// idempotent across reruns.
	ExistsForDate(ctx context.Context, groupID uuid.UUID, day time.Time) (bool, error)

	SetAudioURL(ctx context.Context, messageID uuid.UUID, audioURL string) error
}

type motivationRepository struct {
	db  database.DB
	log logger.Logger
}

func NewMotivationRepository(db database.DB) MotivationRepository {
	return &motivationRepository{
		db:  db,
		log: logger.New("motivationRepository"),
	}
}

func (r *motivationRepository) Create(ctx context.Context, message *MotivationalMessage) error {
	log := r.log.Function("Create")

	if err := r.db.SQLWithContext(ctx).Create(message).Error; err != nil {
		return log.Err("failed to create motivational message", err, "groupID", message.GroupID)
	}

	return nil
}

func (r *motivationRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*MotivationalMessage, error) {
	var message MotivationalMessage
	if err := r.db.SQLWithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &message, nil
}

func (r *motivationRepository) ListByGroup(
	ctx context.Context,
	groupID uuid.UUID,
	limit int,
) ([]MotivationalMessage, error) {
	log := r.log.Function("ListByGroup")

	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var messages []MotivationalMessage
	if err := r.db.SQLWithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, log.Err("failed to list motivational messages", err, "groupID", groupID)
	}

	return messages, nil
}

func (r *motivationRepository) ExistsForDate(
	ctx context.Context,
	groupID uuid.UUID,
	day time.Time,
) (bool, error) {
	log := r.log.Function("ExistsForDate")

	dayStart := utils.DateOf(day)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int64
	if err := r.db.SQLWithContext(ctx).
		Model(&MotivationalMessage{}).
		Where(
			"group_id = ? AND message_type = ? AND created_at >= ? AND created_at < ?",
			groupID, MessageTypeDaily, dayStart, dayEnd,
		).
		Count(&count).Error; err != nil {
		return false, log.Err("failed to check for existing message", err, "groupID", groupID)
	}

	return count > 0, nil
}

func (r *motivationRepository) SetAudioURL(
	ctx context.Context,
	messageID uuid.UUID,
	audioURL string,
) error {
	log := r.log.Function("SetAudioURL")

	if err := r.db.SQLWithContext(ctx).
		Model(&MotivationalMessage{}).
		Where("id = ?", messageID).
		Update("audio_url", audioURL).Error; err != nil {
		return log.Err("failed to set audio url", err, "messageID", messageID)
	}

	return nil
}
