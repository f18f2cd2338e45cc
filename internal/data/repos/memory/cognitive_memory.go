package memory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/barisgudul/therapy-backend/internal/domain"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
)

type CognitiveMemoryRepo interface {
	Insert(ctx context.Context, tx *gorm.DB, row *types.CognitiveMemory) error
	ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.CognitiveMemory, error)
	CountBySourceEventID(ctx context.Context, tx *gorm.DB, sourceEventID string) (int64, error)
	DeleteAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type cognitiveMemoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCognitiveMemoryRepo(db *gorm.DB, baseLog *logger.Logger) CognitiveMemoryRepo {
	repoLog := baseLog.With("repo", "CognitiveMemoryRepo")
	return &cognitiveMemoryRepo{db: db, log: repoLog}
}

// Insert writes one memory row. A unique index on source_event_id rejects
// replays; classification of that rejection is the caller's concern.
func (cr *cognitiveMemoryRepo) Insert(ctx context.Context, tx *gorm.DB, row *types.CognitiveMemory) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).Create(row).Error
}

// ListRecentByUser returns the newest rows first, trimmed to the columns
// the synthesis digest needs.
func (cr *cognitiveMemoryRepo) ListRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.CognitiveMemory, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.CognitiveMemory
	if err := transaction.WithContext(ctx).
		Select("id", "user_id", "content", "event_type", "event_time", "mood").
		Where("user_id = ?", userID).
		Order("event_time DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *cognitiveMemoryRepo) CountBySourceEventID(ctx context.Context, tx *gorm.DB, sourceEventID string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CognitiveMemory{}).
		Where("source_event_id = ?", sourceEventID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (cr *cognitiveMemoryRepo) DeleteAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.CognitiveMemory{}).Error
}
