package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/barisgudul/therapy-backend/internal/domain"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
)

type TraitRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, trait *types.Trait) error
	GetByUserAndKey(ctx context.Context, tx *gorm.DB, userID uuid.UUID, traitKey string) (*types.Trait, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Trait, error)
	DeleteAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type traitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTraitRepo(db *gorm.DB, baseLog *logger.Logger) TraitRepo {
	repoLog := baseLog.With("repo", "TraitRepo")
	return &traitRepo{db: db, log: repoLog}
}

// Upsert writes one trait row keyed by the (user_id, trait_key) unique
// index. Concurrent writers for the same key converge on last-write-wins
// at the constraint, no row-id bookkeeping needed.
func (tr *traitRepo) Upsert(ctx context.Context, tx *gorm.DB, trait *types.Trait) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "trait_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"trait_value", "confidence_score", "source", "last_updated",
			}),
		}).
		Create(trait).Error
}

func (tr *traitRepo) GetByUserAndKey(ctx context.Context, tx *gorm.DB, userID uuid.UUID, traitKey string) (*types.Trait, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var result types.Trait
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND trait_key = ?", userID, traitKey).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (tr *traitRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Trait, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}

	var results []*types.Trait
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("trait_key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *traitRepo) DeleteAllForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.Trait{}).Error
}
