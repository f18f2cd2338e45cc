package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/barisgudul/therapy-backend/internal/domain"
	domainprofile "github.com/barisgudul/therapy-backend/internal/domain/profile"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
)

type VaultRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserVault, error)
	Apply(ctx context.Context, tx *gorm.DB, userID uuid.UUID, write domainprofile.VaultWrite) error
	ListUserIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
	DeleteForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type vaultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVaultRepo(db *gorm.DB, baseLog *logger.Logger) VaultRepo {
	repoLog := baseLog.With("repo", "VaultRepo")
	return &vaultRepo{db: db, log: repoLog}
}

func (vr *vaultRepo) Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserVault, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var result types.UserVault
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Apply upserts the vault row. vault_data is a full-document replacement;
// the scalar columns are assigned only when the write carries them, so an
// update that never mentions nickname leaves the stored nickname intact.
func (vr *vaultRepo) Apply(ctx context.Context, tx *gorm.DB, userID uuid.UUID, write domainprofile.VaultWrite) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	now := time.Now().UTC()
	assignments := map[string]any{
		"vault_data": write.VaultData,
		"updated_at": now,
	}
	row := types.UserVault{
		UserID:    userID,
		VaultData: write.VaultData,
	}
	if write.Nickname != nil {
		assignments["nickname"] = *write.Nickname
		row.Nickname = write.Nickname
	}
	if write.TherapyGoals != nil {
		assignments["therapy_goals"] = *write.TherapyGoals
		row.TherapyGoals = write.TherapyGoals
	}
	if write.CurrentMood != nil {
		assignments["current_mood"] = *write.CurrentMood
		row.CurrentMood = write.CurrentMood
	}
	if write.LastDailyReflectionAt != nil {
		assignments["last_daily_reflection_at"] = *write.LastDailyReflectionAt
		row.LastDailyReflectionAt = write.LastDailyReflectionAt
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(&row).Error
}

func (vr *vaultRepo) ListUserIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.UserVault{}).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (vr *vaultRepo) DeleteForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.UserVault{}).Error
}
