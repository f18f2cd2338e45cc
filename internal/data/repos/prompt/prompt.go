package prompt

import (
	"context"
	"errors"

	"gorm.io/gorm"

	types "github.com/barisgudul/therapy-backend/internal/domain"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
)

type PromptRepo interface {
	GetActiveByName(ctx context.Context, tx *gorm.DB, name string) (*types.Prompt, error)
	Create(ctx context.Context, tx *gorm.DB, prompt *types.Prompt) error
}

type promptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPromptRepo(db *gorm.DB, baseLog *logger.Logger) PromptRepo {
	repoLog := baseLog.With("repo", "PromptRepo")
	return &promptRepo{db: db, log: repoLog}
}

// GetActiveByName returns the highest active version for a name, nil when
// the registry has none.
func (pr *promptRepo) GetActiveByName(ctx context.Context, tx *gorm.DB, name string) (*types.Prompt, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.Prompt
	err := transaction.WithContext(ctx).
		Where("name = ? AND active = ?", name, true).
		Order("version DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (pr *promptRepo) Create(ctx context.Context, tx *gorm.DB, prompt *types.Prompt) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Create(prompt).Error
}
