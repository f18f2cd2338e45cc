package syslog

import (
	"context"

	"gorm.io/gorm"

	types "github.com/barisgudul/therapy-backend/internal/domain"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
)

type SystemLogRepo interface {
	Append(ctx context.Context, tx *gorm.DB, entry *types.SystemLog) error
}

type systemLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSystemLogRepo(db *gorm.DB, baseLog *logger.Logger) SystemLogRepo {
	repoLog := baseLog.With("repo", "SystemLogRepo")
	return &systemLogRepo{db: db, log: repoLog}
}

func (sr *systemLogRepo) Append(ctx context.Context, tx *gorm.DB, entry *types.SystemLog) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).Create(entry).Error
}
