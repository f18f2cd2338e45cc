package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/barisgudul/therapy-backend/internal/data/repos"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
)

// ErasureService removes every behavioral record for a user: traits,
// cognitive memories, and the vault, in one transaction. Account-reset
// flows are the only caller.
type ErasureService interface {
	EraseUserData(ctx context.Context, userID uuid.UUID) error
}

type erasureService struct {
	db       *gorm.DB
	log      *logger.Logger
	traits   repos.TraitRepo
	memories repos.CognitiveMemoryRepo
	vaults   repos.VaultRepo
}

func NewErasureService(
	db *gorm.DB,
	log *logger.Logger,
	traits repos.TraitRepo,
	memories repos.CognitiveMemoryRepo,
	vaults repos.VaultRepo,
) ErasureService {
	return &erasureService{
		db:       db,
		log:      log.With("service", "ErasureService"),
		traits:   traits,
		memories: memories,
		vaults:   vaults,
	}
}

func (es *erasureService) EraseUserData(ctx context.Context, userID uuid.UUID) error {
	err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := es.traits.DeleteAllForUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := es.memories.DeleteAllForUser(ctx, tx, userID); err != nil {
			return err
		}
		return es.vaults.DeleteForUser(ctx, tx, userID)
	})
	if err != nil {
		es.log.Error("user data erasure failed", "user_id", userID, "error", err)
		return err
	}
	es.log.Info("user data erased", "user_id", userID)
	return nil
}
