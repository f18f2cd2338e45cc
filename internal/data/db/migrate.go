package db

import (
	types "github.com/barisgudul/therapy-backend/internal/domain"
	"gorm.io/gorm"
)

func (s *PostgresService) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.UserVault{},
		&types.Trait{},
		&types.CognitiveMemory{},
		&types.Prompt{},
		&types.SystemLog{},
	)
}
