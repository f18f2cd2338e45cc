package repos

import (
	"github.com/barisgudul/therapy-backend/internal/data/repos/memory"
	"github.com/barisgudul/therapy-backend/internal/data/repos/profile"
	"github.com/barisgudul/therapy-backend/internal/data/repos/prompt"
	"github.com/barisgudul/therapy-backend/internal/data/repos/syslog"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

type TraitRepo = profile.TraitRepo
type VaultRepo = profile.VaultRepo
type CognitiveMemoryRepo = memory.CognitiveMemoryRepo
type PromptRepo = prompt.PromptRepo
type SystemLogRepo = syslog.SystemLogRepo

func NewTraitRepo(db *gorm.DB, baseLog *logger.Logger) TraitRepo {
	return profile.NewTraitRepo(db, baseLog)
}
func NewVaultRepo(db *gorm.DB, baseLog *logger.Logger) VaultRepo {
	return profile.NewVaultRepo(db, baseLog)
}
func NewCognitiveMemoryRepo(db *gorm.DB, baseLog *logger.Logger) CognitiveMemoryRepo {
	return memory.NewCognitiveMemoryRepo(db, baseLog)
}
func NewPromptRepo(db *gorm.DB, baseLog *logger.Logger) PromptRepo {
	return prompt.NewPromptRepo(db, baseLog)
}
func NewSystemLogRepo(db *gorm.DB, baseLog *logger.Logger) SystemLogRepo {
	return syslog.NewSystemLogRepo(db, baseLog)
}
