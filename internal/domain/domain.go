package domain

import (
	"github.com/barisgudul/therapy-backend/internal/domain/memory"
	"github.com/barisgudul/therapy-backend/internal/domain/profile"
	"github.com/barisgudul/therapy-backend/internal/domain/prompt"
	"github.com/barisgudul/therapy-backend/internal/domain/syslog"
)

type Trait = profile.Trait
type UserVault = profile.UserVault
type VaultDocument = profile.VaultDocument
type VaultProfile = profile.VaultProfile
type VaultMetadata = profile.VaultMetadata
type CognitiveMemory = memory.CognitiveMemory
type Prompt = prompt.Prompt
type SystemLog = syslog.SystemLog
