package profile

import (
	"time"

	"gorm.io/datatypes"
)

// VaultWrite is the storage-level payload produced by splitting a logical
// vault update: a full-document replacement of vault_data plus scalar
// assignments for whichever of the four modeled columns the update
// carried. Nil pointers mean "leave the column alone" -- they never reach
// the write statement.
type VaultWrite struct {
	VaultData             datatypes.JSON
	Nickname              *string
	TherapyGoals          *string
	CurrentMood           *string
	LastDailyReflectionAt *time.Time
}
