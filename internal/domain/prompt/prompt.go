package prompt

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Prompt is one immutable version of a named instruction template.
type Prompt struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string         `gorm:"column:name;not null;uniqueIndex:idx_prompt_name_version" json:"name"`
	Content   string         `gorm:"column:content;not null" json:"content"`
	Version   int            `gorm:"column:version;not null;default:1;uniqueIndex:idx_prompt_name_version" json:"version"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	Active    bool           `gorm:"column:active;not null;default:true;index" json:"active"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (Prompt) TableName() string { return "prompt" }
