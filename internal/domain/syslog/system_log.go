package syslog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemLog is the durable sink for fatal pipeline errors. Append-only;
// rows carry the raw request payload for post-mortem diagnosis.
type SystemLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FunctionName string         `gorm:"column:function_name;not null;index" json:"function_name"`
	LogLevel     string         `gorm:"column:log_level;not null" json:"log_level"`
	Message      string         `gorm:"column:message;not null" json:"message"`
	Payload      datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (SystemLog) TableName() string { return "system_logs" }
