package memory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CognitiveMemory is the enriched record of one user-generated text event.
// At most one row per SourceEventID; rows are written once and never
// mutated, so a retried ingestion can only collide, not corrupt.
type CognitiveMemory struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SourceEventID string    `gorm:"column:source_event_id;not null;uniqueIndex" json:"source_event_id"`
	Content       string    `gorm:"column:content;not null" json:"content"`
	EventTime     time.Time `gorm:"column:event_time;not null;index" json:"event_time"`

	SentimentData  datatypes.JSON `gorm:"column:sentiment_data;type:jsonb" json:"sentiment_data,omitempty"`
	StylometryData datatypes.JSON `gorm:"column:stylometry_data;type:jsonb" json:"stylometry_data,omitempty"`

	ContentEmbedding    datatypes.JSON `gorm:"column:content_embedding;type:jsonb" json:"content_embedding,omitempty"`
	SentimentEmbedding  datatypes.JSON `gorm:"column:sentiment_embedding;type:jsonb" json:"sentiment_embedding,omitempty"`
	StylometryEmbedding datatypes.JSON `gorm:"column:stylometry_embedding;type:jsonb" json:"stylometry_embedding,omitempty"`

	TransactionID *string `gorm:"column:transaction_id" json:"transaction_id,omitempty"`
	Mood          *string `gorm:"column:mood" json:"mood,omitempty"`
	EventType     *string `gorm:"column:event_type" json:"event_type,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (CognitiveMemory) TableName() string { return "cognitive_memory" }
