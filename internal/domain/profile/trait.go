package profile

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Trait keys tracked by the synthesizer. One row per (user, key).
const (
	TraitConfidence        = "confidence"
	TraitAnxietyLevel      = "anxiety_level"
	TraitMotivation        = "motivation"
	TraitExtraversion      = "extraversion"
	TraitOpenness          = "openness"
	TraitNeuroticism       = "neuroticism"
	TraitAgreeableness     = "agreeableness"
	TraitConscientiousness = "conscientiousness"
	TraitResilience        = "resilience"
)

var TraitKeys = []string{
	TraitConfidence,
	TraitAnxietyLevel,
	TraitMotivation,
	TraitExtraversion,
	TraitOpenness,
	TraitNeuroticism,
	TraitAgreeableness,
	TraitConscientiousness,
	TraitResilience,
}

func IsTraitKey(key string) bool {
	for _, k := range TraitKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Trait is one scalar of a user's personality profile. TraitValue is a
// JSON-encoded scalar (number or string).
type Trait struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_trait_user_key" json:"user_id"`
	TraitKey        string         `gorm:"column:trait_key;not null;uniqueIndex:idx_trait_user_key" json:"trait_key"`
	TraitValue      datatypes.JSON `gorm:"column:trait_value;type:jsonb;not null" json:"trait_value"`
	ConfidenceScore float64        `gorm:"column:confidence_score;not null;default:0" json:"confidence_score"`
	Source          string         `gorm:"column:source" json:"source,omitempty"`
	LastUpdated     time.Time      `gorm:"column:last_updated;not null;default:now()" json:"last_updated"`
}

func (Trait) TableName() string { return "trait" }

// NewTraitValue encodes a scalar as the stored JSON value.
func NewTraitValue(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

// FloatValue decodes the stored value as a number. The second return is
// false for strings and malformed payloads.
func (t *Trait) FloatValue() (float64, bool) {
	var f float64
	if err := json.Unmarshal(t.TraitValue, &f); err != nil {
		return 0, false
	}
	return f, true
}

// ScalarValue decodes the stored value into its natural Go scalar.
func (t *Trait) ScalarValue() any {
	var v any
	if err := json.Unmarshal(t.TraitValue, &v); err != nil {
		return nil
	}
	return v
}
