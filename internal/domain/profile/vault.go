package profile

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserVault is the persisted shape of a user's profile vault. The four
// scalar columns are the authoritative fast path for frequently-read
// fields; VaultData holds everything else as a JSON document.
type UserVault struct {
	UserID                uuid.UUID      `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	VaultData             datatypes.JSON `gorm:"column:vault_data;type:jsonb" json:"vault_data"`
	Nickname              *string        `gorm:"column:nickname" json:"nickname,omitempty"`
	TherapyGoals          *string        `gorm:"column:therapy_goals" json:"therapy_goals,omitempty"`
	CurrentMood           *string        `gorm:"column:current_mood" json:"current_mood,omitempty"`
	LastDailyReflectionAt *time.Time     `gorm:"column:last_daily_reflection_at" json:"last_daily_reflection_at,omitempty"`
	CreatedAt             time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserVault) TableName() string { return "user_vault" }

// VaultDocument is the logical vault view. Known sub-documents are typed;
// every unknown top-level key survives a merge round-trip via Extra.
type VaultDocument struct {
	Profile  *VaultProfile  `json:"-"`
	Metadata *VaultMetadata `json:"-"`
	Traits   map[string]any `json:"-"`
	Memories []any          `json:"-"`

	// Extra holds top-level keys the schema does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

// VaultProfile keeps known fields as raw values: callers historically sent
// numbers or booleans for nickname-like fields and the write path coerces
// them to strings only at the column boundary.
type VaultProfile struct {
	Nickname     any
	TherapyGoals any
	Extra        map[string]json.RawMessage
}

type VaultMetadata struct {
	CurrentMood           any
	LastDailyReflectionAt any
	Extra                 map[string]json.RawMessage
}

func (d *VaultDocument) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = VaultDocument{}
	for key, val := range raw {
		switch key {
		case "profile":
			p := &VaultProfile{}
			if err := json.Unmarshal(val, p); err != nil {
				return err
			}
			d.Profile = p
		case "metadata":
			m := &VaultMetadata{}
			if err := json.Unmarshal(val, m); err != nil {
				return err
			}
			d.Metadata = m
		case "traits":
			if err := json.Unmarshal(val, &d.Traits); err != nil {
				return err
			}
		case "memories":
			if err := json.Unmarshal(val, &d.Memories); err != nil {
				return err
			}
		default:
			if d.Extra == nil {
				d.Extra = map[string]json.RawMessage{}
			}
			d.Extra[key] = val
		}
	}
	return nil
}

func (d VaultDocument) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for key, val := range d.Extra {
		out[key] = val
	}
	if d.Profile != nil {
		out["profile"] = d.Profile
	}
	if d.Metadata != nil {
		out["metadata"] = d.Metadata
	}
	if d.Traits != nil {
		out["traits"] = d.Traits
	}
	if d.Memories != nil {
		out["memories"] = d.Memories
	}
	return json.Marshal(out)
}

func (p *VaultProfile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = VaultProfile{}
	for key, val := range raw {
		switch key {
		case "nickname":
			if err := json.Unmarshal(val, &p.Nickname); err != nil {
				return err
			}
		case "therapyGoals":
			if err := json.Unmarshal(val, &p.TherapyGoals); err != nil {
				return err
			}
		default:
			if p.Extra == nil {
				p.Extra = map[string]json.RawMessage{}
			}
			p.Extra[key] = val
		}
	}
	return nil
}

func (p VaultProfile) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for key, val := range p.Extra {
		out[key] = val
	}
	if p.Nickname != nil {
		out["nickname"] = p.Nickname
	}
	if p.TherapyGoals != nil {
		out["therapyGoals"] = p.TherapyGoals
	}
	return json.Marshal(out)
}

func (m *VaultMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = VaultMetadata{}
	for key, val := range raw {
		switch key {
		case "currentMood":
			if err := json.Unmarshal(val, &m.CurrentMood); err != nil {
				return err
			}
		case "lastDailyReflectionAt":
			if err := json.Unmarshal(val, &m.LastDailyReflectionAt); err != nil {
				return err
			}
		default:
			if m.Extra == nil {
				m.Extra = map[string]json.RawMessage{}
			}
			m.Extra[key] = val
		}
	}
	return nil
}

func (m VaultMetadata) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for key, val := range m.Extra {
		out[key] = val
	}
	if m.CurrentMood != nil {
		out["currentMood"] = m.CurrentMood
	}
	if m.LastDailyReflectionAt != nil {
		out["lastDailyReflectionAt"] = m.LastDailyReflectionAt
	}
	return json.Marshal(out)
}
