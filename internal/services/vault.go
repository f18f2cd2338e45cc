package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/barisgudul/therapy-backend/internal/data/repos"
	types "github.com/barisgudul/therapy-backend/internal/domain"
	"github.com/barisgudul/therapy-backend/internal/domain/profile"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
	"github.com/barisgudul/therapy-backend/internal/requestdata"
)

// VaultService reconciles the two physical representations of a user's
// vault: the authoritative scalar columns and the schemaless vault_data
// document. Reads merge; writes split.
type VaultService interface {
	GetMergedVault(ctx context.Context, userID uuid.UUID) (*types.VaultDocument, error)
	ApplyVaultUpdate(ctx context.Context, update types.VaultDocument) error
}

type vaultService struct {
	log   *logger.Logger
	vault repos.VaultRepo
}

func NewVaultService(log *logger.Logger, vault repos.VaultRepo) VaultService {
	return &vaultService{
		log:   log.With("service", "VaultService"),
		vault: vault,
	}
}

func (vs *vaultService) GetMergedVault(ctx context.Context, userID uuid.UUID) (*types.VaultDocument, error) {
	record, err := vs.vault.Get(ctx, nil, userID)
	if err != nil {
		vs.log.Error("vault read failed", "user_id", userID, "error", err)
		return nil, err
	}
	doc := MergeVaultRecord(record)
	return &doc, nil
}

// ApplyVaultUpdate splits a logical update into the column/document write.
// Without an authenticated user this is a silent no-op: vault writes are
// best-effort UI-driven updates, unlike trait writes.
func (vs *vaultService) ApplyVaultUpdate(ctx context.Context, update types.VaultDocument) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		vs.log.Debug("vault update without authenticated user, skipping")
		return nil
	}

	write, err := SplitVaultUpdate(update)
	if err != nil {
		vs.log.Error("vault update split failed", "user_id", rd.UserID, "error", err)
		return err
	}
	if err := vs.vault.Apply(ctx, nil, rd.UserID, write); err != nil {
		vs.log.Error("vault write failed", "user_id", rd.UserID, "error", err)
		return err
	}
	return nil
}

// MergeVaultRecord builds the logical vault view. vault_data is the base
// (missing or malformed data degrades to an empty document, never an
// error); a populated scalar column overrides the matching document field,
// a null column never does.
func MergeVaultRecord(record *types.UserVault) types.VaultDocument {
	var doc types.VaultDocument
	if record != nil && len(record.VaultData) > 0 {
		// Malformed vault_data is treated as empty rather than surfaced:
		// a corrupt blob must not make the whole profile unreadable.
		if err := json.Unmarshal(record.VaultData, &doc); err != nil {
			doc = types.VaultDocument{}
		}
	}
	if doc.Profile == nil {
		doc.Profile = &profile.VaultProfile{}
	}
	if doc.Metadata == nil {
		doc.Metadata = &profile.VaultMetadata{}
	}
	if record == nil {
		return doc
	}

	if record.Nickname != nil {
		doc.Profile.Nickname = *record.Nickname
	}
	if record.TherapyGoals != nil {
		doc.Profile.TherapyGoals = *record.TherapyGoals
	}
	if record.CurrentMood != nil {
		doc.Metadata.CurrentMood = *record.CurrentMood
	}
	if record.LastDailyReflectionAt != nil {
		doc.Metadata.LastDailyReflectionAt = record.LastDailyReflectionAt.UTC().Format(time.RFC3339)
	}
	return doc
}

// SplitVaultUpdate produces the storage write for a logical update: the
// full document as vault_data, plus scalar assignments for whichever of
// the four modeled fields the update carries. Absent fields stay absent.
func SplitVaultUpdate(update types.VaultDocument) (profile.VaultWrite, error) {
	raw, err := json.Marshal(update)
	if err != nil {
		return profile.VaultWrite{}, fmt.Errorf("encode vault document: %w", err)
	}
	write := profile.VaultWrite{VaultData: datatypes.JSON(raw)}

	if update.Profile != nil {
		if update.Profile.Nickname != nil {
			s := coerceScalarString(update.Profile.Nickname)
			write.Nickname = &s
		}
		if update.Profile.TherapyGoals != nil {
			s := coerceScalarString(update.Profile.TherapyGoals)
			write.TherapyGoals = &s
		}
	}
	if update.Metadata != nil {
		if update.Metadata.CurrentMood != nil {
			s := coerceScalarString(update.Metadata.CurrentMood)
			write.CurrentMood = &s
		}
		if update.Metadata.LastDailyReflectionAt != nil {
			// The column is a timestamp; only values that parse as one
			// reach it. The document keeps the raw value either way.
			if t, ok := parseReflectionTime(update.Metadata.LastDailyReflectionAt); ok {
				write.LastDailyReflectionAt = &t
			}
		}
	}
	return write, nil
}

func coerceScalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func parseReflectionTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
