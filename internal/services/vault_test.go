package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/barisgudul/therapy-backend/internal/domain"
	"github.com/barisgudul/therapy-backend/internal/domain/profile"
	"github.com/barisgudul/therapy-backend/internal/requestdata"
)

type fakeVaultRepo struct {
	records map[uuid.UUID]*types.UserVault
	applied []profile.VaultWrite
	getErr  error
}

func newFakeVaultRepo() *fakeVaultRepo {
	return &fakeVaultRepo{records: map[uuid.UUID]*types.UserVault{}}
}

func (f *fakeVaultRepo) Get(_ context.Context, _ *gorm.DB, userID uuid.UUID) (*types.UserVault, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.records[userID], nil
}

func (f *fakeVaultRepo) Apply(_ context.Context, _ *gorm.DB, userID uuid.UUID, write profile.VaultWrite) error {
	f.applied = append(f.applied, write)
	return nil
}

func (f *fakeVaultRepo) ListUserIDs(_ context.Context, _ *gorm.DB) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(f.records))
	for id := range f.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeVaultRepo) DeleteForUser(_ context.Context, _ *gorm.DB, userID uuid.UUID) error {
	delete(f.records, userID)
	return nil
}

func strptr(s string) *string { return &s }

func TestMergeVaultRecord_ColumnsOverrideDocument(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	record := &types.UserVault{
		UserID: uuid.New(),
		VaultData: datatypes.JSON(`{
			"profile": {"nickname": "old-name", "therapyGoals": "sleep better"},
			"metadata": {"currentMood": "neutral"},
			"journalStreak": 12
		}`),
		Nickname:              strptr("fresh-name"),
		CurrentMood:           strptr("hopeful"),
		LastDailyReflectionAt: &at,
	}

	doc := MergeVaultRecord(record)

	if doc.Profile.Nickname != "fresh-name" {
		t.Fatalf("nickname = %#v, want column value", doc.Profile.Nickname)
	}
	// No column set, document value survives.
	if doc.Profile.TherapyGoals != "sleep better" {
		t.Fatalf("therapyGoals = %#v, want document value", doc.Profile.TherapyGoals)
	}
	if doc.Metadata.CurrentMood != "hopeful" {
		t.Fatalf("currentMood = %#v, want column value", doc.Metadata.CurrentMood)
	}
	if doc.Metadata.LastDailyReflectionAt != "2025-03-10T09:30:00Z" {
		t.Fatalf("lastDailyReflectionAt = %#v", doc.Metadata.LastDailyReflectionAt)
	}
	if _, ok := doc.Extra["journalStreak"]; !ok {
		t.Fatalf("unmodeled key dropped: %#v", doc.Extra)
	}
}

func TestMergeVaultRecord_NilRecordYieldsEmptyDocument(t *testing.T) {
	doc := MergeVaultRecord(nil)
	if doc.Profile == nil || doc.Metadata == nil {
		t.Fatal("expected initialized profile and metadata sub-documents")
	}
	if doc.Profile.Nickname != nil {
		t.Fatalf("nickname = %#v, want absent", doc.Profile.Nickname)
	}
}

func TestMergeVaultRecord_MalformedDataDegradesToEmpty(t *testing.T) {
	record := &types.UserVault{
		UserID:    uuid.New(),
		VaultData: datatypes.JSON(`{not json`),
		Nickname:  strptr("still-here"),
	}

	doc := MergeVaultRecord(record)
	if doc.Profile.Nickname != "still-here" {
		t.Fatalf("nickname = %#v, columns must survive a corrupt document", doc.Profile.Nickname)
	}
}

func TestSplitVaultUpdate_OnlyPresentFieldsProduceColumns(t *testing.T) {
	update := types.VaultDocument{
		Profile: &profile.VaultProfile{Nickname: "deniz"},
	}

	write, err := SplitVaultUpdate(update)
	if err != nil {
		t.Fatalf("SplitVaultUpdate: %v", err)
	}
	if write.Nickname == nil || *write.Nickname != "deniz" {
		t.Fatalf("nickname column = %v", write.Nickname)
	}
	if write.TherapyGoals != nil || write.CurrentMood != nil || write.LastDailyReflectionAt != nil {
		t.Fatalf("absent fields produced columns: %+v", write)
	}

	var doc map[string]any
	if err := json.Unmarshal(write.VaultData, &doc); err != nil {
		t.Fatalf("vault_data not valid JSON: %v", err)
	}
	if _, ok := doc["profile"]; !ok {
		t.Fatalf("vault_data missing profile: %v", doc)
	}
}

func TestSplitVaultUpdate_CoercesScalars(t *testing.T) {
	update := types.VaultDocument{
		Profile:  &profile.VaultProfile{Nickname: float64(42)},
		Metadata: &profile.VaultMetadata{CurrentMood: true},
	}

	write, err := SplitVaultUpdate(update)
	if err != nil {
		t.Fatalf("SplitVaultUpdate: %v", err)
	}
	if write.Nickname == nil || *write.Nickname != "42" {
		t.Fatalf("nickname = %v, want \"42\"", write.Nickname)
	}
	if write.CurrentMood == nil || *write.CurrentMood != "true" {
		t.Fatalf("currentMood = %v, want \"true\"", write.CurrentMood)
	}
}

func TestSplitVaultUpdate_UnparsableReflectionTimeSkipsColumn(t *testing.T) {
	update := types.VaultDocument{
		Metadata: &profile.VaultMetadata{LastDailyReflectionAt: "yesterday-ish"},
	}

	write, err := SplitVaultUpdate(update)
	if err != nil {
		t.Fatalf("SplitVaultUpdate: %v", err)
	}
	if write.LastDailyReflectionAt != nil {
		t.Fatalf("unparsable timestamp reached the column: %v", write.LastDailyReflectionAt)
	}

	// Document still carries the raw value.
	var doc types.VaultDocument
	if err := json.Unmarshal(write.VaultData, &doc); err != nil {
		t.Fatalf("vault_data round-trip: %v", err)
	}
	if doc.Metadata.LastDailyReflectionAt != "yesterday-ish" {
		t.Fatalf("document value = %#v", doc.Metadata.LastDailyReflectionAt)
	}
}

func TestSplitVaultUpdate_ParsesDateOnlyReflectionTime(t *testing.T) {
	update := types.VaultDocument{
		Metadata: &profile.VaultMetadata{LastDailyReflectionAt: "2025-06-01"},
	}

	write, err := SplitVaultUpdate(update)
	if err != nil {
		t.Fatalf("SplitVaultUpdate: %v", err)
	}
	if write.LastDailyReflectionAt == nil {
		t.Fatal("date-only timestamp should reach the column")
	}
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !write.LastDailyReflectionAt.Equal(want) {
		t.Fatalf("column = %v, want %v", write.LastDailyReflectionAt, want)
	}
}

func TestVaultDocument_RoundTripPreservesUnknownKeys(t *testing.T) {
	src := []byte(`{
		"profile": {"nickname": "ada", "attachmentStyle": "secure"},
		"metadata": {"currentMood": "calm", "theme": "dark"},
		"traits": {"openness": 0.7},
		"dnaAnalysis": {"summary": "steady"},
		"memories": [{"id": "m1"}]
	}`)

	var doc types.VaultDocument
	if err := json.Unmarshal(src, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	for _, key := range []string{"profile", "metadata", "traits", "dnaAnalysis", "memories"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("key %q lost in round trip: %v", key, got)
		}
	}
	p := got["profile"].(map[string]any)
	if p["attachmentStyle"] != "secure" {
		t.Fatalf("nested unknown key lost: %v", p)
	}
}

func TestApplyVaultUpdate_SilentNoOpWithoutAuth(t *testing.T) {
	repo := newFakeVaultRepo()
	svc := NewVaultService(testLogger(t), repo)

	update := types.VaultDocument{Profile: &profile.VaultProfile{Nickname: "ghost"}}
	if err := svc.ApplyVaultUpdate(context.Background(), update); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
	if len(repo.applied) != 0 {
		t.Fatalf("write happened without an authenticated user: %+v", repo.applied)
	}
}

func TestApplyVaultUpdate_WritesForAuthenticatedUser(t *testing.T) {
	repo := newFakeVaultRepo()
	svc := NewVaultService(testLogger(t), repo)
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: uuid.New()})

	update := types.VaultDocument{Profile: &profile.VaultProfile{Nickname: "deniz"}}
	if err := svc.ApplyVaultUpdate(ctx, update); err != nil {
		t.Fatalf("ApplyVaultUpdate: %v", err)
	}
	if len(repo.applied) != 1 {
		t.Fatalf("expected one write, got %d", len(repo.applied))
	}
	if repo.applied[0].Nickname == nil || *repo.applied[0].Nickname != "deniz" {
		t.Fatalf("write = %+v", repo.applied[0])
	}
}

func TestGetMergedVault_UnknownUserGetsEmptyDocument(t *testing.T) {
	svc := NewVaultService(testLogger(t), newFakeVaultRepo())

	doc, err := svc.GetMergedVault(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetMergedVault: %v", err)
	}
	if doc == nil || doc.Profile == nil || doc.Metadata == nil {
		t.Fatalf("expected initialized empty document, got %#v", doc)
	}
}
