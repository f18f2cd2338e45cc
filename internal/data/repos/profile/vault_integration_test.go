package profile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/barisgudul/therapy-backend/internal/data/repos/testutil"
	types "github.com/barisgudul/therapy-backend/internal/domain"
	domainprofile "github.com/barisgudul/therapy-backend/internal/domain/profile"
)

func strptr(s string) *string { return &s }

func seedTrait(userID uuid.UUID, value, confidence float64, source string) *types.Trait {
	return &types.Trait{
		UserID:          userID,
		TraitKey:        domainprofile.TraitConfidence,
		TraitValue:      domainprofile.NewTraitValue(value),
		ConfidenceScore: confidence,
		Source:          source,
		LastUpdated:     time.Now().UTC(),
	}
}

func TestVaultRepoApply_PresentColumnsOnly(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewVaultRepo(tx, testutil.Logger(t))
	ctx := context.Background()
	userID := uuid.New()

	first := domainprofile.VaultWrite{
		VaultData:    datatypes.JSON(`{"profile":{"nickname":"ada","therapyGoals":"sleep"}}`),
		Nickname:     strptr("ada"),
		TherapyGoals: strptr("sleep"),
	}
	if err := repo.Apply(ctx, tx, userID, first); err != nil {
		t.Fatalf("first Apply: %v", err)
	}

	// Second write never mentions therapy goals; the column must survive.
	second := domainprofile.VaultWrite{
		VaultData: datatypes.JSON(`{"metadata":{"currentMood":"calm"}}`),
		CurrentMood: strptr("calm"),
	}
	if err := repo.Apply(ctx, tx, userID, second); err != nil {
		t.Fatalf("second Apply: %v", err)
	}

	got, err := repo.Get(ctx, tx, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("vault row missing")
	}
	if got.TherapyGoals == nil || *got.TherapyGoals != "sleep" {
		t.Fatalf("therapy_goals = %v, want preserved", got.TherapyGoals)
	}
	if got.CurrentMood == nil || *got.CurrentMood != "calm" {
		t.Fatalf("current_mood = %v", got.CurrentMood)
	}
	if string(got.VaultData) == string(first.VaultData) {
		t.Fatal("vault_data not replaced by second write")
	}
}

func TestVaultRepoGet_MissingRowIsNilNil(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewVaultRepo(tx, testutil.Logger(t))

	got, err := repo.Get(context.Background(), tx, uuid.New())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing row, got %+v", got)
	}
}

func TestVaultRepoListUserIDs(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewVaultRepo(tx, testutil.Logger(t))
	ctx := context.Background()

	a, b := uuid.New(), uuid.New()
	for _, id := range []uuid.UUID{a, b} {
		write := domainprofile.VaultWrite{VaultData: datatypes.JSON(`{}`)}
		if err := repo.Apply(ctx, tx, id, write); err != nil {
			t.Fatalf("Apply(%s): %v", id, err)
		}
	}

	ids, err := repo.ListUserIDs(ctx, tx)
	if err != nil {
		t.Fatalf("ListUserIDs: %v", err)
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[a] || !seen[b] {
		t.Fatalf("ids = %v, want both seeded users", ids)
	}
}

func TestTraitRepoUpsert_ConvergesOnConflict(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewTraitRepo(tx, testutil.Logger(t))
	ctx := context.Background()
	userID := uuid.New()

	write := func(value float64, confidence float64, source string) {
		t.Helper()
		if err := repo.Upsert(ctx, tx, seedTrait(userID, value, confidence, source)); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	write(0.5, 0.8, "app")
	write(0.54, 0.85, "dna_synthesis")

	rows, err := repo.ListByUser(ctx, tx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single converged row, got %d", len(rows))
	}
	got := rows[0]
	if v, ok := got.FloatValue(); !ok || v != 0.54 {
		t.Fatalf("value = %v", v)
	}
	if got.ConfidenceScore != 0.85 || got.Source != "dna_synthesis" {
		t.Fatalf("row = %+v", got)
	}
}

func TestTraitRepoGetByUserAndKey_MissingIsNilNil(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewTraitRepo(tx, testutil.Logger(t))

	got, err := repo.GetByUserAndKey(context.Background(), tx, uuid.New(), domainprofile.TraitConfidence)
	if err != nil {
		t.Fatalf("GetByUserAndKey: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing trait, got %+v", got)
	}
}

func TestTraitRepoDeleteAllForUser(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewTraitRepo(tx, testutil.Logger(t))
	ctx := context.Background()
	userID := uuid.New()

	if err := repo.Upsert(ctx, tx, seedTrait(userID, 0.5, 0.8, "app")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.DeleteAllForUser(ctx, tx, userID); err != nil {
		t.Fatalf("DeleteAllForUser: %v", err)
	}
	rows, err := repo.ListByUser(ctx, tx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}
