package prompt

import (
	"context"
	"testing"

	"github.com/barisgudul/therapy-backend/internal/data/repos/testutil"
	types "github.com/barisgudul/therapy-backend/internal/domain"
)

func TestGetActiveByName_PicksHighestActiveVersion(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewPromptRepo(tx, testutil.Logger(t))
	ctx := context.Background()

	rows := []*types.Prompt{
		{Name: "memory_analysis", Content: "v1", Version: 1, Active: true},
		{Name: "memory_analysis", Content: "v2", Version: 2, Active: true},
		{Name: "memory_analysis", Content: "v3 retired", Version: 3, Active: false},
	}
	for _, row := range rows {
		if err := repo.Create(ctx, tx, row); err != nil {
			t.Fatalf("Create v%d: %v", row.Version, err)
		}
	}

	got, err := repo.GetActiveByName(ctx, tx, "memory_analysis")
	if err != nil {
		t.Fatalf("GetActiveByName: %v", err)
	}
	if got == nil {
		t.Fatal("no prompt returned")
	}
	if got.Version != 2 || got.Content != "v2" {
		t.Fatalf("got version %d (%q), want active v2", got.Version, got.Content)
	}
}

func TestGetActiveByName_UnknownNameIsNilNil(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewPromptRepo(tx, testutil.Logger(t))

	got, err := repo.GetActiveByName(context.Background(), tx, "no_such_prompt")
	if err != nil {
		t.Fatalf("GetActiveByName: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown name, got %+v", got)
	}
}
