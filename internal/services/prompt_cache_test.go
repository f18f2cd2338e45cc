package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	types "github.com/barisgudul/therapy-backend/internal/domain"
	pkgerrors "github.com/barisgudul/therapy-backend/internal/pkg/errors"
)

type fakePromptRepo struct {
	prompts map[string]*types.Prompt
	fetches int
	err     error
}

func (f *fakePromptRepo) GetActiveByName(_ context.Context, _ *gorm.DB, name string) (*types.Prompt, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.prompts[name], nil
}

func (f *fakePromptRepo) Create(_ context.Context, _ *gorm.DB, p *types.Prompt) error {
	if f.prompts == nil {
		f.prompts = map[string]*types.Prompt{}
	}
	f.prompts[p.Name] = p
	return nil
}

func TestGetActivePrompt_SecondReadServedFromCache(t *testing.T) {
	repo := &fakePromptRepo{prompts: map[string]*types.Prompt{
		PromptMemoryAnalysis: {Name: PromptMemoryAnalysis, Content: "analyze this", Version: 3},
	}}
	svc := NewPromptCacheService(testLogger(t), repo, 0)

	first, err := svc.GetActivePrompt(context.Background(), PromptMemoryAnalysis)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := svc.GetActivePrompt(context.Background(), PromptMemoryAnalysis)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if repo.fetches != 1 {
		t.Fatalf("registry fetched %d times, want 1", repo.fetches)
	}
	if first.Content != "analyze this" || second.Content != first.Content {
		t.Fatalf("cached prompt diverged: %q vs %q", first.Content, second.Content)
	}
}

func TestGetActivePrompt_MissingPromptIsFatal(t *testing.T) {
	svc := NewPromptCacheService(testLogger(t), &fakePromptRepo{}, 0)

	_, err := svc.GetActivePrompt(context.Background(), PromptDnaSynthesis)
	if !errors.Is(err, pkgerrors.ErrPromptUnavailable) {
		t.Fatalf("expected ErrPromptUnavailable, got %v", err)
	}
}

func TestGetActivePrompt_RegistryErrorIsWrapped(t *testing.T) {
	repo := &fakePromptRepo{err: errors.New("registry down")}
	svc := NewPromptCacheService(testLogger(t), repo, 0)

	_, err := svc.GetActivePrompt(context.Background(), PromptMemoryAnalysis)
	if !errors.Is(err, pkgerrors.ErrPromptUnavailable) {
		t.Fatalf("expected ErrPromptUnavailable, got %v", err)
	}
	if !errors.Is(err, repo.err) {
		t.Fatalf("cause not preserved: %v", err)
	}
}

func TestGetActivePrompt_NormalizesNilMetadata(t *testing.T) {
	repo := &fakePromptRepo{prompts: map[string]*types.Prompt{
		PromptDnaSynthesis: {Name: PromptDnaSynthesis, Content: "synthesize"},
	}}
	svc := NewPromptCacheService(testLogger(t), repo, 0)

	got, err := svc.GetActivePrompt(context.Background(), PromptDnaSynthesis)
	if err != nil {
		t.Fatalf("GetActivePrompt: %v", err)
	}
	if string(got.Metadata) != "{}" {
		t.Fatalf("metadata = %q, want {}", string(got.Metadata))
	}
}

func TestGetActivePrompt_ExpiredEntryRefetches(t *testing.T) {
	repo := &fakePromptRepo{prompts: map[string]*types.Prompt{
		PromptMemoryAnalysis: {Name: PromptMemoryAnalysis, Content: "v1"},
	}}
	svc := NewPromptCacheService(testLogger(t), repo, time.Nanosecond)

	if _, err := svc.GetActivePrompt(context.Background(), PromptMemoryAnalysis); err != nil {
		t.Fatalf("first read: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := svc.GetActivePrompt(context.Background(), PromptMemoryAnalysis); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if repo.fetches != 2 {
		t.Fatalf("registry fetched %d times, want 2 after expiry", repo.fetches)
	}
}
