package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/barisgudul/therapy-backend/internal/data/repos"
	types "github.com/barisgudul/therapy-backend/internal/domain"
	pkgerrors "github.com/barisgudul/therapy-backend/internal/pkg/errors"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
)

// Prompt template names served by the registry.
const (
	PromptMemoryAnalysis = "memory_analysis"
	PromptDnaSynthesis   = "dna_synthesis"
)

// PromptCacheService is a cache-aside view over the prompt registry.
// Hits never touch the registry; a miss that finds nothing is fatal for
// the caller because prompts are load-bearing instruction text.
type PromptCacheService interface {
	GetActivePrompt(ctx context.Context, name string) (*types.Prompt, error)
}

type promptCacheEntry struct {
	prompt    *types.Prompt
	fetchedAt time.Time
}

type promptCacheService struct {
	log     *logger.Logger
	prompts repos.PromptRepo
	ttl     time.Duration

	mu      sync.RWMutex
	entries map[string]promptCacheEntry
}

// NewPromptCacheService builds a cache owned by the caller, not module
// state. ttl 0 means entries live for the process lifetime.
func NewPromptCacheService(log *logger.Logger, prompts repos.PromptRepo, ttl time.Duration) PromptCacheService {
	return &promptCacheService{
		log:     log.With("service", "PromptCacheService"),
		prompts: prompts,
		ttl:     ttl,
		entries: map[string]promptCacheEntry{},
	}
}

func (ps *promptCacheService) GetActivePrompt(ctx context.Context, name string) (*types.Prompt, error) {
	key := name + "@active"

	ps.mu.RLock()
	entry, ok := ps.entries[key]
	ps.mu.RUnlock()
	if ok && !ps.expired(entry) {
		return entry.prompt, nil
	}

	// Two concurrent misses may both fetch; they store equivalent rows,
	// so the race is benign and not worth a per-key flight guard.
	fetched, err := ps.prompts.GetActiveByName(ctx, nil, name)
	if err != nil {
		ps.log.Error("prompt fetch failed", "name", name, "error", err)
		return nil, pkgerrors.PromptUnavailable(name, err)
	}
	if fetched == nil {
		ps.log.Error("prompt missing from registry", "name", name)
		return nil, pkgerrors.PromptUnavailable(name, nil)
	}
	if len(fetched.Metadata) == 0 {
		fetched.Metadata = datatypes.JSON("{}")
	}

	ps.mu.Lock()
	ps.entries[key] = promptCacheEntry{prompt: fetched, fetchedAt: time.Now()}
	ps.mu.Unlock()

	return fetched, nil
}

func (ps *promptCacheService) expired(entry promptCacheEntry) bool {
	if ps.ttl <= 0 {
		return false
	}
	return time.Since(entry.fetchedAt) > ps.ttl
}
