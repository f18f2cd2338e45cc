package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/barisgudul/therapy-backend/internal/data/repos"
	types "github.com/barisgudul/therapy-backend/internal/domain"
	"github.com/barisgudul/therapy-backend/internal/domain/profile"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
	"github.com/barisgudul/therapy-backend/internal/requestdata"
)

const (
	dnaRecentMemoryLimit  = 25
	dnaMemoryExcerptLimit = 280
	dnaUserConcurrency    = 8

	// Top-level vault_data key the synthesized summary lands under.
	dnaVaultKey = "dnaAnalysis"
)

var errSkipUser = errors.New("skip user")

// DnaSynthesisSummary is the per-run outcome of the batch job.
type DnaSynthesisSummary struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// DnaSynthesisService rebuilds each user's personality estimate from
// their merged vault and recent memories. Users are processed in
// isolation: one malformed model response or failing user never aborts
// the rest of the batch.
type DnaSynthesisService interface {
	RunForUser(ctx context.Context, userID uuid.UUID) error
	RunAll(ctx context.Context) (DnaSynthesisSummary, error)
}

type dnaSynthesisService struct {
	log      *logger.Logger
	vaultSvc VaultService
	traitSvc TraitService
	vaults   repos.VaultRepo
	memories repos.CognitiveMemoryRepo
	prompts  PromptCacheService
	ai       GenerativeClient
}

func NewDnaSynthesisService(
	log *logger.Logger,
	vaultSvc VaultService,
	traitSvc TraitService,
	vaults repos.VaultRepo,
	memories repos.CognitiveMemoryRepo,
	prompts PromptCacheService,
	ai GenerativeClient,
) DnaSynthesisService {
	return &dnaSynthesisService{
		log:      log.With("service", "DnaSynthesisService"),
		vaultSvc: vaultSvc,
		traitSvc: traitSvc,
		vaults:   vaults,
		memories: memories,
		prompts:  prompts,
		ai:       ai,
	}
}

func (ds *dnaSynthesisService) RunAll(ctx context.Context) (DnaSynthesisSummary, error) {
	userIDs, err := ds.vaults.ListUserIDs(ctx, nil)
	if err != nil {
		ds.log.Error("user listing failed", "error", err)
		return DnaSynthesisSummary{}, err
	}

	var (
		mu      sync.Mutex
		summary DnaSynthesisSummary
	)
	summary.Processed = len(userIDs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dnaUserConcurrency)
	for _, userID := range userIDs {
		g.Go(func() error {
			err := ds.synthesizeUser(gctx, userID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				summary.Succeeded++
			case errors.Is(err, errSkipUser):
				summary.Skipped++
			default:
				ds.log.Error("dna synthesis failed for user", "user_id", userID, "error", err)
				summary.Failed++
			}
			// Per-user failures are absorbed here so the group keeps going.
			return nil
		})
	}
	_ = g.Wait()

	ds.log.Info("dna synthesis run finished",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (ds *dnaSynthesisService) RunForUser(ctx context.Context, userID uuid.UUID) error {
	err := ds.synthesizeUser(ctx, userID)
	if errors.Is(err, errSkipUser) {
		ds.log.Warn("dna synthesis skipped for user", "user_id", userID, "reason", err)
		return nil
	}
	return err
}

func (ds *dnaSynthesisService) synthesizeUser(ctx context.Context, userID uuid.UUID) error {
	userLog := ds.log.With("user_id", userID)

	vaultDoc, err := ds.vaultSvc.GetMergedVault(ctx, userID)
	if err != nil {
		return fmt.Errorf("gather vault: %w", err)
	}
	recent, err := ds.memories.ListRecentByUser(ctx, nil, userID, dnaRecentMemoryLimit)
	if err != nil {
		return fmt.Errorf("gather memories: %w", err)
	}
	if len(recent) == 0 {
		return fmt.Errorf("%w: no memories to synthesize from", errSkipUser)
	}

	template, err := ds.prompts.GetActivePrompt(ctx, PromptDnaSynthesis)
	if err != nil {
		return err
	}

	traits := ds.traitSvc.GetTraitsForUser(ctx, userID)
	userMsg := buildSynthesisMessage(vaultDoc, traits, recent)

	raw, err := ds.ai.GenerateJSON(ctx, template.Content, userMsg, "dna_synthesis", dnaSynthesisSchema())
	if err != nil {
		return fmt.Errorf("model call: %w", err)
	}

	result, err := validateSynthesisResponse(raw)
	if err != nil {
		userLog.Warn("dna synthesis response failed validation, skipping user", "error", err)
		return fmt.Errorf("%w: %v", errSkipUser, err)
	}

	// The job writes on the user's behalf.
	writeCtx := requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: userID})

	// Trait and summary writes are independent: neither blocks the other,
	// and failures are logged per field rather than aggregated.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for key, value := range result.traits {
			err := ds.traitSvc.UpdateTrait(writeCtx, key, value, &TraitUpdateOptions{
				Mode:   TraitModeAverage,
				Source: "dna_synthesis",
			})
			if err != nil {
				userLog.Error("trait write failed", "trait_key", key, "error", err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		if err := ds.writeSummary(writeCtx, vaultDoc, result.summary); err != nil {
			userLog.Error("vault summary write failed", "error", err)
		}
	}()
	wg.Wait()

	return nil
}

func (ds *dnaSynthesisService) writeSummary(ctx context.Context, doc *types.VaultDocument, summary string) error {
	update := *doc
	if update.Extra == nil {
		update.Extra = map[string]json.RawMessage{}
	}
	encoded, err := json.Marshal(map[string]any{
		"summary":     summary,
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	update.Extra[dnaVaultKey] = encoded
	return ds.vaultSvc.ApplyVaultUpdate(ctx, update)
}

type synthesisResult struct {
	traits  map[string]float64
	summary string
}

var synthesisTraitKeys = []string{
	profile.TraitConfidence,
	profile.TraitAnxietyLevel,
	profile.TraitMotivation,
	profile.TraitOpenness,
	profile.TraitNeuroticism,
}

func validateSynthesisResponse(raw map[string]any) (synthesisResult, error) {
	result := synthesisResult{traits: map[string]float64{}}
	for _, key := range synthesisTraitKeys {
		val, ok := raw[key]
		if !ok {
			return synthesisResult{}, fmt.Errorf("missing trait %q", key)
		}
		num, ok := val.(float64)
		if !ok {
			return synthesisResult{}, fmt.Errorf("trait %q is not a number", key)
		}
		if num < 0 || num > 1 {
			return synthesisResult{}, fmt.Errorf("trait %q out of range: %v", key, num)
		}
		result.traits[key] = num
	}

	summary, ok := raw["summary"].(string)
	if !ok || strings.TrimSpace(summary) == "" {
		return synthesisResult{}, errors.New("missing summary")
	}
	result.summary = strings.TrimSpace(summary)
	return result, nil
}

func buildSynthesisMessage(doc *types.VaultDocument, traits map[string]any, recent []*types.CognitiveMemory) string {
	var b strings.Builder

	b.WriteString("PROFILE:\n")
	if doc != nil && doc.Profile != nil {
		if doc.Profile.Nickname != nil {
			fmt.Fprintf(&b, "nickname: %v\n", doc.Profile.Nickname)
		}
		if doc.Profile.TherapyGoals != nil {
			fmt.Fprintf(&b, "therapy goals: %v\n", doc.Profile.TherapyGoals)
		}
	}

	if len(traits) > 0 {
		b.WriteString("\nCURRENT TRAITS:\n")
		encoded, err := json.Marshal(traits)
		if err == nil {
			b.Write(encoded)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nRECENT MEMORIES (newest first):\n")
	for _, mem := range recent {
		excerpt := mem.Content
		if len(excerpt) > dnaMemoryExcerptLimit {
			excerpt = excerpt[:dnaMemoryExcerptLimit]
		}
		eventType := "entry"
		if mem.EventType != nil && *mem.EventType != "" {
			eventType = *mem.EventType
		}
		fmt.Fprintf(&b, "- [%s] %s\n", eventType, excerpt)
	}
	return b.String()
}

func dnaSynthesisSchema() map[string]any {
	traitProp := map[string]any{"type": "number", "minimum": 0, "maximum": 1}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			profile.TraitConfidence:   traitProp,
			profile.TraitAnxietyLevel: traitProp,
			profile.TraitMotivation:   traitProp,
			profile.TraitOpenness:     traitProp,
			profile.TraitNeuroticism:  traitProp,
			"summary":                 map[string]any{"type": "string"},
		},
		"required": []string{
			profile.TraitConfidence,
			profile.TraitAnxietyLevel,
			profile.TraitMotivation,
			profile.TraitOpenness,
			profile.TraitNeuroticism,
			"summary",
		},
		"additionalProperties": false,
	}
}
