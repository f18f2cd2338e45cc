package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/barisgudul/therapy-backend/internal/data/repos"
	types "github.com/barisgudul/therapy-backend/internal/domain"
	"github.com/barisgudul/therapy-backend/internal/domain/profile"
	pkgerrors "github.com/barisgudul/therapy-backend/internal/pkg/errors"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
	"github.com/barisgudul/therapy-backend/internal/requestdata"
)

const (
	TraitModeAverage   = "average"
	TraitModeOverwrite = "overwrite"

	defaultTraitAlpha = 0.1

	traitConfidenceIncrement = 0.05
	traitConfidenceCap       = 0.95
	traitInitialConfidence   = 0.8
)

// TraitUpdateOptions tunes one UpdateTrait call. Zero value means
// "average with the default alpha".
type TraitUpdateOptions struct {
	Mode   string
	Alpha  float64
	Source string
}

// TraitService maintains the per-user, per-trait scalar profile. Numeric
// updates in average mode are blended with an exponential moving average
// so a single outlier observation cannot yank the profile around.
type TraitService interface {
	UpdateTrait(ctx context.Context, traitKey string, value any, opts *TraitUpdateOptions) error
	GetTraitsForUser(ctx context.Context, userID uuid.UUID) map[string]any
	ClearAllTraits(ctx context.Context, userID uuid.UUID) error
}

type traitService struct {
	log    *logger.Logger
	traits repos.TraitRepo
}

func NewTraitService(log *logger.Logger, traits repos.TraitRepo) TraitService {
	return &traitService{
		log:    log.With("service", "TraitService"),
		traits: traits,
	}
}

// UpdateTrait requires an authenticated user: a trait written under the
// wrong identity biases personalization downstream, so unlike vault
// writes this is a hard failure, not a silent skip.
func (ts *traitService) UpdateTrait(ctx context.Context, traitKey string, value any, opts *TraitUpdateOptions) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return pkgerrors.ErrAuthenticationRequired
	}
	if !profile.IsTraitKey(traitKey) {
		return fmt.Errorf("%w: unknown trait key %q", pkgerrors.ErrInvalidArgument, traitKey)
	}

	mode := TraitModeAverage
	alpha := defaultTraitAlpha
	source := "app"
	if opts != nil {
		if opts.Mode != "" {
			mode = opts.Mode
		}
		if opts.Alpha > 0 && opts.Alpha < 1 {
			alpha = opts.Alpha
		}
		if opts.Source != "" {
			source = opts.Source
		}
	}

	existing, err := ts.traits.GetByUserAndKey(ctx, nil, rd.UserID, traitKey)
	if err != nil {
		ts.log.Error("trait lookup failed", "user_id", rd.UserID, "trait_key", traitKey, "error", err)
		return err
	}

	incoming, incomingNumeric := numericValue(value)

	var stored any
	var confidence float64

	averaged := false
	if mode == TraitModeAverage && incomingNumeric && existing != nil {
		if baseline, ok := existing.FloatValue(); ok {
			blended := alpha*incoming + (1-alpha)*baseline
			stored = clamp01(blended)
			confidence = existing.ConfidenceScore + traitConfidenceIncrement
			if confidence > traitConfidenceCap {
				confidence = traitConfidenceCap
			}
			averaged = true
		}
	}
	if !averaged {
		stored = value
		if incomingNumeric && mode == TraitModeAverage {
			// Averaging was requested but there is no numeric baseline:
			// the value is written as-is, still clamped to the unit range.
			stored = clamp01(incoming)
		}
		confidence = traitInitialConfidence
	}

	row := &types.Trait{
		UserID:          rd.UserID,
		TraitKey:        traitKey,
		TraitValue:      profile.NewTraitValue(stored),
		ConfidenceScore: confidence,
		Source:          source,
		LastUpdated:     time.Now().UTC(),
	}
	if err := ts.traits.Upsert(ctx, nil, row); err != nil {
		ts.log.Error("trait write failed", "user_id", rd.UserID, "trait_key", traitKey, "error", err)
		return err
	}
	return nil
}

// GetTraitsForUser returns the flat {trait_key: value} view, or nil when
// the user has no traits or the read fails. Traits are an enrichment
// signal, so read failures are logged, not surfaced.
func (ts *traitService) GetTraitsForUser(ctx context.Context, userID uuid.UUID) map[string]any {
	rows, err := ts.traits.ListByUser(ctx, nil, userID)
	if err != nil {
		ts.log.Error("trait read failed", "user_id", userID, "error", err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	out := make(map[string]any, len(rows))
	for _, row := range rows {
		out[row.TraitKey] = row.ScalarValue()
	}
	return out
}

func (ts *traitService) ClearAllTraits(ctx context.Context, userID uuid.UUID) error {
	if err := ts.traits.DeleteAllForUser(ctx, nil, userID); err != nil {
		ts.log.Error("trait clear failed", "user_id", userID, "error", err)
		return err
	}
	return nil
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
