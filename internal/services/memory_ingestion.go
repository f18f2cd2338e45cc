package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/barisgudul/therapy-backend/internal/data/repos"
	types "github.com/barisgudul/therapy-backend/internal/domain"
	pkgerrors "github.com/barisgudul/therapy-backend/internal/pkg/errors"
	"github.com/barisgudul/therapy-backend/internal/pkg/logger"
)

// MemoryIngestInput is one user-generated text event to record.
type MemoryIngestInput struct {
	SourceEventID string     `json:"source_event_id"`
	UserID        uuid.UUID  `json:"user_id"`
	Content       string     `json:"content"`
	EventTime     *time.Time `json:"event_time,omitempty"`
	Mood          *string    `json:"mood,omitempty"`
	EventType     *string    `json:"event_type,omitempty"`
	TransactionID *string    `json:"transaction_id,omitempty"`
}

// MemoryIngestionService turns one text event into a cognitive memory
// row: structured analysis, three embeddings, one idempotent insert.
// Enrichment stages degrade independently; only the insert can fail the
// call, and a duplicate insert counts as success.
type MemoryIngestionService interface {
	Ingest(ctx context.Context, input MemoryIngestInput) error
}

type memoryIngestionService struct {
	log      *logger.Logger
	memories repos.CognitiveMemoryRepo
	sysLogs  repos.SystemLogRepo
	prompts  PromptCacheService
	analysis TextAnalysisClient
	embedder EmbeddingClient
}

func NewMemoryIngestionService(
	log *logger.Logger,
	memories repos.CognitiveMemoryRepo,
	sysLogs repos.SystemLogRepo,
	prompts PromptCacheService,
	analysis TextAnalysisClient,
	embedder EmbeddingClient,
) MemoryIngestionService {
	return &memoryIngestionService{
		log:      log.With("service", "MemoryIngestionService"),
		memories: memories,
		sysLogs:  sysLogs,
		prompts:  prompts,
		analysis: analysis,
		embedder: embedder,
	}
}

// enrichmentResult keeps "the call failed" distinguishable from "the
// model returned nothing for this field". Both persist as null, but only
// the former is an error worth logging.
type enrichmentResult struct {
	data datatypes.JSON
	err  error
}

func (r enrichmentResult) jsonOrEmpty() string {
	if len(r.data) == 0 {
		return "{}"
	}
	return string(r.data)
}

func (ms *memoryIngestionService) Ingest(ctx context.Context, input MemoryIngestInput) error {
	if strings.TrimSpace(input.SourceEventID) == "" {
		return fmt.Errorf("%w: source_event_id required", pkgerrors.ErrInvalidArgument)
	}
	if input.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id required", pkgerrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(input.Content) == "" {
		return fmt.Errorf("%w: content required", pkgerrors.ErrInvalidArgument)
	}
	eventTime := time.Now().UTC()
	if input.EventTime != nil {
		eventTime = input.EventTime.UTC()
	}
	ingestLog := ms.log.With("source_event_id", input.SourceEventID, "user_id", input.UserID)

	// Missing instruction text stops the pipeline before any work: an
	// analysis run with the wrong prompt is worse than no analysis.
	template, err := ms.prompts.GetActivePrompt(ctx, PromptMemoryAnalysis)
	if err != nil {
		return err
	}

	sentiment, stylometry := ms.analyzeContent(ctx, ingestLog, template.Content, input.Content)

	row := &types.CognitiveMemory{
		UserID:         input.UserID,
		SourceEventID:  input.SourceEventID,
		Content:        input.Content,
		EventTime:      eventTime,
		SentimentData:  sentiment.data,
		StylometryData: stylometry.data,
		TransactionID:  input.TransactionID,
		Mood:           input.Mood,
		EventType:      input.EventType,
	}

	// One batched call for all three vectors. On failure the memory is
	// still recorded, just without the embedding texture.
	vectors, embErr := ms.embedder.Embed(ctx, []string{
		input.Content,
		sentiment.jsonOrEmpty(),
		stylometry.jsonOrEmpty(),
	})
	if embErr != nil {
		ingestLog.Warn("embedding stage failed, persisting memory without vectors", "error", embErr)
	} else if len(vectors) != 3 {
		ingestLog.Warn("embedding stage returned unexpected batch size, persisting memory without vectors", "count", len(vectors))
	} else {
		row.ContentEmbedding = encodeVector(vectors[0])
		row.SentimentEmbedding = encodeVector(vectors[1])
		row.StylometryEmbedding = encodeVector(vectors[2])
	}

	if err := ms.memories.Insert(ctx, nil, row); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			// At-least-once delivery replayed the event. The desired end
			// state already holds, so this converges as success.
			ingestLog.Warn("memory already ingested for event, treating as success")
			return nil
		}
		ingestLog.Error("memory insert failed", "error", err)
		ms.appendSystemLog(ctx, input, err)
		return err
	}
	return nil
}

// analyzeContent runs the linguistic analysis stage. Any failure -- call,
// decode, shape -- degrades both fields to null and the pipeline moves on.
func (ms *memoryIngestionService) analyzeContent(ctx context.Context, ingestLog *logger.Logger, instruction, content string) (enrichmentResult, enrichmentResult) {
	raw, err := ms.analysis.GenerateText(ctx, instruction, content)
	if err != nil {
		ingestLog.Warn("analysis stage failed, persisting memory without analysis", "error", err)
		return enrichmentResult{err: err}, enrichmentResult{err: err}
	}

	parsed, err := decodeModelObject(raw)
	if err != nil {
		ingestLog.Warn("analysis stage returned unparsable JSON, persisting memory without analysis", "error", err)
		return enrichmentResult{err: err}, enrichmentResult{err: err}
	}

	return extractAnalysisField(parsed, "sentiment_analysis"),
		extractAnalysisField(parsed, "stylometry_analysis")
}

func extractAnalysisField(parsed map[string]any, key string) enrichmentResult {
	val, ok := parsed[key]
	if !ok || val == nil {
		// Legitimately absent, not a failure.
		return enrichmentResult{}
	}
	encoded, err := json.Marshal(val)
	if err != nil {
		return enrichmentResult{err: err}
	}
	return enrichmentResult{data: datatypes.JSON(encoded)}
}

// decodeModelObject tolerates the usual model framing around a JSON
// object: code fences, leading prose, trailing commentary.
func decodeModelObject(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func encodeVector(vec []float32) datatypes.JSON {
	if vec == nil {
		return nil
	}
	encoded, err := json.Marshal(vec)
	if err != nil {
		return nil
	}
	return datatypes.JSON(encoded)
}

// appendSystemLog records a fatal persistence failure in the durable sink
// before it is surfaced. Best effort: the sink must never mask the
// original error.
func (ms *memoryIngestionService) appendSystemLog(ctx context.Context, input MemoryIngestInput, cause error) {
	payload, err := json.Marshal(input)
	if err != nil {
		payload = []byte("{}")
	}
	entry := &types.SystemLog{
		FunctionName: "memory_ingestion",
		LogLevel:     "error",
		Message:      cause.Error(),
		Payload:      datatypes.JSON(payload),
	}
	if sinkErr := ms.sysLogs.Append(ctx, nil, entry); sinkErr != nil {
		ms.log.Error("system log append failed", "error", sinkErr)
	}
}
