package services

import "context"

// Capability boundaries to the language model. The concrete OpenAI client
// satisfies all three; tests swap in fakes per concern.

type EmbeddingClient interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type TextAnalysisClient interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type GenerativeClient interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}
