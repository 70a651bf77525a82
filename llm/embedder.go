package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/safetyserv/safetyserv/config"
	"github.com/sashabaranov/go-openai"
)

type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbedder - an Embedder backed by an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

func NewEmbedder(cnf *config.InstanceConfig) *OpenAIEmbedder {
	clientConfig := openai.DefaultConfig(cnf.LlmApiKey)
	clientConfig.BaseURL = strings.TrimSuffix(cnf.LlmApiUrl, "/")
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cnf.LlmEmbeddingModel,
	}
}

func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return make([][]float32, 0), nil
	}

	res, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, err
	}
	if len(res.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(res.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range res.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
