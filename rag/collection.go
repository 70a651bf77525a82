package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	cache "github.com/Code-Hex/go-generics-cache"
	"github.com/safetyserv/safetyserv/llm"
	"github.com/safetyserv/safetyserv/metrics/dbmetrics"
	"github.com/safetyserv/safetyserv/storage"
)

const DefaultResults = 2

const queryCacheTtl = 10 * time.Minute

var ErrDuplicateId = errors.New("duplicate document id")

type Match struct {
	Id         string  `json:"id"`
	Document   string  `json:"document"`
	Similarity float64 `json:"similarity"`
}

// Collection - an in-memory set of embedded documents, ranked by cosine similarity with a linear scan. When created
// with storage, added documents are persisted and reloaded by LoadCollection.
type Collection struct {
	name     string
	embedder llm.Embedder
	storage  storage.PersistentStorage

	lock      sync.RWMutex
	ids       []string
	documents []string
	vectors   [][]float32
	index     map[string]int

	queryCache *cache.Cache[string, []float32]
}

func NewCollection(name string, embedder llm.Embedder) *Collection {
	return &Collection{
		name:       name,
		embedder:   embedder,
		ids:        make([]string, 0),
		documents:  make([]string, 0),
		vectors:    make([][]float32, 0),
		index:      make(map[string]int),
		queryCache: cache.New[string, []float32](cache.WithJanitorInterval[string, []float32](1 * time.Minute)),
	}
}

// LoadCollection - a collection backed by storage, populated with whatever was previously persisted under the name.
func LoadCollection(ctx context.Context, name string, embedder llm.Embedder, store storage.PersistentStorage) (*Collection, error) {
	c := NewCollection(name, embedder)
	c.storage = store

	docs, err := store.GetDocuments(ctx, name)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		c.append(doc.DocumentId, doc.Content, doc.Embedding)
	}
	log.Printf("[%s] Loaded %d documents", name, len(docs))
	return c, nil
}

func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) Count() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.ids)
}

// Add - embeds and stores the documents. Ids must be unique, both within the call and in the collection.
func (c *Collection) Add(ctx context.Context, ids []string, documents []string) error {
	if len(ids) != len(documents) {
		return fmt.Errorf("got %d ids for %d documents", len(ids), len(documents))
	}
	if len(ids) == 0 {
		return nil
	}

	c.lock.RLock()
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		_, exists := c.index[id]
		if exists || seen[id] {
			c.lock.RUnlock()
			return fmt.Errorf("%w: %s", ErrDuplicateId, id)
		}
		seen[id] = true
	}
	c.lock.RUnlock()

	vectors, err := c.embedder.EmbedTexts(ctx, documents)
	if err != nil {
		return err
	}
	if len(vectors) != len(documents) {
		return fmt.Errorf("expected %d embeddings, got %d", len(documents), len(vectors))
	}

	if c.storage != nil {
		stored := make([]*storage.StoredDocument, len(ids))
		for i, id := range ids {
			stored[i] = &storage.StoredDocument{
				Collection: c.name,
				DocumentId: id,
				Content:    documents[i],
				Embedding:  vectors[i],
			}
		}
		if err = c.storage.UpsertDocuments(ctx, stored); err != nil {
			return err
		}
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	for i, id := range ids {
		if _, exists := c.index[id]; exists { // lost a race with a concurrent Add
			return fmt.Errorf("%w: %s", ErrDuplicateId, id)
		}
		c.ids = append(c.ids, id)
		c.documents = append(c.documents, documents[i])
		c.vectors = append(c.vectors, vectors[i])
		c.index[id] = len(c.ids) - 1
	}
	return nil
}

func (c *Collection) append(id string, document string, vector []float32) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if i, exists := c.index[id]; exists {
		c.documents[i] = document
		c.vectors[i] = vector
		return
	}
	c.ids = append(c.ids, id)
	c.documents = append(c.documents, document)
	c.vectors = append(c.vectors, vector)
	c.index[id] = len(c.ids) - 1
}

// Query - the n documents most similar to the text, best first. n <= 0 uses DefaultResults.
func (c *Collection) Query(ctx context.Context, text string, n int) ([]Match, error) {
	if n <= 0 {
		n = DefaultResults
	}

	vector, err := c.embedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	c.lock.RLock()
	matches := make([]Match, len(c.ids))
	for i, id := range c.ids {
		matches[i] = Match{
			Id:         id,
			Document:   c.documents[i],
			Similarity: Cosine(vector, c.vectors[i]),
		}
	}
	c.lock.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

func (c *Collection) embedQuery(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := c.queryCache.Get(text); ok {
		dbmetrics.RecordEmbeddingCacheRequest(c.name, true)
		return vector, nil
	}
	dbmetrics.RecordEmbeddingCacheRequest(c.name, false)

	vectors, err := c.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vectors))
	}
	c.queryCache.Set(text, vectors[0], cache.WithExpiration(queryCacheTtl))
	return vectors[0], nil
}

// Cosine - the cosine similarity of two vectors. Mismatched lengths and zero vectors have similarity 0.
func Cosine(a []float32, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
