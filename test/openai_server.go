package test

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/assert"
)

// Dev note: Usually we'd write a dedicated test for utilities like this, however the entire functionality is covered by
// other tests using it, so it should be fine.

// KeywordHarmful - Used by tests to always have the moderation API score the input as harmful.
const KeywordHarmful = "SS_HARMFUL"

// KeywordNeutral - Used by tests to always have the moderation API score the input as harmless.
const KeywordNeutral = "SS_NEUTRAL"

// KeywordIntentionalFail - Used by tests to always cause an error response from any endpoint.
const KeywordIntentionalFail = "SS_INTENTIONAL_FAIL"

// HarmfulScore - The Violence score the mock moderation API returns for KeywordHarmful inputs.
const HarmfulScore = 0.97

// MockEmbeddingDimensions - The length of every vector returned by the mock embeddings API.
const MockEmbeddingDimensions = 32

type MockChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type MockChatRequest struct {
	Model    string
	Messages []MockChatMessage
}

// OpenAIServer - A mock OpenAI-compatible API (moderations, chat completions, embeddings) for use in tests. Ollama
// exposes the same API shape, so this also stands in for a local LLM server.
type OpenAIServer struct {
	*httptest.Server

	t              *testing.T
	apiKey         string
	lock           sync.Mutex
	chatRequests   []*MockChatRequest
	moderationReqs int
	embeddingReqs  int
}

// MakeOpenAIServer - Creates a mock OpenAI API server for use in tests. Close it when done.
func MakeOpenAIServer(t *testing.T, apiKey string) *OpenAIServer {
	s := &OpenAIServer{t: t, apiKey: apiKey}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// ChatRequests - The chat completion requests received so far, in order.
func (s *OpenAIServer) ChatRequests() []*MockChatRequest {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]*MockChatRequest{}, s.chatRequests...)
}

func (s *OpenAIServer) ModerationRequests() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.moderationReqs
}

func (s *OpenAIServer) EmbeddingRequests() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.embeddingReqs
}

func (s *OpenAIServer) handle(w http.ResponseWriter, r *http.Request) {
	assert.Equal(s.t, "Bearer "+s.apiKey, r.Header.Get("Authorization"))
	assert.Equal(s.t, http.MethodPost, r.Method)

	// Dev note: these handlers are sensitive to changes in the OpenAI libraries. If they start sending different
	// request bodies, the tests using this server will suddenly start failing. Upgrade the libraries separately from
	// other changes to detect this more easily.

	b, err := io.ReadAll(r.Body)
	if err != nil {
		s.t.Fatal(err) // "should never happen"
	}

	// Clients differ on whether the base URL carries a /v1 prefix, so match on the suffix.
	switch {
	case strings.HasSuffix(r.URL.Path, "/moderations"):
		s.handleModeration(w, b)
	case strings.HasSuffix(r.URL.Path, "/chat/completions"):
		s.handleChat(w, b)
	case strings.HasSuffix(r.URL.Path, "/embeddings"):
		s.handleEmbeddings(w, b)
	default:
		s.t.Errorf("Unexpected request path: %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeIntentionalFail(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest) // 4xx to prevent automatic retries from happening
	// This is a mock OpenAI API error
	_, _ = w.Write([]byte(`{"error":{"code":"X-ERROR","message":"Intentional fail","param":"x","type":"x"}}`))
}

func writeJson(t *testing.T, w http.ResponseWriter, res any) {
	b, err := json.Marshal(res)
	assert.NoError(t, err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *OpenAIServer) handleModeration(w http.ResponseWriter, body []byte) {
	s.lock.Lock()
	s.moderationReqs++
	s.lock.Unlock()

	req := string(body)
	if strings.Contains(req, KeywordIntentionalFail) {
		writeIntentionalFail(w)
		return
	}

	moderation := openai.Moderation{
		Flagged:                   false,
		Categories:                openai.ModerationCategories{},
		CategoryScores:            openai.ModerationCategoryScores{Harassment: 0.01, Violence: 0.02},
		CategoryAppliedInputTypes: openai.ModerationCategoryAppliedInputTypes{},
	}
	if strings.Contains(req, KeywordHarmful) {
		moderation.Flagged = true
		moderation.Categories.Violence = true
		moderation.CategoryScores.Violence = HarmfulScore
		moderation.CategoryAppliedInputTypes.Violence = []string{"text"}
	}
	writeJson(s.t, w, openai.ModerationNewResponse{
		ID:      "1",
		Model:   openai.ModerationModelOmniModerationLatest,
		Results: []openai.Moderation{moderation},
	})
}

func decodeMessageContent(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	parts := make([]struct {
		Text string `json:"text"`
	}, 0)
	if err := json.Unmarshal(raw, &parts); err == nil {
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			texts = append(texts, p.Text)
		}
		return strings.Join(texts, "")
	}
	return ""
}

func (s *OpenAIServer) handleChat(w http.ResponseWriter, body []byte) {
	raw := struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}{}
	err := json.Unmarshal(body, &raw)
	assert.NoError(s.t, err)

	req := &MockChatRequest{Model: raw.Model, Messages: make([]MockChatMessage, 0, len(raw.Messages))}
	lastUser := ""
	for _, m := range raw.Messages {
		msg := MockChatMessage{Role: m.Role, Content: decodeMessageContent(m.Content)}
		req.Messages = append(req.Messages, msg)
		if msg.Role == "user" {
			lastUser = msg.Content
		}
	}

	s.lock.Lock()
	s.chatRequests = append(s.chatRequests, req)
	s.lock.Unlock()

	if strings.Contains(lastUser, KeywordIntentionalFail) {
		writeIntentionalFail(w)
		return
	}

	writeJson(s.t, w, map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   raw.Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message": map[string]any{
				"role":    "assistant",
				"content": MockChatReply(lastUser),
			},
		}},
		"usage": map[string]any{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
	})
}

// MockChatReply - The assistant reply the mock server produces for the given final user message.
func MockChatReply(userMessage string) string {
	return fmt.Sprintf("reply(%d): %s", len([]rune(userMessage)), firstLine(userMessage))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (s *OpenAIServer) handleEmbeddings(w http.ResponseWriter, body []byte) {
	s.lock.Lock()
	s.embeddingReqs++
	s.lock.Unlock()

	raw := struct {
		Model string          `json:"model"`
		Input json.RawMessage `json:"input"`
	}{}
	err := json.Unmarshal(body, &raw)
	assert.NoError(s.t, err)

	inputs := make([]string, 0)
	if err = json.Unmarshal(raw.Input, &inputs); err != nil {
		var single string
		err = json.Unmarshal(raw.Input, &single)
		assert.NoError(s.t, err)
		inputs = []string{single}
	}

	data := make([]map[string]any, 0, len(inputs))
	for i, input := range inputs {
		if strings.Contains(input, KeywordIntentionalFail) {
			writeIntentionalFail(w)
			return
		}
		data = append(data, map[string]any{
			"object":    "embedding",
			"index":     i,
			"embedding": MockEmbedding(input),
		})
	}
	writeJson(s.t, w, map[string]any{
		"object": "list",
		"model":  raw.Model,
		"data":   data,
		"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
	})
}

// MockEmbedding - A deterministic bag-of-words embedding: each lowercased word increments one hashed dimension. Texts
// sharing words therefore have a higher cosine similarity than texts which don't.
func MockEmbedding(text string) []float32 {
	vec := make([]float32, MockEmbeddingDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%MockEmbeddingDimensions]++
	}
	return vec
}
