package classifier_test

import (
	"context"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/safetyserv/safetyserv/classifier"
	"github.com/safetyserv/safetyserv/config"
	"github.com/safetyserv/safetyserv/test"
	"github.com/stretchr/testify/assert"
)

func TestOpenAIModerationBackend(t *testing.T) {
	t.Parallel()

	apiKey := "TestOpenAIModerationBackend"
	srv := test.MakeOpenAIServer(t, apiKey)
	defer srv.Close()

	_, err := classifier.NewOpenAIModerationBackend("", "omni-moderation-latest")
	assert.EqualError(t, err, "api key not set")

	backend, err := classifier.NewOpenAIModerationBackend(apiKey, "omni-moderation-latest", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	assert.NoError(t, err)
	assert.Equal(t, classifier.OpenAIModerationBackendName, backend.Name())
	defer backend.Close()

	probs, err := backend.Classify(context.Background(), "Behavior: "+test.KeywordHarmful+"\nOutput: sure", 512)
	assert.NoError(t, err)
	assert.Len(t, probs, 2)
	assert.InDelta(t, test.HarmfulScore, probs[1], 1e-9)
	assert.InDelta(t, 1-test.HarmfulScore, probs[0], 1e-9)

	probs, err = backend.Classify(context.Background(), test.KeywordNeutral, 512)
	assert.NoError(t, err)
	assert.InDelta(t, 0.02, probs[1], 1e-9) // highest neutral category score

	probs, err = backend.Classify(context.Background(), test.KeywordIntentionalFail, 512)
	assert.Error(t, err)
	assert.Nil(t, probs)

	assert.Equal(t, 3, srv.ModerationRequests())
}

func TestOpenAIModerationBackendTruncatesInput(t *testing.T) {
	t.Parallel()

	apiKey := "TestOpenAIModerationBackendTruncatesInput"
	srv := test.MakeOpenAIServer(t, apiKey)
	defer srv.Close()

	backend, err := classifier.NewOpenAIModerationBackend(apiKey, "omni-moderation-latest", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	assert.NoError(t, err)

	// The harmful keyword is past the word budget, so the server never sees it
	probs, err := backend.Classify(context.Background(), "one two three "+test.KeywordHarmful, 3)
	assert.NoError(t, err)
	assert.Less(t, probs[1], 0.5)
}

func TestTruncateWords(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b", classifier.TruncateWords("a b c", 2))
	assert.Equal(t, "a  b c", classifier.TruncateWords("a  b c", 3)) // untouched when within budget
	assert.Equal(t, "a b c", classifier.TruncateWords("a b c", 0))
}

func TestNewProviderFromConfig(t *testing.T) {
	t.Parallel()

	cnf := &config.InstanceConfig{ClassifierBackend: config.BackendNone}
	_, err := classifier.NewProviderFromConfig(cnf).Acquire(context.Background())
	assert.ErrorIs(t, err, classifier.ErrNotConfigured)

	// Missing bundles fail lazily, on the first acquire
	cnf = &config.InstanceConfig{ClassifierBackend: config.BackendOnnx, OnnxBundleDir: t.TempDir()}
	p := classifier.NewProviderFromConfig(cnf)
	assert.IsType(t, &classifier.LazyProvider{}, p)
	_, err = p.Acquire(context.Background())
	assert.ErrorIs(t, err, classifier.ErrBackendUnavailable)

	apiKey := "TestNewProviderFromConfig"
	srv := test.MakeOpenAIServer(t, apiKey)
	defer srv.Close()
	cnf = &config.InstanceConfig{
		ClassifierBackend: config.BackendOpenAI,
		OpenAIApiKey:      apiKey,
		OpenAIApiUrl:      srv.URL,
		OpenAIModel:       "omni-moderation-latest",
	}
	b, err := classifier.NewProviderFromConfig(cnf).Acquire(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, classifier.OpenAIModerationBackendName, b.Name())
}
