package classifier

import (
	"context"
	"log"

	"github.com/openai/openai-go/v3/option"
	"github.com/safetyserv/safetyserv/config"
)

// NewProviderFromConfig - builds the provider for the configured backend kind. Construction of the
// backend itself is deferred to the first Acquire.
func NewProviderFromConfig(cnf *config.InstanceConfig) Provider {
	switch cnf.ClassifierBackend {
	case config.BackendOnnx:
		return NewLazyProvider(OnnxBackendName, func(ctx context.Context) (Backend, error) {
			return LoadOnnxBackend(cnf.OnnxBundleDir, cnf.OnnxLibraryPath)
		})
	case config.BackendOpenAI:
		return NewLazyProvider(OpenAIModerationBackendName, func(ctx context.Context) (Backend, error) {
			var opts []option.RequestOption
			if cnf.OpenAIApiUrl != "" {
				opts = append(opts, option.WithBaseURL(cnf.OpenAIApiUrl))
			}
			return NewOpenAIModerationBackend(cnf.OpenAIApiKey, cnf.OpenAIModel, opts...)
		})
	default:
		log.Printf("No classifier backend configured (%s); keyword fallback only", cnf.ClassifierBackend)
		return &UnavailableProvider{}
	}
}
