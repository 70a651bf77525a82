package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/safetyserv/safetyserv/metrics"
)

const OpenAIModerationBackendName = "openai_moderation"

// OpenAIModerationBackend - scores text with a hosted moderation model. The harm probability is the
// highest category score, reported as the two-class distribution [1-p, p].
type OpenAIModerationBackend struct {
	client openai.Client
	model  string
}

func NewOpenAIModerationBackend(apiKey string, model string, additionalClientOptions ...option.RequestOption) (*OpenAIModerationBackend, error) {
	if len(apiKey) == 0 {
		return nil, errors.New("api key not set")
	}
	if model == "" {
		model = string(openai.ModerationModelOmniModerationLatest)
	}
	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, additionalClientOptions...)
	return &OpenAIModerationBackend{
		client: openai.NewClient(options...),
		model:  model,
	}, nil
}

func (b *OpenAIModerationBackend) Name() string {
	return OpenAIModerationBackendName
}

func (b *OpenAIModerationBackend) Classify(ctx context.Context, text string, maxLength int) ([]float64, error) {
	t := metrics.StartBackendTimer(OpenAIModerationBackendName)
	defer t.ObserveDuration()

	res, err := b.client.Moderations.New(ctx, openai.ModerationNewParams{
		Model: openai.ModerationModel(b.model),
		Input: openai.ModerationNewParamsInputUnion{
			OfString: openai.String(TruncateWords(text, maxLength)),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(res.Results) == 0 {
		return nil, fmt.Errorf("moderation response %s has no results", res.ID)
	}

	harm := 0.0
	for _, r := range res.Results {
		harm = math.Max(harm, maxCategoryScore(r.CategoryScores))
	}
	harm = math.Min(math.Max(harm, 0), 1)
	return []float64{1 - harm, harm}, nil
}

func (b *OpenAIModerationBackend) Close() error {
	return nil
}

func maxCategoryScore(s openai.ModerationCategoryScores) float64 {
	scores := []float64{
		s.Harassment,
		s.HarassmentThreatening,
		s.Hate,
		s.HateThreatening,
		s.Illicit,
		s.IllicitViolent,
		s.SelfHarm,
		s.SelfHarmInstructions,
		s.SelfHarmIntent,
		s.Sexual,
		s.SexualMinors,
		s.Violence,
		s.ViolenceGraphic,
	}
	m := 0.0
	for _, v := range scores {
		m = math.Max(m, v)
	}
	return m
}

// TruncateWords - keeps at most n whitespace-separated words. Hosted models tokenize server side, so a
// word budget stands in for the token budget. n <= 0 disables truncation.
func TruncateWords(text string, n int) string {
	if n <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ")
}
