package guard

import (
	"context"
	"sort"
	"strings"

	goSet "github.com/deckarep/golang-set"
	"github.com/ryanuber/go-glob"
)

const CompetitorCheckName = "CompetitorCheck"

var DefaultCompetitors = []string{"OpenAI", "Anthropic", "Google"}

// CompetitorCheck - rejects text mentioning any of the competitors, case-insensitively.
type CompetitorCheck struct {
	Competitors []string
}

func (v *CompetitorCheck) Name() string {
	return CompetitorCheckName
}

func (v *CompetitorCheck) Validate(ctx context.Context, text string) error {
	lower := strings.ToLower(text)
	found := goSet.NewSet()
	for _, competitor := range v.Competitors {
		name := strings.ToLower(strings.TrimSpace(competitor))
		if name == "" {
			continue
		}
		if glob.Glob("*"+name+"*", lower) {
			found.Add(competitor)
		}
	}
	if found.Cardinality() == 0 {
		return nil
	}

	names := make([]string, 0, found.Cardinality())
	for _, v := range found.ToSlice() {
		names = append(names, v.(string))
	}
	sort.Strings(names)
	return failure(CompetitorCheckName, "found mentions of %s", strings.Join(names, ", "))
}
