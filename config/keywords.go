package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeywordLists - overrides for the keyword heuristic, loaded from a YAML file such as:
//
//	dangerous_keywords: [bomb, explosive]
//	refusal_patterns: [cannot, "will not"]
//
// Empty lists mean "use the built-in list".
type KeywordLists struct {
	DangerousKeywords []string `yaml:"dangerous_keywords"`
	RefusalPatterns   []string `yaml:"refusal_patterns"`
}

func LoadKeywordLists(path string) (*KeywordLists, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("keywords file path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords file: %w", err)
	}
	lists := &KeywordLists{}
	if err = yaml.Unmarshal(b, lists); err != nil {
		return nil, fmt.Errorf("parse keywords file %s: %w", path, err)
	}
	lists.DangerousKeywords = normalizeList(lists.DangerousKeywords)
	lists.RefusalPatterns = normalizeList(lists.RefusalPatterns)
	return lists, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
