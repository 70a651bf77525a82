package guard

import (
	"context"
	"strings"
	"unicode"

	goSet "github.com/deckarep/golang-set"
	"github.com/safetyserv/safetyserv/safety"
)

const ToxicLanguageName = "ToxicLanguage"

type ValidationMethod string

const (
	// MethodSentence scores every sentence on its own.
	MethodSentence ValidationMethod = "sentence"
	// MethodFull scores the whole text at once.
	MethodFull ValidationMethod = "full"
)

const DefaultToxicThreshold = 0.5

// ToxicLanguage - rejects text when any unit (sentence or the full text) scores at or above the threshold.
type ToxicLanguage struct {
	Evaluator *safety.Evaluator
	// Optional. Defaults to DefaultToxicThreshold.
	Threshold float64
	// Optional. Defaults to MethodSentence.
	Method ValidationMethod
}

func (v *ToxicLanguage) Name() string {
	return ToxicLanguageName
}

func (v *ToxicLanguage) Validate(ctx context.Context, text string) error {
	threshold := v.Threshold
	if threshold <= 0 {
		threshold = DefaultToxicThreshold
	}

	units := []string{strings.TrimSpace(text)}
	if v.Method != MethodFull {
		units = SplitSentences(text)
	}

	seen := goSet.NewSet()
	for _, unit := range units {
		if unit == "" || seen.Contains(unit) {
			continue
		}
		seen.Add(unit)

		score, strategy := v.Evaluator.ScoreText(ctx, unit)
		if score >= threshold {
			return failure(ToxicLanguageName, "toxic language detected (score %.3f via %s)", score, strategy)
		}
	}
	return nil
}

// SplitSentences - splits on sentence-final punctuation (kept with its sentence) and line breaks. Empty
// sentences are dropped.
func SplitSentences(text string) []string {
	sentences := make([]string, 0)
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			sentences = append(sentences, s)
		}
		cur.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		cur.WriteRune(r)
		if !isSentenceEnd(r) {
			continue
		}
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		// "3.5" and "..." stay together. Full-width marks end a sentence even without a following space.
		if next == 0 || unicode.IsSpace(next) || (isFullWidth(r) && !isSentenceEnd(next)) {
			flush()
		}
	}
	flush()
	return sentences
}

func isFullWidth(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}
