package classifier

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// WordPieceTokenizer - a minimal BERT-compatible tokenizer: lower-casing, whitespace and punctuation
// splitting, then greedy longest-match-first word pieces.
type WordPieceTokenizer struct {
	vocab        map[string]int64
	lowerCase    bool
	clsID        int64
	sepID        int64
	padID        int64
	unkID        int64
	continuation string
}

// LoadWordPieceTokenizer builds the tokenizer from a vocab.txt file (one token per line, the line
// number being the token id).
func LoadWordPieceTokenizer(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimSpace(sc.Text())
		if token != "" {
			vocab[token] = idx
		}
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}
	return NewWordPieceTokenizer(vocab)
}

func NewWordPieceTokenizer(vocab map[string]int64) (*WordPieceTokenizer, error) {
	for _, special := range []string{"[CLS]", "[SEP]", "[PAD]", "[UNK]"} {
		if _, ok := vocab[special]; !ok {
			return nil, fmt.Errorf("vocab is missing special token %s", special)
		}
	}
	return &WordPieceTokenizer{
		vocab:        vocab,
		lowerCase:    true,
		continuation: "##",
		clsID:        vocab["[CLS]"],
		sepID:        vocab["[SEP]"],
		padID:        vocab["[PAD]"],
		unkID:        vocab["[UNK]"],
	}, nil
}

// Encode returns input ids and the attention mask, both exactly seqLen long. At most maxLength tokens
// (including [CLS] and [SEP]) are kept; anything after that is truncated.
func (t *WordPieceTokenizer) Encode(text string, maxLength int, seqLen int) ([]int64, []int64) {
	if seqLen <= 0 {
		return nil, nil
	}
	if maxLength <= 0 || maxLength > seqLen {
		maxLength = seqLen
	}
	if maxLength < 2 {
		maxLength = 2
	}

	tokens := []int64{t.clsID}
	for _, w := range basicTokenize(text, t.lowerCase) {
		pieces := t.wordPiece(w)
		room := maxLength - 1 - len(tokens)
		if room <= 0 {
			break
		}
		if len(pieces) > room {
			pieces = pieces[:room]
		}
		tokens = append(tokens, pieces...)
	}
	tokens = append(tokens, t.sepID)

	ids := make([]int64, seqLen)
	attn := make([]int64, seqLen)
	for i := range ids {
		if i < len(tokens) {
			ids[i] = tokens[i]
			attn[i] = 1
		} else {
			ids[i] = t.padID
		}
	}
	return ids, attn
}

func (t *WordPieceTokenizer) wordPiece(token string) []int64 {
	if id, ok := t.vocab[token]; ok {
		return []int64{id}
	}

	runes := []rune(token)
	var pieces []int64
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := false
		for end > start {
			sub := string(runes[start:end])
			if start > 0 {
				sub = t.continuation + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, id)
				start = end
				found = true
				break
			}
			end--
		}
		if !found {
			return []int64{t.unkID}
		}
	}
	return pieces
}

// basicTokenize splits on whitespace and isolates punctuation, like BERT's BasicTokenizer.
func basicTokenize(text string, lowerCase bool) []string {
	if lowerCase {
		text = strings.ToLower(text)
	}
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r) || unicode.IsControl(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}
