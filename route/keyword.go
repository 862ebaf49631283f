package route

import (
	"context"
	"strings"
	"unicode"

	"github.com/hupe1980/readaloud/core"
)

// KeywordClassifier routes on the keyword phrases candidates advertise.
//
// Input and keywords are lower-cased, split into words and singularized, so
// "sight words" matches the keyword "sight word". Each candidate scores one
// point per matched phrase. The single highest score wins; a tie or a zero
// score is no match.
type KeywordClassifier struct {
	extra map[string][]string
}

// KeywordOptions configures a KeywordClassifier.
type KeywordOptions struct {
	// Extra adds phrases per candidate name on top of the candidate's own keywords.
	Extra map[string][]string
}

// NewKeywordClassifier creates a deterministic classifier.
func NewKeywordClassifier(optFns ...func(o *KeywordOptions)) *KeywordClassifier {
	opts := KeywordOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &KeywordClassifier{extra: opts.Extra}
}

// Classify implements Classifier. History is ignored.
func (c *KeywordClassifier) Classify(ctx context.Context, input string, _ []core.Event, candidates []core.HandoffTarget) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	words := Tokenize(input)
	if len(words) == 0 {
		return "", false, nil
	}

	var (
		best  string
		score int
		tie   bool
	)

	for _, cand := range candidates {
		s := c.Score(words, cand)

		switch {
		case s == 0 || s < score:
		case s > score:
			best, score, tie = cand.Name, s, false
		default:
			tie = true
		}
	}

	if score == 0 || tie {
		return "", false, nil
	}

	return best, true, nil
}

// Score counts the keyword phrases of cand found in words.
func (c *KeywordClassifier) Score(words []string, cand core.HandoffTarget) int {
	phrases := cand.Keywords
	if extra := c.extra[cand.Name]; len(extra) > 0 {
		phrases = append(append([]string{}, phrases...), extra...)
	}

	seen := map[string]bool{}
	score := 0

	for _, phrase := range phrases {
		tokens := Tokenize(phrase)
		key := strings.Join(tokens, " ")

		if len(tokens) == 0 || seen[key] {
			continue
		}

		seen[key] = true

		if containsSeq(words, tokens) {
			score++
		}
	}

	return score
}

// Tokenize lower-cases s, splits it on anything that is not a letter or a
// digit and singularizes each word.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for i, f := range fields {
		fields[i] = singular(f)
	}

	return fields
}

// singular strips a plural "s". Short words and "ss" endings are kept.
func singular(w string) string {
	if len(w) <= 3 || strings.HasSuffix(w, "ss") || !strings.HasSuffix(w, "s") {
		return w
	}

	return strings.TrimSuffix(w, "s")
}

func containsSeq(words, seq []string) bool {
	for i := 0; i+len(seq) <= len(words); i++ {
		match := true

		for j, s := range seq {
			if words[i+j] != s {
				match = false
				break
			}
		}

		if match {
			return true
		}
	}

	return false
}
