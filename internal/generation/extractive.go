package generation

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	extractSentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
	extractTokenRe    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// Extractive is an offline Generator that answers by selecting the
// grounding-context sentences most relevant to the question: sentences are
// scored by normalized term frequency plus overlap with the question's
// tokens, and the top scorers are returned in their original order.
type Extractive struct {
	maxSentences int
	stopwords    map[string]struct{}
}

func NewExtractive(maxSentences int) *Extractive {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	return &Extractive{maxSentences: maxSentences, stopwords: extractStopwords()}
}

func (g *Extractive) Generate(_ context.Context, question, groundingContext string) (string, error) {
	sentences := extractSentenceRe.FindAllString(groundingContext, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(groundingContext), nil
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range g.tokens(sent) {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	questionTokens := make(map[string]struct{})
	for _, tok := range g.tokens(question) {
		questionTokens[tok] = struct{}{}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, sent := range sentences {
		toks := g.tokens(sent)
		s := 0.0
		for _, tok := range toks {
			s += freq[tok]
			if _, ok := questionTokens[tok]; ok {
				s += 1.0
			}
		}
		if l := float64(len(toks)); l > 0 {
			s /= math.Sqrt(l)
		}
		scores[i] = scored{i, s}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	n := g.maxSentences
	if n > len(scores) {
		n = len(scores)
	}
	selected := make([]int, n)
	for i := 0; i < n; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)

	out := make([]string, 0, n)
	for _, idx := range selected {
		out = append(out, strings.TrimSpace(sentences[idx]))
	}
	return strings.Join(out, " "), nil
}

func (g *Extractive) tokens(text string) []string {
	raw := extractTokenRe.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := g.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func extractStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
