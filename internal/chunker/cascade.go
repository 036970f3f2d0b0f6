// Package chunker splits normalized text into bounded-length segments using
// a cascading paragraph → sentence → fixed-width strategy.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"docrag/internal/domain"
)

// MinChunkLen is the minimum viable segment length in characters; shorter
// segments carry too little signal to index and are dropped.
const MinChunkLen = 10

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// CascadeChunker produces deterministic, non-overlapping chunks whose ids
// are derived from the document source and the chunk ordinal.
type CascadeChunker struct {
	maxLen int
}

func New(maxLen int) *CascadeChunker {
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &CascadeChunker{maxLen: maxLen}
}

// Chunk segments the document and returns the viable chunks plus the number
// of segments dropped for being shorter than MinChunkLen. Chunk ids are
// source_index, so unchanged content re-ingested yields identical ids.
// Dropped segments still consume their index, leaving gaps rather than
// re-keying the chunks after them.
func (c *CascadeChunker) Chunk(doc domain.Document) ([]domain.Chunk, int) {
	segments := Split(doc.Content, c.maxLen)
	now := time.Now().UTC()
	chunks := make([]domain.Chunk, 0, len(segments))
	skipped := 0
	for idx, seg := range segments {
		if utf8.RuneCountInString(seg) < MinChunkLen {
			skipped++
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:        fmt.Sprintf("%s_%d", doc.Source, idx),
			Source:    doc.Source,
			Index:     idx,
			Text:      seg,
			CreatedAt: now,
		})
	}
	return chunks, skipped
}

// Split is the pure segmentation function: a cascade of three tiers, each
// invoked only when the tier above cannot satisfy the maxLen bound.
// Boundaries depend only on the input text and maxLen. Lengths are counted
// in runes. Empty segments are discarded; the MinChunkLen filter is applied
// by the caller.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		return nil
	}
	var out []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			out = append(out, s)
		}
		buf.Reset()
		bufLen = 0
	}

	for _, para := range splitParagraphs(text) {
		plen := utf8.RuneCountInString(para)
		if plen > maxLen {
			// Paragraph alone exceeds the bound: fall through to the
			// sentence tier, keeping whatever accumulated so far intact.
			flush()
			out = append(out, splitSentences(para, maxLen)...)
			continue
		}
		if bufLen > 0 && bufLen+2+plen > maxLen {
			flush()
		}
		if bufLen > 0 {
			buf.WriteString("\n\n")
			bufLen += 2
		}
		buf.WriteString(para)
		bufLen += plen
	}
	flush()
	return out
}

// splitParagraphs splits on blank-line boundaries, discarding empty blocks.
func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	paras := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// splitSentences greedily packs sentences up to maxLen, slicing any single
// sentence that alone exceeds the bound.
func splitSentences(para string, maxLen int) []string {
	sentences := sentenceRe.FindAllString(para, -1)
	if len(sentences) == 0 {
		sentences = []string{para}
	}
	var out []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			out = append(out, s)
		}
		buf.Reset()
		bufLen = 0
	}

	for _, sent := range sentences {
		sent = strings.TrimSpace(sent)
		slen := utf8.RuneCountInString(sent)
		if slen == 0 {
			continue
		}
		if slen > maxLen {
			flush()
			out = append(out, sliceFixed(sent, maxLen)...)
			continue
		}
		if bufLen > 0 && bufLen+1+slen > maxLen {
			flush()
		}
		if bufLen > 0 {
			buf.WriteString(" ")
			bufLen++
		}
		buf.WriteString(sent)
		bufLen += slen
	}
	flush()
	return out
}

// sliceFixed cuts text into maxLen-rune slices until the remainder fits.
func sliceFixed(text string, maxLen int) []string {
	runes := []rune(text)
	var out []string
	for len(runes) > 0 {
		n := maxLen
		if n > len(runes) {
			n = len(runes)
		}
		if s := strings.TrimSpace(string(runes[:n])); s != "" {
			out = append(out, s)
		}
		runes = runes[n:]
	}
	return out
}
