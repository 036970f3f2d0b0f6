// Package normalize strips markdown/MDX formatting down to plain prose
// suitable for chunking and embedding.
package normalize

import (
	"regexp"
	"strings"
)

var (
	codeFenceRe   = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe  = regexp.MustCompile("`[^`\n]*`")
	headingRe     = regexp.MustCompile(`(?m)^#{1,6}[ \t]*(.*)$`)
	imageRe       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe        = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	boldRe        = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe      = regexp.MustCompile(`\*([^*\n]+)\*`)
	boldUnderRe   = regexp.MustCompile(`__([^_]+)__`)
	italicUnderRe = regexp.MustCompile(`_([^_\n]+)_`)
	frontMatterRe = regexp.MustCompile(`(?s)\A\s*---\n.*?\n---\n?`)
)

// Text reduces raw markup to plain text. It is a pure function and
// idempotent: running it over already-normalized text changes nothing.
// Removal order: code fences, inline code spans, heading markers (heading
// text kept), images (dropped entirely), links (link text kept), emphasis
// markers, leading front matter. A result that is only whitespace collapses
// to the empty string.
func Text(raw string) string {
	s := codeFenceRe.ReplaceAllString(raw, "")
	s = inlineCodeRe.ReplaceAllString(s, "")
	s = headingRe.ReplaceAllString(s, "$1")
	s = imageRe.ReplaceAllString(s, "")
	s = linkRe.ReplaceAllString(s, "$1")
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	s = boldUnderRe.ReplaceAllString(s, "$1")
	s = italicUnderRe.ReplaceAllString(s, "$1")
	s = frontMatterRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
