package corpus

import (
	"crypto/md5"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMinLength is the minimum cleaned-text length an article must reach
// to survive filtering.
const DefaultMinLength = 200

// noiseMarkers are boilerplate fragments left behind by the scraper that
// carry no article content.
var noiseMarkers = []string{"阅读原文", "广告", "点击了解更多"}

// Filter cleans and deduplicates raw feed articles before indexing:
//
//  1. strips residual HTML tags and known noise markers from the abstract
//     (falling back to the content field when the abstract is empty),
//  2. drops articles whose cleaned text is shorter than minLength,
//  3. deduplicates on an md5 hash of title plus cleaned text.
//
// The returned slice preserves input order; input articles are not mutated.
func Filter(raw []Article, minLength int, logger *slog.Logger) []Article {
	if logger == nil {
		logger = slog.Default()
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	seen := make(map[[16]byte]struct{}, len(raw))
	kept := make([]Article, 0, len(raw))

	for _, doc := range raw {
		text := doc.Abstract
		if text == "" {
			text = doc.Content
		}
		text = stripTags(text)
		for _, marker := range noiseMarkers {
			text = strings.ReplaceAll(text, marker, "")
		}
		text = strings.TrimSpace(text)
		doc.Abstract = text

		// Character count, not bytes: the feed is largely Chinese text.
		if utf8.RuneCountInString(text) < minLength {
			continue
		}

		hash := md5.Sum([]byte(strings.TrimSpace(doc.Title) + text))
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}

		kept = append(kept, doc)
	}

	logger.Info("filtered articles", "before", len(raw), "after", len(kept))
	return kept
}

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// stripTags removes complete HTML-shaped tags. A lone '<' with no closing
// '>' is kept as-is: abstracts routinely contain comparisons like "p < 0.05"
// that are text, not markup.
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	return tagPattern.ReplaceAllString(s, "")
}
