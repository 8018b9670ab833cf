package corpus

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Article represents one medical article from the input feed.
// ID is assigned at indexing time: a dense, zero-based position in the
// filtered input sequence. It is the primary key everywhere (vector store,
// document store, similarity graph) and is stable for the lifetime of an
// indexing run.
type Article struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Content  string `json:"content,omitempty"`
}

// IndexText builds the text that is embedded and indexed for the article.
// Returns the empty string when the article carries no usable text.
func (a Article) IndexText() string {
	if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.Abstract) == "" {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("Title: %s\nAbstract: %s", a.Title, a.Abstract))
}

// Preview returns up to n bytes of the article's index text, cut on a rune
// boundary so multibyte text never yields invalid UTF-8.
func (a Article) Preview(n int) string {
	return TruncateRunes(a.IndexText(), n)
}

// TruncateRunes cuts s to at most n bytes without splitting a rune.
func TruncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
