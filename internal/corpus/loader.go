// Package corpus loads and filters the medical article feed consumed by the
// indexing pipeline.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadArticles reads a JSON array of articles from the given file. Each
// element must carry at least the title and abstract string fields. The feed
// is consumed once per process lifetime; IDs present in the file are ignored
// and reassigned positionally at indexing time.
func LoadArticles(path string) ([]Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read article feed: %w", err)
	}

	var articles []Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("decode article feed %s: %w", path, err)
	}
	return articles, nil
}
