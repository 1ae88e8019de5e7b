package memory

import (
	"encoding/json"
	"log"
	"os"
	"strings"
)

// WordFilter rejects display names containing any entry of a word list
// (case-insensitive substring match).
type WordFilter struct {
	words []string
}

func NewWordFilter(words []string) *WordFilter {
	lowered := make([]string, 0, len(words))
	for _, word := range words {
		if word = strings.ToLower(strings.TrimSpace(word)); word != "" {
			lowered = append(lowered, word)
		}
	}
	return &WordFilter{words: lowered}
}

// NewWordFilterFromFile loads a JSON string array. A missing or unreadable
// file degrades to an allow-all filter with a logged warning.
func NewWordFilterFromFile(path string) *WordFilter {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("word filter: %v; all names allowed", err)
		return NewWordFilter(nil)
	}
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		log.Printf("word filter: parse %s: %v; all names allowed", path, err)
		return NewWordFilter(nil)
	}
	log.Printf("word filter: loaded %d words", len(words))
	return NewWordFilter(words)
}

func (f *WordFilter) Allow(name string) bool {
	lowered := strings.ToLower(name)
	for _, word := range f.words {
		if strings.Contains(lowered, word) {
			return false
		}
	}
	return true
}
