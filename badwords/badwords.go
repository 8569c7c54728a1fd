// Package badwords screens user-written text such as usernames and reviews.
package badwords

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joy095/travelmint/logger"
)

//go:embed en.txt
var defaultList string

var (
	mu          sync.RWMutex
	badWordsMap = parse(defaultList)
)

func parse(data string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, line := range strings.Split(data, "\n") {
		w := strings.ToLower(strings.TrimSpace(line))
		if w != "" && !strings.HasPrefix(w, "#") {
			words[w] = struct{}{}
		}
	}
	return words
}

// LoadBadWords replaces the built-in list with the words in filename, one per line.
func LoadBadWords(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read bad words file: %w", err)
	}
	words := parse(string(data))

	mu.Lock()
	badWordsMap = words
	mu.Unlock()

	logger.InfoLogger.Infof("Loaded %d bad words from %s", len(words), filename)
	return nil
}

// ContainsBadWords reports whether any word of text is on the list.
// Matching is case-insensitive on runs of letters and digits.
func ContainsBadWords(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})

	mu.RLock()
	defer mu.RUnlock()

	for _, word := range words {
		if _, found := badWordsMap[word]; found {
			logger.WarnLogger.Warnf("Bad word detected: %s", word)
			return true
		}
	}
	return false
}

// AnyContainsBadWords checks several fields at once.
func AnyContainsBadWords(texts ...string) bool {
	for _, t := range texts {
		if ContainsBadWords(t) {
			return true
		}
	}
	return false
}
