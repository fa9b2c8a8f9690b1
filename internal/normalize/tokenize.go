package normalize

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Stopwords is a language-specific word set excluded from tokenization.
type Stopwords map[string]struct{}

// NewStopwords builds a set from the given words, lower-casing each.
func NewStopwords(words ...string) Stopwords {
	set := make(Stopwords, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Contains reports whether the lower-cased word is in the set.
func (s Stopwords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// LoadStopwords reads a stopword file with one word per line. Blank lines
// and lines starting with '#' are ignored.
func LoadStopwords(path string) (Stopwords, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stopwords %s: %w", path, err)
	}
	defer file.Close()

	set := Stopwords{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		set[strings.ToLower(word)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stopwords %s: %w", path, err)
	}
	return set, nil
}

// Tokenize lower-cases the title, splits it into word tokens, and drops
// stopwords and tokens shorter than three runes. Token order follows the
// title.
func Tokenize(title string, stopwords Stopwords) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	words := make([]string, 0, len(fields))
	for _, word := range fields {
		if utf8.RuneCountInString(word) < 3 {
			continue
		}
		if stopwords.Contains(word) {
			continue
		}
		words = append(words, word)
	}
	return words
}
