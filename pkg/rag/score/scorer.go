package score

import "strings"

// Score rates how well a text matches a free-text query, returning a value
// in [0,1]. The query is tokenized into lowercase words longer than two
// characters; the score is the fraction of those words that appear as
// case-insensitive substrings of the text.
//
// It is pure and deterministic, used for local suggestion ranking and as the
// fallback ranking when the embedding service is unreachable.
func Score(query, text string) float64 {
	words := tokenize(query)
	if len(words) == 0 {
		return 0
	}

	haystack := strings.ToLower(text)
	matches := 0
	for _, word := range words {
		if strings.Contains(haystack, word) {
			matches++
		}
	}

	return float64(matches) / float64(len(words))
}

func tokenize(query string) []string {
	var words []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(field)) > 2 {
			words = append(words, field)
		}
	}
	return words
}
