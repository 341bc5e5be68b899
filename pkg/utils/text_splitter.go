package utils

import "strings"

// SplitText breaks a document into chunks of at most chunkSize runes with an
// overlap carried between consecutive chunks. Chunk boundaries prefer a
// paragraph break, then a sentence end, then a space, falling back to a hard
// cut so no text is ever dropped.
func SplitText(text string, chunkSize int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		cut := findBreak(runes, start, end)
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= start {
			next = start + step
		}
		start = next
	}

	return chunks
}

// findBreak scans backwards from the hard limit looking for a natural
// boundary within the final quarter of the window.
func findBreak(runes []rune, start, end int) int {
	minCut := end - (end-start)/4

	for i := end; i > minCut; i-- {
		if runes[i-1] == '\n' {
			return i
		}
	}
	for i := end; i > minCut; i-- {
		switch runes[i-1] {
		case '.', '!', '?':
			return i
		}
	}
	for i := end; i > minCut; i-- {
		if runes[i-1] == ' ' {
			return i
		}
	}
	return end
}
