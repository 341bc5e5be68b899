package utils

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		chunkSize  int
		overlap    int
		wantChunks int
	}{
		{
			name:       "empty input",
			text:       "   ",
			chunkSize:  100,
			overlap:    20,
			wantChunks: 0,
		},
		{
			name:       "short text stays whole",
			text:       "a quick note",
			chunkSize:  100,
			overlap:    20,
			wantChunks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitText(tt.text, tt.chunkSize, tt.overlap)
			if len(chunks) != tt.wantChunks {
				t.Errorf("chunk count = %d, want %d (chunks: %q)", len(chunks), tt.wantChunks, chunks)
			}
			for i, c := range chunks {
				if len([]rune(c)) > tt.chunkSize {
					t.Errorf("chunk %d exceeds size limit: %d runes", i, len([]rune(c)))
				}
			}
		})
	}
}

func TestSplitTextLongInput(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 20)
	chunks := SplitText(text, 200, 40)
	if len(chunks) < 4 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 200 {
			t.Errorf("chunk %d exceeds size limit: %d runes", i, len([]rune(c)))
		}
	}
}

func TestSplitTextPrefersSentenceBoundary(t *testing.T) {
	text := strings.Repeat("First sentence here. Second sentence follows. ", 10)
	chunks := SplitText(text, 120, 20)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		last := c[len(c)-1]
		if last != '.' && last != '!' && last != '?' {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", i, c)
		}
	}
}

func TestSplitTextNoTextLost(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon ", 30)
	chunks := SplitText(text, 100, 25)
	joined := strings.Join(chunks, " ")
	for _, word := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		if !strings.Contains(joined, word) {
			t.Errorf("word %q missing from chunks", word)
		}
	}
}
