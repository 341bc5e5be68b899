package score

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  float64
	}{
		{
			name:  "empty query",
			query: "",
			text:  "anything at all",
			want:  0,
		},
		{
			name:  "query of only short words",
			query: "a to is",
			text:  "a to is here",
			want:  0,
		},
		{
			name:  "full match",
			query: "project deadline",
			text:  "The project deadline is Friday",
			want:  1,
		},
		{
			name:  "half match",
			query: "project deadline",
			text:  "the project is going well",
			want:  0.5,
		},
		{
			name:  "case insensitive",
			query: "PROJECT",
			text:  "working on the project",
			want:  1,
		},
		{
			name:  "substring counts",
			query: "run",
			text:  "went running this morning",
			want:  1,
		},
		{
			name:  "no match",
			query: "vacation plans",
			text:  "quarterly revenue report",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.query, tt.text)
			if got != tt.want {
				t.Errorf("Score(%q, %q) = %v, want %v", tt.query, tt.text, got, tt.want)
			}
		})
	}
}

func TestScoreBounds(t *testing.T) {
	queries := []string{"one", "one two", "alpha beta gamma delta", ""}
	texts := []string{"", "one", "one two three", "unrelated content entirely"}

	for _, q := range queries {
		for _, txt := range texts {
			got := Score(q, txt)
			if got < 0 || got > 1 {
				t.Errorf("Score(%q, %q) = %v, out of [0,1]", q, txt, got)
			}
		}
	}
}

func TestScoreHalfMatchNote(t *testing.T) {
	// "deadline" matches as substring of "deadlines", "project" matches too.
	got := Score("project deadline", "no deadlines here, only the project")
	if got != 1 {
		t.Errorf("substring semantics: got %v, want 1", got)
	}
}
