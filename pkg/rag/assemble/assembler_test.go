package assemble

import (
	"strings"
	"testing"
	"time"

	"ai-companion-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestAssembleSectionOrder(t *testing.T) {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	result := Assemble(Input{
		Objectives: []string{"finish the thesis"},
		FocusAreas: []string{"deep work"},
		RecentTasks: []*entity.Task{
			{Title: "write chapter 3", Status: "in_progress", DueDate: &due},
		},
		RecentJournal: []*entity.JournalEntry{
			{Content: "productive morning", Mood: "good", EntryDate: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)},
		},
		Ranked: []entity.ContextSource{
			{Kind: entity.SourceKindNote, Title: "thesis outline", Content: "chapters and deadlines", Relevance: 0.91},
		},
	})

	objIdx := strings.Index(result, "## Objectives")
	tasksIdx := strings.Index(result, "## Recent tasks")
	journalIdx := strings.Index(result, "## Recent journal")
	rankedIdx := strings.Index(result, "## Retrieved context")

	assert.True(t, objIdx >= 0 && tasksIdx > objIdx && journalIdx > tasksIdx && rankedIdx > journalIdx,
		"sections out of order:\n%s", result)

	assert.Contains(t, result, "- finish the thesis")
	assert.Contains(t, result, "[in_progress] write chapter 3 (due 2026-03-10)")
	assert.Contains(t, result, "2026-03-08 (good): productive morning")
	assert.Contains(t, result, "[note|0.91] thesis outline: chapters and deadlines")
}

func TestAssembleEmptySectionsOmitted(t *testing.T) {
	result := Assemble(Input{
		Ranked: []entity.ContextSource{
			{Kind: entity.SourceKindTask, Title: "only source", Content: "x", Relevance: 0.5},
		},
	})

	assert.NotContains(t, result, "## Objectives")
	assert.NotContains(t, result, "## Recent tasks")
	assert.NotContains(t, result, "## Recent journal")
	assert.Contains(t, result, "## Retrieved context")
}

func TestAssembleCapDropsLowestRelevanceFirst(t *testing.T) {
	longContent := strings.Repeat("x", 300)
	in := Input{
		Objectives: []string{"stay healthy"},
		Ranked: []entity.ContextSource{
			{Kind: entity.SourceKindTask, Title: "top", Content: longContent, Relevance: 0.9},
			{Kind: entity.SourceKindTask, Title: "middle", Content: longContent, Relevance: 0.6},
			{Kind: entity.SourceKindTask, Title: "bottom", Content: longContent, Relevance: 0.3},
		},
	}

	unbounded := Assemble(in)
	in.MaxChars = len(unbounded) - 100
	capped := Assemble(in)

	assert.LessOrEqual(t, len(capped), in.MaxChars)
	assert.Contains(t, capped, "stay healthy")
	assert.Contains(t, capped, "top")
	assert.NotContains(t, capped, "bottom")
}

func TestAssembleObjectivesSurviveTinyCap(t *testing.T) {
	in := Input{
		Objectives: []string{"always present"},
		Ranked: []entity.ContextSource{
			{Kind: entity.SourceKindNote, Title: "dropped", Content: strings.Repeat("y", 500), Relevance: 0.8},
		},
		MaxChars: 10,
	}

	result := Assemble(in)
	assert.Contains(t, result, "always present")
	assert.NotContains(t, result, "dropped")
}

func TestAssembleRelevanceTwoDecimals(t *testing.T) {
	result := Assemble(Input{
		Ranked: []entity.ContextSource{
			{Kind: entity.SourceKindJournal, Title: "t", Content: "c", Relevance: 0.666},
		},
	})
	assert.Contains(t, result, "[journal|0.67]")
}
