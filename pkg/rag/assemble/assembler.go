package assemble

import (
	"fmt"
	"strings"

	"ai-companion-be/internal/entity"
)

// Input is everything the assembler folds into one prompt-context string.
type Input struct {
	Objectives    []string
	FocusAreas    []string
	RecentTasks   []*entity.Task
	RecentJournal []*entity.JournalEntry
	Ranked        []entity.ContextSource // sorted descending by relevance
	MaxChars      int                    // hard cap on the assembled string, 0 means unbounded
}

// Assemble renders the context sections in fixed order: persistent
// objectives first, then the recency-windowed fetches, then the ranked
// sources. When the character cap is hit, ranked sources are dropped from
// the low-relevance end; the objectives section is never dropped.
func Assemble(in Input) string {
	var sections []string

	if s := buildObjectivesSection(in.Objectives, in.FocusAreas); s != "" {
		sections = append(sections, s)
	}
	if s := buildRecentTasksSection(in.RecentTasks); s != "" {
		sections = append(sections, s)
	}
	if s := buildRecentJournalSection(in.RecentJournal); s != "" {
		sections = append(sections, s)
	}

	base := strings.Join(sections, "\n\n")

	ranked := in.Ranked
	result := join(base, buildRankedSection(ranked))
	if in.MaxChars <= 0 {
		return result
	}

	// Drop the lowest-relevance ranked sources until the string fits. The
	// fixed sections stay even if they alone exceed the cap.
	for len(result) > in.MaxChars && len(ranked) > 0 {
		ranked = ranked[:len(ranked)-1]
		result = join(base, buildRankedSection(ranked))
	}

	return result
}

func join(base, rankedSection string) string {
	switch {
	case base == "":
		return rankedSection
	case rankedSection == "":
		return base
	default:
		return base + "\n\n" + rankedSection
	}
}

func buildObjectivesSection(objectives, focusAreas []string) string {
	if len(objectives) == 0 && len(focusAreas) == 0 {
		return ""
	}

	var b strings.Builder
	if len(objectives) > 0 {
		b.WriteString("## Objectives\n")
		for _, o := range objectives {
			b.WriteString("- " + o + "\n")
		}
	}
	if len(focusAreas) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## Focus areas\n")
		for _, f := range focusAreas {
			b.WriteString("- " + f + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildRecentTasksSection(tasks []*entity.Task) string {
	if len(tasks) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Recent tasks\n")
	for _, t := range tasks {
		line := fmt.Sprintf("- [%s] %s", t.Status, t.Title)
		if t.DueDate != nil {
			line += " (due " + t.DueDate.Format("2006-01-02") + ")"
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildRecentJournalSection(entries []*entity.JournalEntry) string {
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Recent journal\n")
	for _, e := range entries {
		line := "- " + e.EntryDate.Format("2006-01-02")
		if e.Mood != "" {
			line += " (" + e.Mood + ")"
		}
		line += ": " + e.Content
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildRankedSection(sources []entity.ContextSource) string {
	if len(sources) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Retrieved context\n")
	for _, s := range sources {
		b.WriteString(fmt.Sprintf("- [%s|%.2f] %s: %s\n", s.Kind, s.Relevance, s.Title, s.Content))
	}
	return strings.TrimRight(b.String(), "\n")
}
