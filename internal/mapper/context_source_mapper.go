package mapper

import (
	"ai-companion-be/internal/entity"
)

// TaskToContextSource converts a task into the retrieval shape. Relevance is
// left at zero; retrieval assigns it.
func TaskToContextSource(t *entity.Task) entity.ContextSource {
	meta := &entity.TaskSourceMetadata{
		Status:   t.Status,
		Priority: t.Priority,
	}
	if t.DueDate != nil {
		meta.DueDate = t.DueDate.Format("2006-01-02")
	}

	return entity.ContextSource{
		Id:       t.Id.String(),
		Kind:     entity.SourceKindTask,
		Title:    t.Title,
		Content:  t.Description,
		Metadata: entity.SourceMetadata{Task: meta},
	}
}

func JournalToContextSource(e *entity.JournalEntry) entity.ContextSource {
	return entity.ContextSource{
		Id:      e.Id.String(),
		Kind:    entity.SourceKindJournal,
		Title:   e.Title,
		Content: e.Content,
		Metadata: entity.SourceMetadata{
			Journal: &entity.JournalSourceMetadata{
				Mood:      e.Mood,
				EntryDate: e.EntryDate.Format("2006-01-02"),
			},
		},
	}
}

func NoteToContextSource(n *entity.Note) entity.ContextSource {
	return entity.ContextSource{
		Id:      n.Id.String(),
		Kind:    entity.SourceKindNote,
		Title:   n.Title,
		Content: n.Content,
		Metadata: entity.SourceMetadata{
			Note: &entity.NoteSourceMetadata{
				Tags: n.Tags,
			},
		},
	}
}
