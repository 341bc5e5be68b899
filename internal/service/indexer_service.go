package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/memory"
	"ai-companion-be/internal/repository/specification"
	"ai-companion-be/internal/repository/unitofwork"
	"ai-companion-be/pkg/embedding"
	"ai-companion-be/pkg/events"
	pkgNats "ai-companion-be/pkg/nats"
	"ai-companion-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Chunking tuned for embedding context limits.
const (
	chunkSize    = 1500
	chunkOverlap = 200

	candidateCacheSize = 50
)

type IIndexerService interface {
	Consume(ctx context.Context) error
}

// indexerService keeps source_embeddings and the candidate cache in sync
// with the task, journal and note stores. It consumes the embed topic.
type indexerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	candidateCache    *memory.CandidateCache
	eventPublisher    *pkgNats.Publisher
	log               logger.ILogger
}

func NewIndexerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	candidateCache *memory.CandidateCache,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IIndexerService {
	return &indexerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		candidateCache:    candidateCache,
		eventPublisher:    eventPublisher,
		log:               log,
	}
}

func (s *indexerService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *indexerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedSourceMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.log.Error("indexer", "failed to unmarshal embed message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // invalid payloads never become valid, do not retry
		return
	}

	if payload.Deleted {
		if err := s.removeSource(ctx, payload); err != nil {
			s.log.Error("indexer", "failed to remove source embeddings", map[string]interface{}{
				"kind":      string(payload.Kind),
				"source_id": payload.SourceId.String(),
				"error":     err.Error(),
			})
			msg.Nack()
			return
		}
		s.refreshCandidates(ctx, payload.UserId, payload.Kind)
		msg.Ack()
		return
	}

	if err := s.indexSource(ctx, payload); err != nil {
		s.log.Error("indexer", "failed to index source", map[string]interface{}{
			"kind":      string(payload.Kind),
			"source_id": payload.SourceId.String(),
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}

	s.refreshCandidates(ctx, payload.UserId, payload.Kind)
	msg.Ack()
}

// buildDocument renders one source record as the text that gets embedded.
// Returns empty content when the record no longer exists.
func (s *indexerService) buildDocument(ctx context.Context, uow unitofwork.UnitOfWork, payload dto.PublishEmbedSourceMessage) (string, bool, error) {
	switch payload.Kind {
	case entity.SourceKindTask:
		task, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: payload.SourceId})
		if err != nil || task == nil {
			return "", false, err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Task: %s\nStatus: %s\nPriority: %d\n", task.Title, task.Status, task.Priority)
		if task.DueDate != nil {
			fmt.Fprintf(&b, "Due: %s\n", task.DueDate.Format("2006-01-02"))
		}
		if task.Description != "" {
			b.WriteString("\n" + task.Description)
		}
		return b.String(), true, nil

	case entity.SourceKindJournal:
		entry, err := uow.JournalRepository().FindOne(ctx, specification.ByID{ID: payload.SourceId})
		if err != nil || entry == nil {
			return "", false, err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Journal entry: %s\nDate: %s\n", entry.Title, entry.EntryDate.Format("2006-01-02"))
		if entry.Mood != "" {
			fmt.Fprintf(&b, "Mood: %s\n", entry.Mood)
		}
		b.WriteString("\n" + entry.Content)
		return b.String(), true, nil

	case entity.SourceKindNote:
		note, err := uow.NoteRepository().FindOne(ctx, specification.ByID{ID: payload.SourceId})
		if err != nil || note == nil {
			return "", false, err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Note: %s\n", note.Title)
		if len(note.Tags) > 0 {
			fmt.Fprintf(&b, "Tags: %s\n", strings.Join(note.Tags, ", "))
		}
		b.WriteString("\n" + note.Content)
		return b.String(), true, nil

	default:
		return "", false, fmt.Errorf("unknown source kind %q", payload.Kind)
	}
}

func (s *indexerService) indexSource(ctx context.Context, payload dto.PublishEmbedSourceMessage) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, found, err := s.buildDocument(ctx, uow, payload)
	if err != nil {
		return err
	}
	if !found {
		// The record was deleted between publish and consume.
		return s.removeSource(ctx, payload)
	}

	chunks := utils.SplitText(document, chunkSize, chunkOverlap)

	newEmbeddings := make([]*entity.SourceEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := s.embeddingProvider.Generate(chunk, embedding.TaskTypeDocument)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", i, err)
		}
		newEmbeddings = append(newEmbeddings, &entity.SourceEmbedding{
			Id:             uuid.New(),
			Kind:           payload.Kind,
			SourceId:       payload.SourceId,
			UserId:         payload.UserId,
			Document:       chunk,
			EmbeddingValue: res.Embedding.Values,
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	// Replace the old chunks atomically.
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.SourceEmbeddingRepository().DeleteBySource(ctx, payload.Kind, payload.SourceId); err != nil {
		return err
	}
	if len(newEmbeddings) > 0 {
		if err := uow.SourceEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
			return err
		}
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.log.Info("indexer", "source indexed", map[string]interface{}{
		"kind":      string(payload.Kind),
		"source_id": payload.SourceId.String(),
		"chunks":    len(newEmbeddings),
	})

	if s.eventPublisher != nil {
		evt := events.NewSourceIndexedEvent(string(payload.Kind), payload.SourceId.String(), payload.UserId.String(), len(newEmbeddings))
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.log.Debug("indexer", "event publish failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return nil
}

func (s *indexerService) removeSource(ctx context.Context, payload dto.PublishEmbedSourceMessage) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.SourceEmbeddingRepository().DeleteBySource(ctx, payload.Kind, payload.SourceId)
}

// refreshCandidates rebuilds the per-user candidate snapshot for one kind.
// The cache feeds degraded-mode retrieval and local suggestions, so it only
// holds a bounded window of recent records.
func (s *indexerService) refreshCandidates(ctx context.Context, userId uuid.UUID, kind entity.SourceKind) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	owned := specification.UserOwnedBy{UserID: userId}
	limit := specification.Limit{Count: candidateCacheSize}

	var candidates []entity.ContextSource

	switch kind {
	case entity.SourceKindTask:
		tasks, err := uow.TaskRepository().FindAll(ctx, owned, specification.OrderBy{Field: "created_at", Desc: true}, limit)
		if err != nil {
			s.log.Warn("indexer", "candidate refresh failed", map[string]interface{}{"kind": "task", "error": err.Error()})
			return
		}
		for _, t := range tasks {
			candidates = append(candidates, mapper.TaskToContextSource(t))
		}

	case entity.SourceKindJournal:
		entries, err := uow.JournalRepository().FindAll(ctx, owned, specification.OrderBy{Field: "entry_date", Desc: true}, limit)
		if err != nil {
			s.log.Warn("indexer", "candidate refresh failed", map[string]interface{}{"kind": "journal", "error": err.Error()})
			return
		}
		for _, e := range entries {
			candidates = append(candidates, mapper.JournalToContextSource(e))
		}

	case entity.SourceKindNote:
		notes, err := uow.NoteRepository().FindAll(ctx, owned, specification.OrderBy{Field: "created_at", Desc: true}, limit)
		if err != nil {
			s.log.Warn("indexer", "candidate refresh failed", map[string]interface{}{"kind": "note", "error": err.Error()})
			return
		}
		for _, n := range notes {
			candidates = append(candidates, mapper.NoteToContextSource(n))
		}
	}

	s.candidateCache.Put(userId, kind, candidates)
}
