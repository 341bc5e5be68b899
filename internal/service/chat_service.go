package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/constant"
	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/memory"
	"ai-companion-be/internal/repository/specification"
	"ai-companion-be/internal/repository/unitofwork"
	"ai-companion-be/pkg/embedding"
	"ai-companion-be/pkg/llm"
	pkgNats "ai-companion-be/pkg/nats"
	"ai-companion-be/pkg/rag/assemble"
	"ai-companion-be/pkg/rag/retrieval"
	"ai-companion-be/pkg/rag/score"
	"ai-companion-be/pkg/rag/session"
	"ai-companion-be/pkg/rag/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatService interface {
	// AskStream runs the full pipeline and returns the event sequence for
	// streaming transports. The channel settles the request when it closes.
	AskStream(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (uuid.UUID, <-chan stream.Event, error)

	// Ask is the blocking non-streaming mode.
	Ask(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error)

	Suggest(ctx context.Context, userId uuid.UUID, req *dto.SuggestRequest) ([]*dto.SuggestionResponse, error)

	ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.ChatSessionResponse, error)
	History(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ChatHistoryResponse, error)
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
}

type chatService struct {
	cfg            *config.Config
	uowFactory     unitofwork.RepositoryFactory
	sessionManager *session.Manager
	aggregator     *retrieval.Aggregator
	coordinator    *stream.Coordinator
	candidateCache *memory.CandidateCache
	log            logger.ILogger
}

func NewChatService(
	cfg *config.Config,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	candidateCache *memory.CandidateCache,
	eventPublisher *pkgNats.Publisher,
	log logger.ILogger,
) IChatService {
	sessionManager := session.NewManager(newSessionStore(uowFactory))

	aggregator := retrieval.NewAggregator(
		&queryEmbedder{provider: embeddingProvider},
		&vectorSearcher{uowFactory: uowFactory},
		candidateCache,
		eventPublisherOrNil(eventPublisher),
		log,
	)

	svc := &chatService{
		cfg:            cfg,
		uowFactory:     uowFactory,
		sessionManager: sessionManager,
		aggregator:     aggregator,
		candidateCache: candidateCache,
		log:            log,
	}
	svc.coordinator = stream.NewCoordinator(llmProvider, &assistantPersister{svc: svc}, streamEventPublisherOrNil(eventPublisher), log)

	return svc
}

// eventPublisherOrNil avoids a typed-nil interface when NATS is disabled.
func eventPublisherOrNil(p *pkgNats.Publisher) retrieval.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func streamEventPublisherOrNil(p *pkgNats.Publisher) stream.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

// assistantPersister writes the assistant turn through the session manager
// so its sequence number lands after the user turn of the same request.
type assistantPersister struct {
	svc *chatService
}

func (p *assistantPersister) PersistAssistantTurn(ctx context.Context, sessionId uuid.UUID, content, status string, sources []entity.ContextSource) (uuid.UUID, error) {
	turn := &entity.ChatTurn{
		ChatSessionId: sessionId,
		Role:          constant.ChatTurnRoleAssistant,
		Content:       content,
		Status:        status,
		Sources:       sources,
	}
	if err := p.svc.sessionManager.Append(ctx, turn); err != nil {
		return uuid.Nil, err
	}
	return turn.Id, nil
}

// preparedExchange is everything assembled before generation starts.
type preparedExchange struct {
	session *entity.ChatSession
	history []llm.Message
	sources []entity.ContextSource
}

// prepare runs the synchronous half of the pipeline: resolve the session,
// load history, persist the user turn, run retrieval and the recency
// fetches in parallel, and assemble the prompt.
func (s *chatService) prepare(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (*preparedExchange, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "message must not be empty")
	}

	chatSession, err := s.sessionManager.Resolve(ctx, userId, req.SessionId, titleFrom(message))
	if err != nil {
		return nil, err
	}
	if chatSession.UserId != userId {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	priorTurns, err := s.sessionManager.LoadRecent(ctx, chatSession.Id, s.cfg.Chat.HistoryLimit)
	if err != nil {
		return nil, err
	}

	// The user's question is persisted before generation begins, it is never
	// lost even when generation fails outright.
	if err := s.sessionManager.Append(ctx, &entity.ChatTurn{
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatTurnRoleUser,
		Content:       message,
		Status:        constant.ChatTurnStatusComplete,
	}); err != nil {
		return nil, err
	}

	// Retrieval, the recency fetches and the objective context are
	// independent, run them concurrently. Each failure only degrades the
	// assembled context.
	var (
		wg            sync.WaitGroup
		ranked        []entity.ContextSource
		recentTasks   []*entity.Task
		recentJournal []*entity.JournalEntry
		userContext   *entity.UserContext
	)

	wg.Add(4)

	go func() {
		defer wg.Done()
		result, err := s.aggregator.Retrieve(ctx, retrieval.Request{
			QueryText:      message,
			UserId:         userId,
			SourceKinds:    entity.KindOrder,
			MatchThreshold: s.cfg.Chat.MatchThreshold,
			MatchCount:     s.cfg.Chat.MatchCount,
			TopK:           s.cfg.Chat.TopK,
		})
		if err != nil {
			s.log.Warn("chat", "retrieval failed, continuing without ranked sources", map[string]interface{}{"error": err.Error()})
			return
		}
		ranked = result.Sources
	}()

	go func() {
		defer wg.Done()
		uow := s.uowFactory.NewUnitOfWork(ctx)
		tasks, err := uow.TaskRepository().FindAll(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.StatusIn{Statuses: []string{"pending", "in_progress"}},
			specification.OrderBy{Field: "priority", Desc: true},
			specification.Limit{Count: s.cfg.Chat.RecentTasks},
		)
		if err != nil {
			s.log.Warn("chat", "recent tasks fetch failed", map[string]interface{}{"error": err.Error()})
			return
		}
		recentTasks = tasks
	}()

	go func() {
		defer wg.Done()
		uow := s.uowFactory.NewUnitOfWork(ctx)
		entries, err := uow.JournalRepository().FindAll(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.OrderBy{Field: "entry_date", Desc: true},
			specification.Limit{Count: s.cfg.Chat.RecentJournal},
		)
		if err != nil {
			s.log.Warn("chat", "recent journal fetch failed", map[string]interface{}{"error": err.Error()})
			return
		}
		recentJournal = entries
	}()

	go func() {
		defer wg.Done()
		uow := s.uowFactory.NewUnitOfWork(ctx)
		loaded, err := uow.UserContextRepository().FindByUser(ctx, userId)
		if err != nil {
			s.log.Warn("chat", "objective context fetch failed", map[string]interface{}{"error": err.Error()})
			return
		}
		userContext = loaded
	}()

	wg.Wait()

	input := assemble.Input{
		RecentTasks:   recentTasks,
		RecentJournal: recentJournal,
		Ranked:        ranked,
		MaxChars:      s.cfg.Chat.MaxContextChars,
	}
	if userContext != nil {
		input.Objectives = userContext.Objectives
		input.FocusAreas = userContext.FocusAreas
	}
	contextString := assemble.Assemble(input)

	history := buildMessages(contextString, priorTurns, message)

	return &preparedExchange{
		session: chatSession,
		history: history,
		sources: ranked,
	}, nil
}

func (s *chatService) AskStream(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (uuid.UUID, <-chan stream.Event, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout())

	prepared, err := s.prepare(tctx, userId, req)
	if err != nil {
		cancel()
		return uuid.Nil, nil, err
	}

	events := s.coordinator.Stream(tctx, prepared.session.Id, prepared.history, prepared.sources)

	out := make(chan stream.Event)
	go func() {
		defer cancel()
		defer close(out)
		for e := range events {
			select {
			case out <- e:
			case <-tctx.Done():
				// Keep draining so the coordinator can settle and persist.
			}
		}
	}()

	return prepared.session.Id, out, nil
}

func (s *chatService) Ask(ctx context.Context, userId uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	tctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	prepared, err := s.prepare(tctx, userId, req)
	if err != nil {
		return nil, err
	}

	response, err := s.coordinator.Complete(tctx, prepared.session.Id, prepared.history, prepared.sources)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadGateway, "generation failed")
	}

	sources := prepared.sources
	if sources == nil {
		sources = []entity.ContextSource{}
	}

	return &dto.ChatResponse{
		Response:  response,
		SessionId: prepared.session.Id,
		Sources:   sources,
	}, nil
}

// Suggest ranks cached candidates against a query with the local keyword
// scorer. No remote calls, usable while typing.
func (s *chatService) Suggest(ctx context.Context, userId uuid.UUID, req *dto.SuggestRequest) ([]*dto.SuggestionResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	var suggestions []*dto.SuggestionResponse
	for _, candidate := range s.candidateCache.GetAll(userId) {
		relevance := score.Score(req.Query, candidate.Title+" "+candidate.Content)
		if relevance == 0 {
			continue
		}
		suggestions = append(suggestions, &dto.SuggestionResponse{
			Id:        candidate.Id,
			Kind:      candidate.Kind,
			Title:     candidate.Title,
			Relevance: relevance,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Relevance > suggestions[j].Relevance
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	return suggestions, nil
}

func (s *chatService) ListSessions(ctx context.Context, userId uuid.UUID) ([]*dto.ChatSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ChatSessionResponse, len(sessions))
	for i, sess := range sessions {
		responses[i] = &dto.ChatSessionResponse{
			Id:        sess.Id,
			Title:     sess.Title,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
		}
	}
	return responses, nil
}

func (s *chatService) History(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	turns, err := uow.ChatTurnRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "seq", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	turnResponses := make([]dto.ChatTurnResponse, len(turns))
	for i, turn := range turns {
		turnResponses[i] = dto.ChatTurnResponse{
			Id:        turn.Id,
			Role:      turn.Role,
			Content:   turn.Content,
			Status:    turn.Status,
			Sources:   turn.Sources,
			CreatedAt: turn.CreatedAt,
		}
	}

	return &dto.ChatHistoryResponse{
		SessionId: sessionId,
		Turns:     turnResponses,
	}, nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sess, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if sess == nil {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatTurnRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *chatService) timeout() time.Duration {
	seconds := s.cfg.Chat.TimeoutSeconds
	if seconds <= 0 {
		seconds = 120
	}
	return time.Duration(seconds) * time.Second
}

// buildMessages seeds the completion call: system prompt with the assembled
// context, then prior turns oldest to newest, then the current question.
func buildMessages(contextString string, priorTurns []*entity.ChatTurn, message string) []llm.Message {
	messages := make([]llm.Message, 0, len(priorTurns)+2)

	systemPrompt := constant.SystemPromptV1
	if contextString != "" {
		systemPrompt += "\n\nCONTEXT:\n" + contextString
	}
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})

	for _, turn := range priorTurns {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	messages = append(messages, llm.Message{Role: constant.ChatTurnRoleUser, Content: message})
	return messages
}

// titleFrom derives a session title from the first question.
func titleFrom(message string) string {
	const maxTitle = 60
	runes := []rune(message)
	if len(runes) <= maxTitle {
		return message
	}
	return strings.TrimSpace(string(runes[:maxTitle])) + "…"
}
