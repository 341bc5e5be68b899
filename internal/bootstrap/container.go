package bootstrap

import (
	"context"
	"log"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/controller"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/memory"
	"ai-companion-be/internal/repository/unitofwork"
	"ai-companion-be/internal/service"
	"ai-companion-be/internal/websocket"
	"ai-companion-be/pkg/embedding"
	"ai-companion-be/pkg/llm/factory"

	pkgNats "ai-companion-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	TaskController    controller.ITaskController
	JournalController controller.IJournalController
	NoteController    controller.INoteController
	ContextController controller.IContextController
	WsController      controller.IWsController

	// Background services, started by main
	IndexerService service.IIndexerService

	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	candidateCache := memory.NewCandidateCache()

	// 5. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Keys.EmbedTopic)
	indexerService := service.NewIndexerService(
		pubSub,
		cfg.Keys.EmbedTopic,
		uowFactory,
		embeddingProvider,
		candidateCache,
		natsPub,
		sysLogger,
	)

	taskService := service.NewTaskService(uowFactory, publisherService, sysLogger)
	journalService := service.NewJournalService(uowFactory, publisherService, sysLogger)
	noteService := service.NewNoteService(uowFactory, publisherService, sysLogger)
	contextService := service.NewContextService(uowFactory)

	if natsSub != nil {
		notifierService := service.NewNotifierService(natsSub, wsHub, wsLogger)
		if err := notifierService.Start(); err != nil {
			log.Printf("[WARN] Failed to start event notifier: %v", err)
		}
	}

	chatService := service.NewChatService(
		cfg,
		uowFactory,
		embeddingProvider,
		llmProvider,
		candidateCache,
		natsPub,
		sysLogger,
	)

	// 6. Controllers
	return &Container{
		ChatController:    controller.NewChatController(chatService, sysLogger),
		TaskController:    controller.NewTaskController(taskService),
		JournalController: controller.NewJournalController(journalService),
		NoteController:    controller.NewNoteController(noteService),
		ContextController: controller.NewContextController(contextService),
		WsController:      controller.NewWsController(wsHub, wsLogger),

		IndexerService: indexerService,
		WebSocketHub:   wsHub,
	}
}
