package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/repository/unitofwork"
	"ai-companion-be/pkg/database"
	"ai-companion-be/pkg/embedding"
	"ai-companion-be/pkg/events"
	pkgNats "ai-companion-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Developer tool for inspecting the retrieval pipeline against live data.
//
//	go run ./cmd/diagnose -mode retrieval -user <uuid> -query "deadlines this week"
//	go run ./cmd/diagnose -mode events
func main() {
	mode := flag.String("mode", "retrieval", "retrieval | events")
	userIdStr := flag.String("user", "", "user id for retrieval mode")
	query := flag.String("query", "", "query text for retrieval mode")
	subject := flag.String("subject", "events.>", "subject filter for events mode")
	flag.Parse()

	cfg := config.Load()

	switch *mode {
	case "retrieval":
		runRetrieval(cfg, *userIdStr, *query)
	case "events":
		runEventTail(cfg, *subject)
	default:
		log.Fatalf("unknown mode: %s", *mode)
	}
}

// runRetrieval embeds the query and runs the per-kind similarity search the
// chat pipeline uses, printing each hit with its score.
func runRetrieval(cfg *config.Config, userIdStr, query string) {
	if userIdStr == "" || query == "" {
		log.Fatal("retrieval mode needs -user and -query")
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		log.Fatalf("invalid user id: %v", err)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("DB connection failed: %v", err)
	}
	uowFactory := unitofwork.NewRepositoryFactory(db)

	var provider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		provider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	} else {
		provider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}

	header := color.New(color.FgCyan, color.Bold)
	kindColor := color.New(color.FgYellow)
	scoreColor := color.New(color.FgGreen)

	header.Printf("Query: %q (user %s)\n", query, userId)

	start := time.Now()
	resp, err := provider.Generate(query, embedding.TaskTypeQuery)
	if err != nil {
		color.Red("Embedding failed: %v", err)
		os.Exit(1)
	}
	header.Printf("Embedded in %v (%d dims)\n\n", time.Since(start), len(resp.Embedding.Values))

	ctx := context.Background()
	repo := uowFactory.NewUnitOfWork(ctx).SourceEmbeddingRepository()

	for _, kind := range entity.KindOrder {
		hits, err := repo.SearchSimilarWithScore(ctx, kind, resp.Embedding.Values, cfg.Chat.MatchCount, userId, cfg.Chat.MatchThreshold)
		if err != nil {
			color.Red("%s: search failed: %v", kind, err)
			continue
		}

		kindColor.Printf("== %s (%d hits) ==\n", kind, len(hits))
		for _, hit := range hits {
			scoreColor.Printf("  %.4f", hit.Similarity)
			doc := hit.Embedding.Document
			if len(doc) > 120 {
				doc = doc[:120] + "..."
			}
			color.White("  [chunk %d] %s", hit.Embedding.ChunkIndex, doc)
		}
	}
}

// runEventTail follows the durable event stream and pretty-prints each event.
func runEventTail(cfg *config.Config, subject string) {
	sub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("NATS connection failed: %v", err)
	}
	defer sub.Close()

	typeColor := color.New(color.FgMagenta, color.Bold)

	err = sub.Subscribe(subject, "diagnose-tail", func(ctx context.Context, event events.Event) error {
		payload, _ := json.Marshal(event.Payload())
		typeColor.Printf("%s %s ", event.Timestamp().Format(time.RFC3339), event.EventType())
		color.White("%s", payload)
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe failed: %v", err)
	}

	color.Cyan("Tailing %s, Ctrl+C to stop", subject)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
