package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Chat     ChatConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	JwtSecret    string
	EmbedTopic   string // watermill topic for source indexing
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "gemini"
	LLMModel          string // e.g. "llama3", "gemini-1.5-flash"
}

// ChatConfig bundles the retrieval and generation tuning knobs.
type ChatConfig struct {
	TopK            int     // global cap on ranked sources after merging
	MatchThreshold  float64 // per-kind similarity cutoff
	MatchCount      int     // per-kind result bound before merging
	HistoryLimit    int     // prior turns loaded into the prompt
	RecentTasks     int     // always-on recent tasks in the context
	RecentJournal   int     // always-on recent journal entries in the context
	MaxContextChars int     // hard cap on the assembled context string
	TimeoutSeconds  int     // per-request budget: embed + retrieve + generate
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JwtSecret:    getEnv("JWT_SECRET", ""),
			EmbedTopic:   getEnv("EMBED_SOURCE_TOPIC_NAME", "EMBED_SOURCE"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
		},
		Chat: ChatConfig{
			TopK:            getEnvAsInt("CHAT_TOP_K", 8),
			MatchThreshold:  getEnvAsFloat("CHAT_MATCH_THRESHOLD", 0.35),
			MatchCount:      getEnvAsInt("CHAT_MATCH_COUNT", 5),
			HistoryLimit:    getEnvAsInt("CHAT_HISTORY_LIMIT", 10),
			RecentTasks:     getEnvAsInt("CHAT_RECENT_TASKS", 10),
			RecentJournal:   getEnvAsInt("CHAT_RECENT_JOURNAL", 7),
			MaxContextChars: getEnvAsInt("CHAT_MAX_CONTEXT_CHARS", 24000),
			TimeoutSeconds:  getEnvAsInt("CHAT_TIMEOUT_SECONDS", 120),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
