package config

import (
	"log"
	"os"
)

type LLMBackend string

const (
	BackendGemini LLMBackend = "gemini"
	BackendVertex LLMBackend = "vertex"
)

type Config struct {
	Port string

	LLMBackend LLMBackend
	APIKey     string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	HistoryBackend string // "file", "memory" or "firestore"
	HistoryPath    string // file backend only

	ThumbnailFont string // optional TTF path for slide thumbnails

	UseMockLLM bool // true = never call the hosted model
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

// Load reads all env vars and builds the config
func Load() *Config {
	backend := LLMBackend(getEnv("SLIDES_LLM_BACKEND", "gemini"))

	cfg := &Config{
		Port: getEnv("SLIDES_PORT", "5001"),

		LLMBackend: backend,
		// GEMINI_API_KEY matches what the hosted model's console hands out.
		APIKey: getEnv("GEMINI_API_KEY", ""),

		GCPProjectID: getEnv("SLIDES_GCP_PROJECT", ""),
		GCPLocation:  getEnv("SLIDES_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("SLIDES_MODEL_NAME", "gemini-2.5-flash"),

		HistoryBackend: getEnv("SLIDES_HISTORY_BACKEND", "file"),
		HistoryPath:    getEnv("SLIDES_HISTORY_PATH", "ppt_chat_history.json"),

		ThumbnailFont: getEnv("SLIDES_THUMBNAIL_FONT", ""),

		UseMockLLM: getBoolEnv("SLIDES_USE_MOCK_LLM", false),
	}

	// Minimal validation per backend
	if !cfg.UseMockLLM {
		switch cfg.LLMBackend {
		case BackendGemini:
			if cfg.APIKey == "" {
				log.Fatal("GEMINI_API_KEY must be set for the gemini backend")
			}
		case BackendVertex:
			if cfg.GCPProjectID == "" {
				log.Fatal("SLIDES_GCP_PROJECT must be set for the vertex backend")
			}
		default:
			log.Fatalf("unknown LLM backend %q", cfg.LLMBackend)
		}
	}

	return cfg
}
