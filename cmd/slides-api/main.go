package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/piyuindia4/ai-slides/internal/adapters/http"
	filestore "github.com/piyuindia4/ai-slides/internal/adapters/history/file"
	firestorestore "github.com/piyuindia4/ai-slides/internal/adapters/history/firestore"
	memstore "github.com/piyuindia4/ai-slides/internal/adapters/history/memory"
	"github.com/piyuindia4/ai-slides/internal/adapters/llm"
	"github.com/piyuindia4/ai-slides/internal/app/generator"
	"github.com/piyuindia4/ai-slides/internal/app/history"
	"github.com/piyuindia4/ai-slides/internal/app/session"
	"github.com/piyuindia4/ai-slides/internal/config"
	"github.com/piyuindia4/ai-slides/internal/domain"
	"github.com/piyuindia4/ai-slides/internal/export"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Model: mock for dev, Gemini (API key) or Vertex otherwise.
	var (
		model domain.ModelClient
		err   error
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using mock model client")
		model = llm.NewMockLLM()
	} else {
		log.Printf("[LLM] Using %s backend (model=%s)", cfg.LLMBackend, cfg.ModelName)
		model, err = llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("error initializing model client: %v", err)
		}
	}

	// History: file (default), memory or Firestore.
	var store domain.SnapshotStore
	switch cfg.HistoryBackend {
	case "firestore":
		log.Printf("[HISTORY] Using Firestore (project=%s)", cfg.GCPProjectID)
		if cfg.GCPProjectID == "" {
			log.Fatal("SLIDES_GCP_PROJECT is required for the firestore history backend")
		}
		store, err = firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore history: %v", err)
		}
	case "memory":
		log.Println("[HISTORY] Using in-memory history")
		store = memstore.NewStore()
	default:
		log.Printf("[HISTORY] Using file history (%s)", cfg.HistoryPath)
		store, err = filestore.NewStore(cfg.HistoryPath)
		if err != nil {
			log.Fatalf("error initializing file history: %v", err)
		}
	}

	hist := history.NewService(store)
	defer hist.Close()

	dispatcher := generator.NewDispatcher(model)
	sessions := session.NewService(dispatcher, hist)

	var exportOpts []export.Option
	if cfg.ThumbnailFont != "" {
		exportOpts = append(exportOpts, export.WithFontFile(cfg.ThumbnailFont))
	}
	exporter := export.NewExporter(exportOpts...)

	handler := httpadapter.NewServer(dispatcher, sessions, hist, exporter, cfg.ModelName)

	addr := ":" + cfg.Port
	log.Println("Slides API listening on port:", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
