package main

import (
	"context"
	"log"
	"net/http"

	"payrollassist/internal/config"
	"payrollassist/internal/db"
	apphttp "payrollassist/internal/http"
	"payrollassist/internal/llm"
	"payrollassist/internal/rag"
	"payrollassist/internal/store"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()

	var retriever rag.Retriever
	switch cfg.Store {
	case "postgres":
		pool := db.NewPool(ctx, cfg.DatabaseURL)
		defer pool.Close()
		retriever = store.NewPostgresRetriever(pool)
	default:
		retriever = store.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
	}

	var embedder rag.Embedder
	var completer rag.Completer
	switch cfg.Provider {
	case "gemini":
		gemini, err := llm.NewGeminiClient(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel, cfg.CompletionModel)
		if err != nil {
			log.Fatalf("failed to init Gemini client: %v", err)
		}
		embedder, completer = gemini, gemini
	case "hf-inference":
		embedder = llm.NewEmbeddingClient(cfg.EmbeddingURL, cfg.HFAPIKey, cfg.EmbeddingModel)
		completer = llm.NewInferenceClient(cfg.HFInferenceURL, cfg.HFAPIKey, cfg.CompletionModel)
	default:
		embedder = llm.NewEmbeddingClient(cfg.EmbeddingURL, cfg.HFAPIKey, cfg.EmbeddingModel)
		completer = llm.NewRouterClient(cfg.HFRouterURL, cfg.HFAPIKey, cfg.CompletionModel)
	}

	chatService := rag.NewService(embedder, retriever, completer, cfg.MatchThreshold, cfg.MatchCount)

	h := apphttp.NewHandler(chatService)
	router := apphttp.NewRouter(h)

	handler := corsMiddleware(router)

	addr := ":" + cfg.Port
	log.Printf("API listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin == "http://localhost:3000" || origin == "http://127.0.0.1:3000" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
