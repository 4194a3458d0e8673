package main

import (
	"log"
	"net/http"
	"time"

	"bombhunt-lite/apps/server/internal/config"
	"bombhunt-lite/apps/server/internal/gateway"
	"bombhunt-lite/apps/server/internal/history"
	"bombhunt-lite/apps/server/internal/lobby"
	"bombhunt-lite/apps/server/internal/narrative"
	"bombhunt-lite/apps/server/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Server] Failed to load config: %v", err)
	}

	historyService, historyMode, err := history.NewServiceFromEnv(cfg.HistoryMode, cfg.HistoryDSN, cfg.HistoryDBPath)
	if err != nil {
		log.Fatalf("[Server] Failed to init history service: %v", err)
	}
	defer historyService.Close()

	narrativeService, narrativeMode := narrative.NewServiceFromEnv(
		cfg.NarrativeAPIKey, cfg.NarrativeBaseURL, cfg.NarrativeModel, time.Now().UnixNano())
	defer narrativeService.Close()

	lby := lobby.New(narrativeService, historyService, session.Options{
		ThinkDelay:       cfg.OpponentThinkDelay,
		NarrativeTimeout: cfg.NarrativeTimeout,
	})
	defer lby.Shutdown()
	gw := gateway.New(lby)
	historyHTTP := history.NewHTTPHandler(historyService)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	historyHTTP.RegisterRoutes(mux)

	log.Printf("[Server] History mode: %s", historyMode)
	log.Printf("[Server] Narrative mode: %s", narrativeMode)
	log.Printf("[Server] Starting WebSocket server on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}
