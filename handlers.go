package main

import (
	"encoding/json"
	"net/http"
)

// API Handlers

func handleStatus(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(pipelineState.snapshot())
}

func handleConfig(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(cfg)
	}
}

func handlePhase(pipeline *Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", 405)
			return
		}

		var req struct {
			Channel int     `json:"channel"`
			Delta   float64 `json:"delta"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), 400)
			return
		}

		pipeline.InjectPhase(PhaseCorrection{Channel: req.Channel, Delta: req.Delta})

		// Broadcast to all clients
		broadcastJSON(map[string]interface{}{
			"type":    "phase_update",
			"channel": req.Channel,
			"delta":   req.Delta,
		})

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"channel": req.Channel,
			"delta":   req.Delta,
		})
	}
}
