package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"divergence-radar/database"
	"divergence-radar/detector"
)

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	detectedOnly := r.URL.Query().Get("detected") == "true"
	limit := getIntParam(r, "limit", 100, 1, 500)

	rows, err := s.repo.ListResults(symbol, detectedOnly, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list scans", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleLatestScan(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		respondWithError(w, http.StatusBadRequest, "Missing symbol", nil)
		return
	}

	// Cache first, result store as fallback
	if s.redis != nil {
		var cached detector.Result
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.GetLatestScan(ctx, symbol, &cached); err == nil {
			writeJSON(w, http.StatusOK, &cached)
			return
		}
	}

	row, err := s.repo.LatestResult(symbol)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load scan", err)
		return
	}
	if row == nil {
		respondWithError(w, http.StatusNotFound, "Symbol has not been scanned", nil)
		return
	}

	result, err := row.DecodePayload()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to decode scan", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetWebhooks(w http.ResponseWriter, r *http.Request) {
	webhooks, err := s.repo.GetWebhooks()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to list webhooks", err)
		return
	}
	writeJSON(w, http.StatusOK, webhooks)
}

func (s *Server) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var webhook database.AlertWebhook
	if err := json.NewDecoder(r.Body).Decode(&webhook); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	// Reset ID to let DB assign it
	webhook.ID = 0

	if err := s.repo.SaveWebhook(&webhook); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to create webhook", err)
		return
	}

	// Refresh webhook manager cache
	if s.webhookMq != nil {
		s.webhookMq.RefreshCache()
	}

	writeJSON(w, http.StatusCreated, webhook)
}

func (s *Server) handleUpdateWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID", err)
		return
	}

	existing, err := s.repo.GetWebhookByID(id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "Webhook not found", err)
		return
	}

	var webhook database.AlertWebhook
	if err := json.NewDecoder(r.Body).Decode(&webhook); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	webhook.ID = existing.ID
	webhook.CreatedAt = existing.CreatedAt

	if err := s.repo.SaveWebhook(&webhook); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to update webhook", err)
		return
	}

	if s.webhookMq != nil {
		s.webhookMq.RefreshCache()
	}

	writeJSON(w, http.StatusOK, webhook)
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid ID", err)
		return
	}

	if err := s.repo.DeleteWebhook(id); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to delete webhook", err)
		return
	}

	if s.webhookMq != nil {
		s.webhookMq.RefreshCache()
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON encodes a JSON response with status code
func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// getIntParam retrieves an integer query parameter with default value and range validation
func getIntParam(r *http.Request, key string, defaultVal, minVal, maxVal int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil || val < minVal || val > maxVal {
		return defaultVal
	}
	return val
}

// respondWithError logs the error and sends a JSON error response
// Use this to avoid exposing internal errors while still logging them
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil {
		log.Printf("API Error [%d]: %s - %v", code, message, err)
	} else {
		log.Printf("API Error [%d]: %s", code, message)
	}
	http.Error(w, message, code)
}
