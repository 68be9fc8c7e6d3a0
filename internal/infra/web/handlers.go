package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"shortsforge/internal/domain"
	"shortsforge/internal/domain/model"
	"shortsforge/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrTooManyPrompts):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// runInBackground claims the gate and runs fn detached from the request
// context; callers poll /api/v1/progress for the outcome. The context handed
// to fn reports per-item progress through the gate's Update.
func (s *Server) runInBackground(w http.ResponseWriter, label string, fn func(ctx context.Context) (interface{}, error)) {
	token, err := s.gate.Begin(label)
	if err != nil {
		writeError(w, err)
		return
	}
	opCtx := usecase.WithProgress(s.baseCtx, func(message string, percent int) {
		s.gate.Update(token, message, percent)
	})
	go func() {
		results, err := fn(opCtx)
		s.gate.Finish(token, results, err)
		if err != nil {
			s.log.Error().Err(err).Str("operation", label).Msg("background operation failed")
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "operation": label})
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Prompts) == 0 {
		http.Error(w, "prompts is required", http.StatusBadRequest)
		return
	}
	s.runInBackground(w, "create campaign", func(ctx context.Context) (interface{}, error) {
		return s.campaigns.Create(ctx, req)
	})
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	names, err := s.campaigns.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"campaigns": names})
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := s.campaigns.Progress(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req struct {
		Indices []int `json:"indices"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	// Reject unknown campaigns before claiming the gate.
	if _, err := s.campaigns.Progress(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	s.runInBackground(w, "retry "+name, func(ctx context.Context) (interface{}, error) {
		return s.retries.Retry(ctx, name, req.Indices)
	})
}

func (s *Server) handleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Invalid item index", http.StatusBadRequest)
		return
	}
	var req struct {
		ImagePrompt *string `json:"image_prompt"`
		VideoPrompt *string `json:"video_prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	c, err := s.campaigns.UpdatePrompt(r.Context(), name, index, req.ImagePrompt, req.VideoPrompt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"new_status": c.StatusOf(index),
	})
}

func (s *Server) handleUpdateVoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VoiceText string `json:"voice_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.campaigns.UpdateVoice(r.Context(), chi.URLParam(r, "name"), req.VoiceText); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.campaigns.Capacity())
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gate.Progress())
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompts   []model.PromptPair `json:"prompts"`
		VoiceText string             `json:"voice_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sched, err := s.weekly.CreateSchedule(r.Context(), req.Prompts, req.VoiceText)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sched)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	ids, err := s.weekly.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"schedules": ids})
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := s.weekly.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (s *Server) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.weekly.Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.runInBackground(w, "daily batch "+id, func(ctx context.Context) (interface{}, error) {
		return s.weekly.RunDailyBatch(ctx, id)
	})
}
