package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"shortsforge/internal/usecase"
)

// Server exposes the orchestrator over HTTP. Long-running operations are
// admitted through the single-flight gate and run in the background; the
// orchestrator itself stays fully usable without this layer.
type Server struct {
	campaigns *usecase.CampaignUseCase
	retries   *usecase.RetryUseCase
	weekly    *usecase.WeeklyUseCase
	gate      *usecase.RunGate

	apiKey  string
	baseCtx context.Context
	log     *zerolog.Logger
}

func NewServer(
	campaigns *usecase.CampaignUseCase,
	retries *usecase.RetryUseCase,
	weekly *usecase.WeeklyUseCase,
	gate *usecase.RunGate,
	apiKey string,
	baseCtx context.Context,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		campaigns: campaigns,
		retries:   retries,
		weekly:    weekly,
		gate:      gate,
		apiKey:    apiKey,
		baseCtx:   baseCtx,
		log:       &srvLog,
	}
}

// Router builds the chi router with all routes attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/campaigns", s.handleCreateCampaign)
		r.Get("/campaigns", s.handleListCampaigns)
		r.Get("/campaigns/{name}", s.handleGetCampaign)
		r.Post("/campaigns/{name}/retry", s.handleRetry)
		r.Patch("/campaigns/{name}/prompts/{index}", s.handleUpdatePrompt)
		r.Put("/campaigns/{name}/voice", s.handleUpdateVoice)

		r.Get("/capacity", s.handleCapacity)
		r.Get("/progress", s.handleProgress)

		r.Post("/schedules", s.handleCreateSchedule)
		r.Get("/schedules", s.handleListSchedules)
		r.Get("/schedules/{id}", s.handleGetSchedule)
		r.Post("/schedules/{id}/run", s.handleRunBatch)
	})

	return r
}

// authMiddleware provides simple Bearer token authentication for the API.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}

		if tokenParts[1] != s.apiKey {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
